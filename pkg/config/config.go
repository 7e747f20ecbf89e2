package config

import (
	"fmt"
	"log"
	"time"

	"github.com/fintrust/corebank/internal/core/validation"
	"github.com/fintrust/corebank/pkg/money"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL     string
	Port            string
	IsProduction    bool
	EnableDBCheck   bool
	ShutdownTimeout time.Duration

	// Ledger policy knobs. These are deployment configuration, not
	// compiled constants.
	Limits validation.Limits
}

// LoadConfig loads configuration from environment variables and a .env file
// if present. Environment variables override .env values, which override the
// defaults.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist.
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	viper.SetDefault("MIN_BALANCE", "100.00")
	viper.SetDefault("MAX_WITHDRAWAL", "50000.00")
	viper.SetDefault("MAX_TRANSFER", "100000.00")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	shutdownStr := viper.GetString("SHUTDOWN_TIMEOUT")
	shutdownTimeout, err := time.ParseDuration(shutdownStr)
	if err != nil {
		shutdownTimeout = 10 * time.Second
		log.Printf("Warning: Invalid value for SHUTDOWN_TIMEOUT (%q). Defaulting to %s.\n", shutdownStr, shutdownTimeout)
	}
	cfg.ShutdownTimeout = shutdownTimeout

	limits, err := loadLimits()
	if err != nil {
		return nil, err
	}
	cfg.Limits = limits

	return cfg, nil
}

func loadLimits() (validation.Limits, error) {
	minBalance, err := money.Parse(viper.GetString("MIN_BALANCE"))
	if err != nil {
		return validation.Limits{}, fmt.Errorf("invalid MIN_BALANCE: %w", err)
	}
	maxWithdrawal, err := money.Parse(viper.GetString("MAX_WITHDRAWAL"))
	if err != nil {
		return validation.Limits{}, fmt.Errorf("invalid MAX_WITHDRAWAL: %w", err)
	}
	maxTransfer, err := money.Parse(viper.GetString("MAX_TRANSFER"))
	if err != nil {
		return validation.Limits{}, fmt.Errorf("invalid MAX_TRANSFER: %w", err)
	}
	if minBalance.IsNegative() {
		return validation.Limits{}, fmt.Errorf("MIN_BALANCE must not be negative")
	}
	if !maxWithdrawal.IsPositive() || !maxTransfer.IsPositive() {
		return validation.Limits{}, fmt.Errorf("MAX_WITHDRAWAL and MAX_TRANSFER must be positive")
	}
	return validation.Limits{
		MinBalance:    minBalance,
		MaxWithdrawal: maxWithdrawal,
		MaxTransfer:   maxTransfer,
	}, nil
}
