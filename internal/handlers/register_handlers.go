// Package handlers wires the HTTP surface over the ledger engine.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/fintrust/corebank/internal/core/services"
	"github.com/fintrust/corebank/internal/core/validation"
	"github.com/fintrust/corebank/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterValidators installs the custom binding rules used by the DTOs:
// "acctnum" for the account number format and "amount" for positive decimal
// strings.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("acctnum", func(fl validator.FieldLevel) bool {
		return validation.IsValidAccountNumber(fl.Field().String())
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
}

// NewRouter builds the gin engine with middleware and all routes registered.
func NewRouter(logger *slog.Logger, ledger *services.LedgerService, isProduction bool) *gin.Engine {
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.StructuredLoggingMiddleware(logger))
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	registerLedgerRoutes(v1, ledger)

	return router
}
