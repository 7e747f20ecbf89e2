package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fintrust/corebank/internal/apperrors"
	"github.com/fintrust/corebank/internal/core/services"
	"github.com/fintrust/corebank/internal/dto"
	"github.com/fintrust/corebank/internal/middleware"
	"github.com/fintrust/corebank/pkg/money"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// ledgerHandler translates HTTP requests into ledger engine calls. It holds
// no business rules; every invariant lives in the engine.
type ledgerHandler struct {
	ledger *services.LedgerService
}

func newLedgerHandler(ledger *services.LedgerService) *ledgerHandler {
	return &ledgerHandler{ledger: ledger}
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledger *services.LedgerService) {
	h := newLedgerHandler(ledger)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.openAccount)
		accounts.GET("/:account_number", h.getAccount)
		accounts.POST("/:account_number/deposit", h.deposit)
		accounts.POST("/:account_number/withdraw", h.withdraw)
		accounts.POST("/:account_number/close", h.closeAccount)
		accounts.GET("/:account_number/transactions", h.listTransactions)
	}
	rg.POST("/transfers", h.transfer)
}

// respondError maps the engine's error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var insufficient *apperrors.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     err.Error(),
			"current":   insufficient.Current.Amount(),
			"requested": insufficient.Requested.Amount(),
		})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Ledger operation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed, safe to retry"})
	}
}

func (h *ledgerHandler) openAccount(c *gin.Context) {
	var req dto.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.ledger.OpenAccount(c.Request.Context(), req.CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *ledgerHandler) getAccount(c *gin.Context) {
	account, err := h.ledger.GetAccount(c.Request.Context(), c.Param("account_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *ledgerHandler) deposit(c *gin.Context) {
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.ledger.Deposit(c.Request.Context(), c.Param("account_number"), amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(entry))
}

func (h *ledgerHandler) withdraw(c *gin.Context) {
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.ledger.Withdraw(c.Request.Context(), c.Param("account_number"), amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(entry))
}

func (h *ledgerHandler) transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledger.Transfer(c.Request.Context(), req.FromAccount, req.ToAccount, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.TransferResponse{
		Out: dto.ToTransactionResponse(&result.Out),
		In:  dto.ToTransactionResponse(&result.In),
	})
}

func (h *ledgerHandler) closeAccount(c *gin.Context) {
	if err := h.ledger.CloseAccount(c.Request.Context(), c.Param("account_number")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// listTransactions serves transaction history. With from/to query params it
// returns the entries of that date range (inclusive, oldest-first); otherwise
// the newest entries up to ?limit.
func (h *ledgerHandler) listTransactions(c *gin.Context) {
	accountNumber := c.Param("account_number")
	ctx := c.Request.Context()

	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr != "" || toStr != "" {
		from, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' date, expected YYYY-MM-DD"})
			return
		}
		to, err := time.Parse(dateLayout, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' date, expected YYYY-MM-DD"})
			return
		}
		// Make 'to' inclusive of the whole day.
		to = to.Add(24*time.Hour - time.Nanosecond)

		entries, err := h.ledger.GetTransactionsByDateRange(ctx, accountNumber, from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToTransactionResponses(entries))
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit'"})
			return
		}
		limit = parsed
	}

	entries, err := h.ledger.GetTransactionHistory(ctx, accountNumber, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponses(entries))
}
