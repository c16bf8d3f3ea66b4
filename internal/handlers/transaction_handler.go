package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/pagination"
	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// TransactionHandler serves the cash-flow ledger and its summary.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	reportService      services.ReportServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, reportService services.ReportServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, reportService: reportService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// The amount is given unsigned; saida rows are stored negative.
type CreateTransactionRequest struct {
	Date        *string                `json:"date"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Category    string                 `json:"category" binding:"max=120"`
	Description string                 `json:"description" binding:"max=500"`
	Asset       string                 `json:"asset" binding:"max=60"`
	Amount      decimal.Decimal        `json:"amount" binding:"gt=0"`
}

// UpdateTransactionRequest edits a ledger row. The type cannot change.
type UpdateTransactionRequest struct {
	Date        *string          `json:"date"`
	Category    *string          `json:"category" binding:"omitempty,max=120"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Asset       *string          `json:"asset" binding:"omitempty,max=60"`
	Amount      *decimal.Decimal `json:"amount" binding:"omitempty,gt=0"`
}

// CreateTransaction handles the creation of a new ledger row
// @Summary     Create a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date := time.Now()
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		date = parsed
	}

	transaction, err := h.transactionService.CreateTransaction(acting, services.CreateTransactionInput{
		Date:        date,
		Type:        req.Type,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		Asset:       strings.TrimSpace(req.Asset),
		Amount:      req.Amount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetUserTransactions lists ledger rows
// @Summary     List transactions
// @Description Paginated ledger rows of the target user, newest first, with optional filters
// @Tags        transactions
// @Produce     json
// @Security    CookieAuth
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Param       from_date  query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date    query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       type       query string false "entrada or saida"
// @Param       category   query string false "Exact category"
// @Param       asset      query string false "Exact asset"
// @Param       min_amount query string false "Minimum signed amount"
// @Param       max_amount query string false "Maximum signed amount"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(acting, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTransactionByID returns one ledger row
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    CookieAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(acting, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction edits a ledger row
// @Summary     Update a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Changes"
// @Success     200 {object} models.Transaction
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	input := services.UpdateTransactionInput{
		Category:    req.Category,
		Description: req.Description,
		Asset:       req.Asset,
		Amount:      req.Amount,
	}
	if req.Date != nil {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		input.Date = &parsed
	}

	transaction, err := h.transactionService.UpdateTransaction(acting, id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction removes a ledger row
// @Summary     Delete a transaction
// @Tags        transactions
// @Security    CookieAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(acting, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSummary builds the grouped summary
// @Summary     Cash-flow summary
// @Description Groups ledger rows by category, type, asset or month. The date window applies only when both bounds are given.
// @Tags        transactions
// @Produce     json
// @Security    CookieAuth
// @Param       startDate query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       endDate   query string false "Window end, inclusive (RFC3339 or YYYY-MM-DD)"
// @Param       groupBy   query string false "category (default), type, asset or month"
// @Success     200 {object} services.Summary
// @Failure     400 {object} ErrorResponse "Invalid groupBy or dates"
// @Router      /transactions/summary [get]
func (h *TransactionHandler) GetSummary(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	start, err := queryDate(c, "startDate", false)
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := queryDate(c, "endDate", true)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reportService.BuildSummary(acting, services.SummaryRequest{
		StartDate: start,
		EndDate:   end,
		GroupBy:   c.Query("groupBy"),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter
	var err error

	if filter.FromDate, err = queryDate(c, "from_date", false); err != nil {
		return filter, err
	}
	if filter.ToDate, err = queryDate(c, "to_date", true); err != nil {
		return filter, err
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if !txType.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be entrada or saida")
		}
		filter.Type = &txType
	}

	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := c.Query("asset"); v != "" {
		filter.Asset = &v
	}

	if v := c.Query("min_amount"); v != "" {
		amt, err := decimal.NewFromString(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid min_amount")
		}
		filter.MinAmount = &amt
	}
	if v := c.Query("max_amount"); v != "" {
		amt, err := decimal.NewFromString(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid max_amount")
		}
		filter.MaxAmount = &amt
	}

	return filter, nil
}
