package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/pagination"
	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// PortfolioHandler serves positions, operations and allocation targets.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
	auditService     services.AuditServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer, auditService services.AuditServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService, auditService: auditService}
}

// OperationRequest is the payload of an aporte or resgate. Exactly one of
// stock_id and asset_id must be set.
type OperationRequest struct {
	StockID       *string         `json:"stock_id" binding:"omitempty,uuid"`
	AssetID       *string         `json:"asset_id" binding:"omitempty,uuid"`
	InstitutionID *string         `json:"institution_id" binding:"omitempty,uuid"`
	Quantity      decimal.Decimal `json:"quantity" binding:"gt=0"`
	Price         decimal.Decimal `json:"price" binding:"gt=0"`
	Date          string          `json:"date"`
	Notes         string          `json:"notes" binding:"max=500"`
}

// AllocationTargetRequest is one class target.
type AllocationTargetRequest struct {
	Class   models.AssetClass `json:"class" binding:"required,asset_class"`
	Percent decimal.Decimal   `json:"percent" binding:"gte=0,lte=100"`
}

// SetTargetsRequest replaces all class targets.
type SetTargetsRequest struct {
	Targets []AllocationTargetRequest `json:"targets" binding:"dive"`
}

// GetPortfolio returns holdings with current value, return and allocation
// @Summary     Get portfolio
// @Description Holdings priced from quotes; holdings without a quote use their average price and are listed in fallback_symbols.
// @Tags        portfolio
// @Produce     json
// @Security    CookieAuth
// @Success     200 {object} services.PortfolioSummary
// @Router      /portfolio [get]
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.portfolioService.GetPortfolio(c.Request.Context(), acting)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Aporte buys into a position
// @Summary     Aporte (buy)
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body OperationRequest true "Operation"
// @Success     201 {object} services.OperationResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Stock or asset not found"
// @Failure     409 {object} ErrorResponse "Concurrent update, retry"
// @Router      /portfolio/aporte [post]
func (h *PortfolioHandler) Aporte(c *gin.Context) {
	h.operate(c, services.AuditAporte, h.portfolioService.Aporte)
}

// Resgate sells from a position
// @Summary     Resgate (sell)
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body OperationRequest true "Operation"
// @Success     201 {object} services.OperationResult
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient quantity"
// @Failure     404 {object} ErrorResponse "Position not found"
// @Failure     409 {object} ErrorResponse "Concurrent update, retry"
// @Router      /portfolio/resgate [post]
func (h *PortfolioHandler) Resgate(c *gin.Context) {
	h.operate(c, services.AuditResgate, h.portfolioService.Resgate)
}

type operationFunc func(ctx context.Context, acting services.ActingContext, input services.OperationInput) (*services.OperationResult, error)

func (h *PortfolioHandler) operate(c *gin.Context, action string, op operationFunc) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	input := services.OperationInput{
		StockID:       req.StockID,
		AssetID:       req.AssetID,
		InstitutionID: req.InstitutionID,
		Quantity:      req.Quantity,
		Price:         req.Price,
		Notes:         req.Notes,
	}
	if req.Date != "" {
		date, err := parseFlexibleTime(req.Date)
		if err != nil {
			respondWithError(c, bindError(err))
			return
		}
		input.Date = date
	}

	result, err := op(c.Request.Context(), acting, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(acting, action, "portfolio", result.Position.ID, c.ClientIP(), map[string]any{
		"quantity":       req.Quantity.String(),
		"price":          req.Price.String(),
		"transaction_id": result.Transaction.ID,
	})

	c.JSON(http.StatusCreated, result)
}

// ListTransactions lists stock transactions, newest first
// @Summary     List stock transactions
// @Tags        portfolio
// @Produce     json
// @Security    CookieAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.StockTransaction]
// @Router      /portfolio/transactions [get]
func (h *PortfolioHandler) ListTransactions(c *gin.Context) {
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

	result, err := h.portfolioService.ListTransactions(acting, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CashSummary totals stock transactions by type
// @Summary     Portfolio cash summary
// @Tags        portfolio
// @Produce     json
// @Security    CookieAuth
// @Param       from query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to   query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.CashSummary
// @Router      /portfolio/cash-summary [get]
func (h *PortfolioHandler) CashSummary(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	from, err := queryDate(c, "from", false)
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := queryDate(c, "to", true)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.portfolioService.CashSummary(acting, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetTargets lists allocation targets
// @Summary     Get allocation targets
// @Tags        portfolio
// @Produce     json
// @Security    CookieAuth
// @Success     200 {array} models.AllocationTarget
// @Router      /portfolio/targets [get]
func (h *PortfolioHandler) GetTargets(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	targets, err := h.portfolioService.GetAllocationTargets(acting)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets})
}

// SetTargets replaces allocation targets
// @Summary     Set allocation targets
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body SetTargetsRequest true "Targets"
// @Success     200 {array} models.AllocationTarget
// @Failure     400 {object} ErrorResponse "Targets exceed 100%"
// @Router      /portfolio/targets [put]
func (h *PortfolioHandler) SetTargets(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	inputs := make([]services.AllocationTargetInput, 0, len(req.Targets))
	for _, t := range req.Targets {
		inputs = append(inputs, services.AllocationTargetInput{Class: t.Class, Percent: t.Percent})
	}

	targets, err := h.portfolioService.SetAllocationTargets(acting, inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(acting, services.AuditTargets, "allocation_target", acting.TargetUserID, c.ClientIP(),
		map[string]any{"count": len(targets)})

	c.JSON(http.StatusOK, gin.H{"targets": targets})
}

