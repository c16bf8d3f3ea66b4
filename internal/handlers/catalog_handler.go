package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

const defaultSearchLimit = 20

// CatalogHandler serves institutions, stocks and assets.
type CatalogHandler struct {
	institutionService services.InstitutionServicer
	catalogService     services.CatalogServicer
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(institutionService services.InstitutionServicer, catalogService services.CatalogServicer) *CatalogHandler {
	return &CatalogHandler{institutionService: institutionService, catalogService: catalogService}
}

// UpsertInstitutionRequest creates or updates an institution by name.
type UpsertInstitutionRequest struct {
	Name   string                   `json:"name" binding:"required,max=200"`
	Status models.InstitutionStatus `json:"status" binding:"omitempty,oneof=ATIVA INATIVA"`
}

// CreateAssetRequest creates an asset owned by the target user.
type CreateAssetRequest struct {
	Name         string            `json:"name" binding:"required,max=200"`
	Class        models.AssetClass `json:"class" binding:"required,asset_class"`
	Symbol       *string           `json:"symbol" binding:"omitempty,max=20"`
	CurrentValue *decimal.Decimal  `json:"current_value" binding:"omitempty,gte=0"`
}

// ListInstitutions lists institutions
// @Summary     List institutions
// @Tags        institutions
// @Produce     json
// @Security    CookieAuth
// @Param       status query string false "ATIVA or INATIVA"
// @Success     200 {array} models.Institution
// @Router      /institutions [get]
func (h *CatalogHandler) ListInstitutions(c *gin.Context) {
	var status *models.InstitutionStatus
	if v := c.Query("status"); v != "" {
		s := models.InstitutionStatus(strings.ToUpper(v))
		status = &s
	}

	institutions, err := h.institutionService.ListInstitutions(status)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"institutions": institutions})
}

// UpsertInstitution creates or refreshes an institution
// @Summary     Upsert an institution
// @Description The code is derived from the name; posting the same name again updates the row.
// @Tags        institutions
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body UpsertInstitutionRequest true "Institution"
// @Success     200 {object} models.Institution
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /institutions [post]
func (h *CatalogHandler) UpsertInstitution(c *gin.Context) {
	var req UpsertInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	institution, err := h.institutionService.UpsertInstitution(req.Name, req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"institution": institution})
}

// SearchStocks searches the stock catalogue
// @Summary     Search stocks
// @Tags        catalog
// @Produce     json
// @Security    CookieAuth
// @Param       q     query string false "Ticker prefix or company name fragment"
// @Param       limit query int    false "Maximum results (default 20)"
// @Success     200 {array} models.Stock
// @Router      /stocks [get]
func (h *CatalogHandler) SearchStocks(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultSearchLimit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stocks, err := h.catalogService.SearchStocks(c.Query("q"), limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stocks": stocks})
}

// GetStock returns one stock by ticker
// @Summary     Get a stock
// @Tags        catalog
// @Produce     json
// @Security    CookieAuth
// @Param       ticker path string true "Ticker"
// @Success     200 {object} models.Stock
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Router      /stocks/{ticker} [get]
func (h *CatalogHandler) GetStock(c *gin.Context) {
	stock, err := h.catalogService.GetStockByTicker(c.Param("ticker"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

// ListAssets lists catalogue assets and the target user's own assets
// @Summary     List assets
// @Tags        catalog
// @Produce     json
// @Security    CookieAuth
// @Param       class query string false "Asset class"
// @Success     200 {array} models.Asset
// @Router      /assets [get]
func (h *CatalogHandler) ListAssets(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var class *models.AssetClass
	if v := c.Query("class"); v != "" {
		cl := models.AssetClass(v)
		if !cl.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown asset class"))
			return
		}
		class = &cl
	}

	assets, err := h.catalogService.ListAssets(acting, class)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets})
}

// CreateAsset creates a user-owned asset
// @Summary     Create an asset
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body CreateAssetRequest true "Asset"
// @Success     201 {object} models.Asset
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /assets [post]
func (h *CatalogHandler) CreateAsset(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	asset, err := h.catalogService.CreateAsset(acting, services.CreateAssetInput{
		Name:         req.Name,
		Class:        req.Class,
		Symbol:       req.Symbol,
		CurrentValue: req.CurrentValue,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// GetAsset returns one asset visible to the target user
// @Summary     Get an asset
// @Tags        catalog
// @Produce     json
// @Security    CookieAuth
// @Param       id path string true "Asset ID"
// @Success     200 {object} models.Asset
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id} [get]
func (h *CatalogHandler) GetAsset(c *gin.Context) {
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

	asset, err := h.catalogService.GetAsset(acting, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset})
}
