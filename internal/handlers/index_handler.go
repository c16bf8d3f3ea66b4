package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// IndexHandler serves economic index series.
type IndexHandler struct {
	indexService services.IndexServicer
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(indexService services.IndexServicer) *IndexHandler {
	return &IndexHandler{indexService: indexService}
}

// GetIndex returns the observations of one series
// @Summary     Get an economic index series
// @Tags        indexes
// @Produce     json
// @Security    CookieAuth
// @Param       code path  string true  "CDI, SELIC or IPCA"
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to   query string false "End date (YYYY-MM-DD)"
// @Success     200 {array} models.EconomicIndex
// @Failure     404 {object} ErrorResponse "Unknown index"
// @Router      /indexes/{code} [get]
func (h *IndexHandler) GetIndex(c *gin.Context) {
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

	observations, err := h.indexService.GetIndex(c.Param("code"), from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": c.Param("code"), "observations": observations})
}
