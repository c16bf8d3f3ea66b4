package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// WatchlistHandler serves the target user's watchlist.
type WatchlistHandler struct {
	watchlistService services.WatchlistServicer
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(watchlistService services.WatchlistServicer) *WatchlistHandler {
	return &WatchlistHandler{watchlistService: watchlistService}
}

// AddWatchlistRequest follows a ticker.
type AddWatchlistRequest struct {
	Ticker      string           `json:"ticker" binding:"required,max=20"`
	TargetPrice *decimal.Decimal `json:"target_price" binding:"omitempty,gt=0"`
	Notes       string           `json:"notes" binding:"max=500"`
}

// List returns the watchlist
// @Summary     Get watchlist
// @Tags        watchlist
// @Produce     json
// @Security    CookieAuth
// @Success     200 {array} models.Watchlist
// @Router      /watchlist [get]
func (h *WatchlistHandler) List(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entries, err := h.watchlistService.ListWatchlist(acting)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchlist": entries})
}

// Add follows a ticker
// @Summary     Add to watchlist
// @Tags        watchlist
// @Accept      json
// @Produce     json
// @Security    CookieAuth
// @Param       request body AddWatchlistRequest true "Entry"
// @Success     201 {object} models.Watchlist
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Failure     409 {object} ErrorResponse "Already in watchlist"
// @Router      /watchlist [post]
func (h *WatchlistHandler) Add(c *gin.Context) {
	acting, err := getActing(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	entry, err := h.watchlistService.AddToWatchlist(acting, services.AddWatchlistInput{
		Ticker:      req.Ticker,
		TargetPrice: req.TargetPrice,
		Notes:       req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// Remove unfollows a ticker
// @Summary     Remove from watchlist
// @Tags        watchlist
// @Security    CookieAuth
// @Param       id path string true "Entry ID"
// @Success     204 "Removed"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Router      /watchlist/{id} [delete]
func (h *WatchlistHandler) Remove(c *gin.Context) {
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

	if err := h.watchlistService.RemoveFromWatchlist(acting, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
