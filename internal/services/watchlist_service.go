package services

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

// AddWatchlistInput names the stock by ticker.
type AddWatchlistInput struct {
	Ticker      string
	TargetPrice *decimal.Decimal
	Notes       string
}

// watchlistService manages followed stocks.
type watchlistService struct {
	db *gorm.DB
}

// NewWatchlistService creates a new WatchlistServicer.
func NewWatchlistService(db *gorm.DB) WatchlistServicer {
	return &watchlistService{db: db}
}

// ListWatchlist returns the target user's entries with their stocks.
func (s *watchlistService) ListWatchlist(acting ActingContext) ([]models.Watchlist, error) {
	var entries []models.Watchlist
	if err := s.db.Preload("Stock").
		Where("user_id = ?", acting.TargetUserID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, nil
}

// AddToWatchlist follows a stock. Each stock appears at most once per user.
func (s *watchlistService) AddToWatchlist(acting ActingContext, input AddWatchlistInput) (*models.Watchlist, error) {
	var stock models.Stock
	if err := s.db.Where("ticker = ?", strings.ToUpper(strings.TrimSpace(input.Ticker))).First(&stock).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrStockNotFound)
	}

	var count int64
	if err := s.db.Model(&models.Watchlist{}).
		Where("user_id = ? AND stock_id = ?", acting.TargetUserID, stock.ID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrWatchlistDuplicate
	}

	entry := &models.Watchlist{
		UserID:  acting.TargetUserID,
		StockID: stock.ID,
		Notes:   input.Notes,
	}
	if input.TargetPrice != nil {
		entry.TargetPrice = decimal.NewNullDecimal(*input.TargetPrice)
	}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	entry.Stock = stock
	return entry, nil
}

// RemoveFromWatchlist deletes an entry for good so the stock can be re-added.
func (s *watchlistService) RemoveFromWatchlist(acting ActingContext, entryID string) error {
	result := s.db.Unscoped().
		Where("id = ? AND user_id = ?", entryID, acting.TargetUserID).
		Delete(&models.Watchlist{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrWatchlistNotFound
	}
	return nil
}
