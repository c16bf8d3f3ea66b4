package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

const defaultSearchLimit = 20

// CreateAssetInput describes a custom asset owned by the target user.
type CreateAssetInput struct {
	Name         string
	Class        models.AssetClass
	Symbol       *string
	CurrentValue *decimal.Decimal
}

// catalogService serves the stock and asset catalogues.
type catalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new CatalogServicer.
func NewCatalogService(db *gorm.DB) CatalogServicer {
	return &catalogService{db: db}
}

// SearchStocks matches q against ticker prefixes and company names.
func (s *catalogService) SearchStocks(q string, limit int) ([]models.Stock, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}
	query := s.db.Order("ticker ASC").Limit(limit)
	if q = strings.TrimSpace(q); q != "" {
		query = query.Where("UPPER(ticker) LIKE ? OR LOWER(company_name) LIKE ?",
			strings.ToUpper(q)+"%", "%"+strings.ToLower(q)+"%")
	}

	var stocks []models.Stock
	if err := query.Find(&stocks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stocks, nil
}

// GetStockByTicker looks a stock up by its exact ticker, ignoring case.
func (s *catalogService) GetStockByTicker(ticker string) (*models.Stock, error) {
	var stock models.Stock
	if err := s.db.Where("ticker = ?", strings.ToUpper(strings.TrimSpace(ticker))).First(&stock).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrStockNotFound)
	}
	return &stock, nil
}

// ListAssets returns the shared catalogue plus the target user's own assets.
func (s *catalogService) ListAssets(acting ActingContext, class *models.AssetClass) ([]models.Asset, error) {
	query := s.db.Where("user_id IS NULL OR user_id = ?", acting.TargetUserID)
	if class != nil {
		query = query.Where("class = ?", *class)
	}
	var assets []models.Asset
	if err := query.Order("name ASC").Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return assets, nil
}

// CreateAsset adds a custom asset for the target user.
func (s *catalogService) CreateAsset(acting ActingContext, input CreateAssetInput) (*models.Asset, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset name is required")
	}
	if !input.Class.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown asset class "+string(input.Class))
	}

	owner := acting.TargetUserID
	asset := &models.Asset{UserID: &owner, Name: name, Class: input.Class}
	if input.Symbol != nil {
		if symbol := strings.ToUpper(strings.TrimSpace(*input.Symbol)); symbol != "" {
			asset.Symbol = &symbol
		}
	}
	if input.CurrentValue != nil {
		if input.CurrentValue.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "current value must not be negative")
		}
		asset.CurrentValue = decimal.NewNullDecimal(*input.CurrentValue)
	}

	if err := s.db.Create(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return asset, nil
}

// GetAsset returns a catalogue asset or one owned by the target user.
func (s *catalogService) GetAsset(acting ActingContext, assetID string) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.Where("id = ? AND (user_id IS NULL OR user_id = ?)", assetID, acting.TargetUserID).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}
