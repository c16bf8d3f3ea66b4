package quotes

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

// StoredSource prices symbols from the last ingested stock prices and the
// stored valuation of assets. Symbols only match catalogue assets; user-owned
// assets are looked up by their asset key.
type StoredSource struct {
	db *gorm.DB
}

// NewStoredSource creates a StoredSource.
func NewStoredSource(db *gorm.DB) *StoredSource {
	return &StoredSource{db: db}
}

func (s *StoredSource) Name() string { return "stored" }

func (s *StoredSource) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	var tickers, assetIDs []string
	for _, symbol := range symbols {
		if id, ok := strings.CutPrefix(symbol, AssetKeyPrefix); ok {
			assetIDs = append(assetIDs, id)
			continue
		}
		if symbol != "" {
			tickers = append(tickers, symbol)
		}
	}

	result := make(map[string]Quote, len(symbols))
	db := s.db.WithContext(ctx)

	if len(tickers) > 0 {
		var stocks []models.Stock
		if err := db.Where("ticker IN ? AND last_price IS NOT NULL", tickers).Find(&stocks).Error; err != nil {
			return nil, err
		}
		for _, st := range stocks {
			q := Quote{Symbol: st.Ticker, Name: st.CompanyName, Price: st.LastPrice.Decimal}
			if st.LastPriceAt != nil {
				q.AsOf = *st.LastPriceAt
			}
			result[st.Ticker] = q
		}

		var assets []models.Asset
		if err := db.Where("symbol IN ? AND user_id IS NULL AND current_value IS NOT NULL", tickers).Find(&assets).Error; err != nil {
			return nil, err
		}
		for _, a := range assets {
			if _, ok := result[*a.Symbol]; ok {
				continue
			}
			result[*a.Symbol] = Quote{Symbol: *a.Symbol, Name: a.Name, Price: a.CurrentValue.Decimal, AsOf: a.UpdatedAt}
		}
	}

	if len(assetIDs) > 0 {
		var assets []models.Asset
		if err := db.Where("id IN ? AND current_value IS NOT NULL", assetIDs).Find(&assets).Error; err != nil {
			return nil, err
		}
		for _, a := range assets {
			key := AssetKeyPrefix + a.ID
			result[key] = Quote{Symbol: key, Name: a.Name, Price: a.CurrentValue.Decimal, AsOf: a.UpdatedAt}
		}
	}

	return result, nil
}

