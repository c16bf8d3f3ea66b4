package ingest

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/HuskeLuv/SFC-sub003/internal/logger"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/quotes"
)

// SeriesFetcher reads an economic index series over a date range.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, code string, from, to time.Time) ([]Observation, error)
}

// RunResult contains the outcome of one ingestion run.
type RunResult struct {
	Requested int           `json:"requested"`
	Fetched   int           `json:"fetched"`
	Upserted  int           `json:"upserted"`
	Duration  time.Duration `json:"duration"`
}

// Runner fetches external data and upserts it. A run writes nothing unless
// every fetch it needs succeeded.
type Runner struct {
	db       *gorm.DB
	series   SeriesFetcher
	quotes   quotes.Fetcher
	lookback time.Duration
	now      func() time.Time
}

// NewRunner creates a Runner that re-reads lookbackDays of index history each run.
func NewRunner(db *gorm.DB, series SeriesFetcher, fetcher quotes.Fetcher, lookbackDays int) *Runner {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &Runner{
		db:       db,
		series:   series,
		quotes:   fetcher,
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
		now:      time.Now,
	}
}

// SyncIndexes refreshes every known index series over the lookback window.
func (r *Runner) SyncIndexes(ctx context.Context) (*RunResult, error) {
	log := logger.Named("ingest")
	start := time.Now()
	to := r.now().UTC()
	from := to.Add(-r.lookback)

	result := &RunResult{Requested: len(models.IndexCodes)}
	var rows []models.EconomicIndex
	for _, code := range models.IndexCodes {
		observations, err := r.series.FetchSeries(ctx, code, from, to)
		if err != nil {
			log.Errorw("index fetch failed, aborting run", "code", code, "error", err)
			return nil, fmt.Errorf("fetching %s: %w", code, err)
		}
		for _, o := range observations {
			rows = append(rows, models.EconomicIndex{Code: o.Code, Date: o.Date, Value: o.Value})
		}
	}
	result.Fetched = len(rows)

	if len(rows) > 0 {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).CreateInBatches(&rows, 500).Error
		})
		if err != nil {
			return nil, fmt.Errorf("storing index observations: %w", err)
		}
	}
	result.Upserted = len(rows)
	result.Duration = time.Since(start)

	log.Infow("index sync completed",
		"series", result.Requested,
		"observations", result.Fetched,
		"duration", result.Duration.String(),
	)
	return result, nil
}

// SyncQuotes refreshes the stored price of every stock held in a position or
// followed in a watchlist, and of every symbol-bearing asset held in a position.
func (r *Runner) SyncQuotes(ctx context.Context) (*RunResult, error) {
	log := logger.Named("ingest")
	start := time.Now()
	db := r.db.WithContext(ctx)

	var tickers []string
	err := db.Model(&models.Stock{}).
		Where("id IN (?) OR id IN (?)",
			db.Model(&models.Portfolio{}).Select("stock_id").Where("stock_id IS NOT NULL AND quantity > 0"),
			db.Model(&models.Watchlist{}).Select("stock_id"),
		).
		Order("ticker ASC").
		Pluck("ticker", &tickers).Error
	if err != nil {
		return nil, fmt.Errorf("listing tracked stocks: %w", err)
	}

	var assetSymbols []string
	err = db.Model(&models.Asset{}).
		Where("symbol IS NOT NULL AND symbol <> '' AND id IN (?)",
			db.Model(&models.Portfolio{}).Select("asset_id").Where("asset_id IS NOT NULL AND quantity > 0"),
		).
		Order("symbol ASC").
		Pluck("symbol", &assetSymbols).Error
	if err != nil {
		return nil, fmt.Errorf("listing tracked assets: %w", err)
	}

	symbols := dedupe(append(tickers, assetSymbols...))
	result := &RunResult{Requested: len(symbols)}
	if len(symbols) == 0 {
		log.Info("no tracked symbols, nothing to do")
		result.Duration = time.Since(start)
		return result, nil
	}

	fetched, err := r.quotes.FetchQuotes(ctx, symbols)
	if err != nil {
		log.Errorw("quote fetch failed, aborting run", "symbols", len(symbols), "error", err)
		return nil, fmt.Errorf("fetching quotes: %w", err)
	}
	result.Fetched = len(fetched)

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, q := range fetched {
			asOf := q.AsOf
			res := tx.Model(&models.Stock{}).Where("ticker = ?", q.Symbol).Updates(map[string]interface{}{
				"last_price":    q.Price,
				"last_price_at": asOf,
			})
			if res.Error != nil {
				return res.Error
			}
			upserted := res.RowsAffected
			res = tx.Model(&models.Asset{}).Where("symbol = ?", q.Symbol).Update("current_value", q.Price)
			if res.Error != nil {
				return res.Error
			}
			if upserted+res.RowsAffected > 0 {
				result.Upserted++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storing quotes: %w", err)
	}
	result.Duration = time.Since(start)

	if missing := result.Requested - result.Fetched; missing > 0 {
		log.Warnw("provider returned no quote for some symbols", "missing", missing)
	}
	log.Infow("quote sync completed",
		"requested", result.Requested,
		"fetched", result.Fetched,
		"updated", result.Upserted,
		"duration", result.Duration.String(),
	)
	return result, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
