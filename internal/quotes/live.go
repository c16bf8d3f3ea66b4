package quotes

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HuskeLuv/SFC-sub003/internal/cache"
	"github.com/HuskeLuv/SFC-sub003/internal/logger"
)

const cacheKeyPrefix = "quote:"

// LiveSource asks a market-data provider for quotes, caching each symbol for ttl.
type LiveSource struct {
	fetcher Fetcher
	store   cache.Store
	ttl     time.Duration
}

// NewLiveSource creates a LiveSource.
func NewLiveSource(fetcher Fetcher, store cache.Store, ttl time.Duration) *LiveSource {
	return &LiveSource{fetcher: fetcher, store: store, ttl: ttl}
}

func (s *LiveSource) Name() string { return "live" }

func (s *LiveSource) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	log := logger.Named("quotes")
	result := make(map[string]Quote, len(symbols))

	var missing []string
	for _, symbol := range symbols {
		if !isMarketSymbol(symbol) {
			continue
		}
		raw, found, err := s.store.Get(ctx, cacheKeyPrefix+symbol)
		if err != nil {
			log.Warnw("quote cache read failed", "symbol", symbol, "error", err)
		}
		if found {
			var q Quote
			if err := json.Unmarshal(raw, &q); err == nil {
				result[symbol] = q
				continue
			}
		}
		missing = append(missing, symbol)
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := s.fetcher.FetchQuotes(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, q := range fetched {
		result[q.Symbol] = q
		raw, err := json.Marshal(q)
		if err != nil {
			continue
		}
		if err := s.store.Set(ctx, cacheKeyPrefix+q.Symbol, raw, s.ttl); err != nil {
			log.Warnw("quote cache write failed", "symbol", q.Symbol, "error", err)
		}
	}
	return result, nil
}
