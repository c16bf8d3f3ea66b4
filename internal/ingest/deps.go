package ingest

import (
	"fmt"
	"io"
	"net/http"

	"gorm.io/gorm"

	"github.com/HuskeLuv/SFC-sub003/internal/cache"
	"github.com/HuskeLuv/SFC-sub003/internal/config"
	"github.com/HuskeLuv/SFC-sub003/internal/quotes"
)

// Deps is the market-data wiring shared by the API and the ingest CLI.
type Deps struct {
	Brapi  *BrapiClient
	Bacen  *BacenClient
	Quotes quotes.Source
	Runner *Runner
	store  cache.Store
}

// NewDeps builds the provider clients, the quote source selected by
// QUOTE_SOURCE and a Runner over db.
func NewDeps(cfg *config.Config, db *gorm.DB) (*Deps, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	brapi := NewBrapiClient(httpClient, cfg.BrapiBaseURL, cfg.BrapiToken)
	bacen := NewBacenClient(httpClient, cfg.BacenBaseURL)

	store, err := cache.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote cache: %w", err)
	}

	source, err := quotes.NewSource(cfg.QuoteSource,
		quotes.NewStoredSource(db),
		quotes.NewLiveSource(brapi, store, cfg.QuoteCacheTTL))
	if err != nil {
		return nil, err
	}

	return &Deps{
		Brapi:  brapi,
		Bacen:  bacen,
		Quotes: source,
		Runner: NewRunner(db, bacen, brapi, cfg.IndexLookbackDays),
		store:  store,
	}, nil
}

// Close releases the quote cache connection, if any.
func (d *Deps) Close() error {
	if c, ok := d.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
