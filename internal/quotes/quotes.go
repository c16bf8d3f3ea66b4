// Package quotes resolves current prices for portfolio symbols.
package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/logger"
)

// AssetKeyPrefix marks keys of assets that have no market symbol. Such keys
// are priced from the stored asset valuation only.
const AssetKeyPrefix = "asset:"

// Quote is the price of one symbol at a point in time.
type Quote struct {
	Symbol string
	Name   string
	Price  decimal.Decimal
	AsOf   time.Time
}

// Source returns quotes for the symbols it knows. Missing symbols are simply
// absent from the result; an error means the source could not be consulted.
type Source interface {
	Name() string
	Quotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

// Fetcher is a market-data client able to price tickers in batches.
type Fetcher interface {
	FetchQuotes(ctx context.Context, tickers []string) ([]Quote, error)
}

// Chain asks each source in turn for the symbols still unpriced. A failing
// source is logged and skipped.
type Chain []Source

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

func (c Chain) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	result := make(map[string]Quote, len(symbols))
	pending := symbols
	for _, source := range c {
		if len(pending) == 0 {
			break
		}
		found, err := source.Quotes(ctx, pending)
		if err != nil {
			logger.Named("quotes").Warnw("quote source failed", "source", source.Name(), "symbols", len(pending), "error", err)
			continue
		}
		next := pending[:0:0]
		for _, symbol := range pending {
			if q, ok := found[symbol]; ok {
				result[symbol] = q
				continue
			}
			next = append(next, symbol)
		}
		pending = next
	}
	return result, nil
}

func isMarketSymbol(symbol string) bool {
	return symbol != "" && !strings.HasPrefix(symbol, AssetKeyPrefix)
}

// NewSource builds the quote source for the QUOTE_SOURCE mode. "live" asks
// the provider first and falls back to stored prices; "stored" never leaves
// the database.
func NewSource(mode string, stored, live Source) (Source, error) {
	switch mode {
	case "", "stored":
		return stored, nil
	case "live":
		return Chain{live, stored}, nil
	default:
		return nil, fmt.Errorf("unknown quote source %q", mode)
	}
}
