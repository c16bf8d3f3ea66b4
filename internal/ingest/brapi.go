// Package ingest pulls market quotes and central-bank index series from
// external providers and stores them.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/quotes"
)

const (
	brapiBaseURL  = "https://brapi.dev/api"
	brapiBatchMax = 10
)

// brapiQuoteResponse is the top-level brapi quote response.
type brapiQuoteResponse struct {
	Results []brapiQuoteResult `json:"results"`
	Error   bool               `json:"error"`
	Message string             `json:"message"`
}

// brapiQuoteResult is a single quote result from brapi.
type brapiQuoteResult struct {
	Symbol             string              `json:"symbol"`
	LongName           string              `json:"longName"`
	ShortName          string              `json:"shortName"`
	RegularMarketPrice decimal.NullDecimal `json:"regularMarketPrice"`
	RegularMarketTime  *time.Time          `json:"regularMarketTime"`
}

// BrapiClient fetches B3 quotes from brapi.
type BrapiClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	now        func() time.Time
}

// NewBrapiClient creates a brapi client. An empty baseURL uses the public API.
func NewBrapiClient(httpClient *http.Client, baseURL, token string) *BrapiClient {
	if baseURL == "" {
		baseURL = brapiBaseURL
	}
	return &BrapiClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		now:        time.Now,
	}
}

// FetchQuotes prices the tickers in batches. Tickers brapi does not know are
// left out of the result; any failed batch fails the whole call.
func (c *BrapiClient) FetchQuotes(ctx context.Context, tickers []string) ([]quotes.Quote, error) {
	if len(tickers) == 0 {
		return nil, nil
	}

	var all []quotes.Quote
	for i := 0; i < len(tickers); i += brapiBatchMax {
		end := min(i+brapiBatchMax, len(tickers))
		batch, err := c.fetchBatch(ctx, tickers[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return all, nil
}

// fetchBatch fetches quotes for a single batch of tickers.
func (c *BrapiClient) fetchBatch(ctx context.Context, tickers []string) ([]quotes.Quote, error) {
	escaped := make([]string, len(tickers))
	for i, t := range tickers {
		escaped[i] = url.PathEscape(t)
	}
	endpoint := c.baseURL + "/quote/" + strings.Join(escaped, ",")
	if c.token != "" {
		endpoint += "?" + url.Values{"token": {c.token}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building brapi request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brapi request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brapi: unexpected status %d for %s", resp.StatusCode, strings.Join(tickers, ","))
	}

	var body brapiQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding brapi response: %w", err)
	}
	if body.Error {
		return nil, fmt.Errorf("brapi: %s", body.Message)
	}

	now := c.now().UTC()
	result := make([]quotes.Quote, 0, len(body.Results))
	for _, r := range body.Results {
		if !r.RegularMarketPrice.Valid || !r.RegularMarketPrice.Decimal.IsPositive() {
			continue
		}
		name := r.LongName
		if name == "" {
			name = r.ShortName
		}
		asOf := now
		if r.RegularMarketTime != nil {
			asOf = r.RegularMarketTime.UTC()
		}
		result = append(result, quotes.Quote{
			Symbol: strings.ToUpper(r.Symbol),
			Name:   name,
			Price:  r.RegularMarketPrice.Decimal,
			AsOf:   asOf,
		})
	}
	return result, nil
}
