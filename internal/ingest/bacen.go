package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

const (
	bacenBaseURL    = "https://api.bcb.gov.br/dados/serie"
	bacenDateLayout = "02/01/2006"
)

// bacenSeries maps index codes to their SGS series numbers.
var bacenSeries = map[string]int{
	models.IndexCDI:   12,
	models.IndexSELIC: 11,
	models.IndexIPCA:  433,
}

// Observation is one dated value of an index series.
type Observation struct {
	Code  string
	Date  time.Time
	Value decimal.Decimal
}

type bacenPoint struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

// BacenClient reads series from the central bank's SGS API.
type BacenClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewBacenClient creates a BACEN client. An empty baseURL uses the public API.
func NewBacenClient(httpClient *http.Client, baseURL string) *BacenClient {
	if baseURL == "" {
		baseURL = bacenBaseURL
	}
	return &BacenClient{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// FetchSeries returns the observations of code between from and to, inclusive.
func (c *BacenClient) FetchSeries(ctx context.Context, code string, from, to time.Time) ([]Observation, error) {
	series, ok := bacenSeries[code]
	if !ok {
		return nil, fmt.Errorf("bacen: unknown index %q", code)
	}

	endpoint := fmt.Sprintf("%s/bcdata.sgs.%d/dados?formato=json&dataInicial=%s&dataFinal=%s",
		c.baseURL, series, from.Format(bacenDateLayout), to.Format(bacenDateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building bacen request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bacen request for %s: %w", code, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bacen: unexpected status %d for %s", resp.StatusCode, code)
	}

	var points []bacenPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("decoding bacen response for %s: %w", code, err)
	}

	observations := make([]Observation, 0, len(points))
	for _, p := range points {
		date, err := time.ParseInLocation(bacenDateLayout, p.Data, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bacen %s: bad date %q: %w", code, p.Data, err)
		}
		value, err := parseBacenValue(p.Valor)
		if err != nil {
			return nil, fmt.Errorf("bacen %s: bad value %q: %w", code, p.Valor, err)
		}
		observations = append(observations, Observation{Code: code, Date: date, Value: value})
	}
	return observations, nil
}

// parseBacenValue accepts both "0.043739" and the pt-BR "1.234,56" form.
func parseBacenValue(raw string) (decimal.Decimal, error) {
	v := strings.TrimSpace(raw)
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	}
	return decimal.NewFromString(v)
}
