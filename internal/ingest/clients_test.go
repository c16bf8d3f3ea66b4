package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

// newBrapiMockServer answers /quote/{tickers} with the prices it knows.
func newBrapiMockServer(t *testing.T, prices map[string]string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		tickers := strings.Split(strings.TrimPrefix(r.URL.Path, "/quote/"), ",")
		var results []map[string]interface{}
		for _, ticker := range tickers {
			price, ok := prices[ticker]
			if !ok {
				continue
			}
			results = append(results, map[string]interface{}{
				"symbol":             ticker,
				"longName":           ticker + " S.A.",
				"regularMarketPrice": json.Number(price),
				"regularMarketTime":  "2024-01-05T17:08:00.000Z",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	}))
}

func TestBrapiClient_FetchQuotes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := newBrapiMockServer(t, map[string]string{"PETR4": "38.12", "VALE3": "61.5"}, nil)
		defer server.Close()

		c := NewBrapiClient(server.Client(), server.URL, "")
		got, err := c.FetchQuotes(context.Background(), []string{"PETR4", "VALE3", "XXXX3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 quotes, got %d", len(got))
		}
		if got[0].Symbol != "PETR4" || !got[0].Price.Equal(decimal.RequireFromString("38.12")) || got[0].Name != "PETR4 S.A." {
			t.Errorf("unexpected quote %+v", got[0])
		}
		if !got[0].AsOf.Equal(time.Date(2024, 1, 5, 17, 8, 0, 0, time.UTC)) {
			t.Errorf("unexpected as-of %s", got[0].AsOf)
		}
	})

	t.Run("batches_requests", func(t *testing.T) {
		var calls int32
		prices := map[string]string{}
		var tickers []string
		for i := 0; i < 25; i++ {
			ticker := "T" + string(rune('A'+i)) + "11"
			prices[ticker] = "10"
			tickers = append(tickers, ticker)
		}
		server := newBrapiMockServer(t, prices, &calls)
		defer server.Close()

		c := NewBrapiClient(server.Client(), server.URL, "")
		got, err := c.FetchQuotes(context.Background(), tickers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 25 {
			t.Errorf("expected 25 quotes, got %d", len(got))
		}
		if n := atomic.LoadInt32(&calls); n != 3 {
			t.Errorf("expected 3 batched requests, got %d", n)
		}
	})

	t.Run("token_is_sent", func(t *testing.T) {
		var token string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token = r.URL.Query().Get("token")
			_, _ = w.Write([]byte(`{"results":[]}`))
		}))
		defer server.Close()

		c := NewBrapiClient(server.Client(), server.URL, "secret")
		if _, err := c.FetchQuotes(context.Background(), []string{"PETR4"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "secret" {
			t.Errorf("expected token to be forwarded, got %q", token)
		}
	})

	t.Run("http_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewBrapiClient(server.Client(), server.URL, "")
		_, err := c.FetchQuotes(context.Background(), []string{"PETR4"})
		if err == nil || !strings.Contains(err.Error(), "429") {
			t.Errorf("expected error mentioning 429, got %v", err)
		}
	})

	t.Run("api_error_flag", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":true,"message":"invalid token"}`))
		}))
		defer server.Close()

		c := NewBrapiClient(server.Client(), server.URL, "")
		_, err := c.FetchQuotes(context.Background(), []string{"PETR4"})
		if err == nil || !strings.Contains(err.Error(), "invalid token") {
			t.Errorf("expected api error, got %v", err)
		}
	})

	t.Run("no_tickers_no_request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Fatal("should not make HTTP request without tickers")
		}))
		defer server.Close()

		c := NewBrapiClient(server.Client(), server.URL, "")
		got, err := c.FetchQuotes(context.Background(), nil)
		if err != nil || len(got) != 0 {
			t.Errorf("expected empty result, got %v / %v", got, err)
		}
	})
}

func TestBacenClient_FetchSeries(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var path, query string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			query = r.URL.RawQuery
			_, _ = w.Write([]byte(`[{"data":"02/01/2024","valor":"0.043739"},{"data":"03/01/2024","valor":"0.043739"}]`))
		}))
		defer server.Close()

		c := NewBacenClient(server.Client(), server.URL)
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		got, err := c.FetchSeries(context.Background(), models.IndexCDI, from, to)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if path != "/bcdata.sgs.12/dados" {
			t.Errorf("unexpected path %s", path)
		}
		if !strings.Contains(query, "dataInicial=01/01/2024") || !strings.Contains(query, "dataFinal=31/01/2024") {
			t.Errorf("unexpected query %s", query)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 observations, got %d", len(got))
		}
		if !got[0].Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) || !got[0].Value.Equal(decimal.RequireFromString("0.043739")) {
			t.Errorf("unexpected observation %+v", got[0])
		}
		if got[0].Code != models.IndexCDI {
			t.Errorf("expected code CDI, got %s", got[0].Code)
		}
	})

	t.Run("series_numbers", func(t *testing.T) {
		want := map[string]string{models.IndexSELIC: "/bcdata.sgs.11/dados", models.IndexIPCA: "/bcdata.sgs.433/dados"}
		for code, wantPath := range want {
			var path string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				_, _ = w.Write([]byte(`[]`))
			}))
			c := NewBacenClient(server.Client(), server.URL)
			if _, err := c.FetchSeries(context.Background(), code, time.Now(), time.Now()); err != nil {
				t.Errorf("%s: unexpected error: %v", code, err)
			}
			if path != wantPath {
				t.Errorf("%s: expected path %s, got %s", code, wantPath, path)
			}
			server.Close()
		}
	})

	t.Run("unknown_code", func(t *testing.T) {
		c := NewBacenClient(http.DefaultClient, "http://unused")
		if _, err := c.FetchSeries(context.Background(), "IGPM", time.Now(), time.Now()); err == nil {
			t.Error("expected error for unknown index")
		}
	})

	t.Run("comma_decimals", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"data":"02/01/2024","valor":"0,043739"},{"data":"03/01/2024","valor":"1.234,5"},{"data":"04/01/2024","valor":" 10.65 "}]`))
		}))
		defer server.Close()

		c := NewBacenClient(server.Client(), server.URL)
		got, err := c.FetchSeries(context.Background(), models.IndexSELIC, time.Now(), time.Now())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"0.043739", "1234.5", "10.65"}
		if len(got) != len(want) {
			t.Fatalf("expected %d observations, got %d", len(want), len(got))
		}
		for i, w := range want {
			if !got[i].Value.Equal(decimal.RequireFromString(w)) {
				t.Errorf("observation %d: expected %s, got %s", i, w, got[i].Value)
			}
		}
	})

	t.Run("bad_value", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"data":"02/01/2024","valor":"n/a"}]`))
		}))
		defer server.Close()

		c := NewBacenClient(server.Client(), server.URL)
		if _, err := c.FetchSeries(context.Background(), models.IndexCDI, time.Now(), time.Now()); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("http_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c := NewBacenClient(server.Client(), server.URL)
		_, err := c.FetchSeries(context.Background(), models.IndexCDI, time.Now(), time.Now())
		if err == nil || !strings.Contains(err.Error(), "503") {
			t.Errorf("expected error mentioning 503, got %v", err)
		}
	})
}
