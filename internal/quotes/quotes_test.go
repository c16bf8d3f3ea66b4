package quotes

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/cache"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/testutil"
)

type fakeFetcher struct {
	prices map[string]string
	err    error
	calls  [][]string
}

func (f *fakeFetcher) FetchQuotes(_ context.Context, tickers []string) ([]Quote, error) {
	f.calls = append(f.calls, append([]string(nil), tickers...))
	if f.err != nil {
		return nil, f.err
	}
	var out []Quote
	for _, ticker := range tickers {
		if p, ok := f.prices[ticker]; ok {
			out = append(out, Quote{Symbol: ticker, Price: decimal.RequireFromString(p)})
		}
	}
	return out, nil
}

type staticSource struct {
	name   string
	quotes map[string]Quote
	err    error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Quotes(_ context.Context, symbols []string) (map[string]Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[string]Quote{}
	for _, symbol := range symbols {
		if q, ok := s.quotes[symbol]; ok {
			out[symbol] = q
		}
	}
	return out, nil
}

func TestStoredSource(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	price := testutil.Dec("38.5")
	testutil.CreateTestStock(t, db, "PETR4", models.AssetClassAcao, &price)
	testutil.CreateTestStock(t, db, "VALE3", models.AssetClassAcao, nil)

	symbol := "BTC"
	crypto := &models.Asset{Name: "Bitcoin", Class: models.AssetClassCripto, Symbol: &symbol, CurrentValue: decimal.NewNullDecimal(testutil.Dec("350000"))}
	testutil.AssertNoError(t, db.Create(crypto).Error)
	house := &models.Asset{Name: "Apartamento", Class: models.AssetClassImovel, CurrentValue: decimal.NewNullDecimal(testutil.Dec("800000"))}
	testutil.AssertNoError(t, db.Create(house).Error)

	got, err := NewStoredSource(db).Quotes(context.Background(), []string{"PETR4", "VALE3", "BTC", AssetKeyPrefix + house.ID, "XXXX3"})
	testutil.AssertNoError(t, err)

	if q, ok := got["PETR4"]; !ok || !q.Price.Equal(price) {
		t.Errorf("expected PETR4 at 38.5, got %+v", got["PETR4"])
	}
	if _, ok := got["VALE3"]; ok {
		t.Error("stock without stored price must be absent")
	}
	if q := got["BTC"]; !q.Price.Equal(testutil.Dec("350000")) {
		t.Errorf("expected asset symbol priced from current value, got %s", q.Price)
	}
	if q := got[AssetKeyPrefix+house.ID]; !q.Price.Equal(testutil.Dec("800000")) {
		t.Errorf("expected symbol-less asset priced by id, got %s", q.Price)
	}
	if _, ok := got["XXXX3"]; ok {
		t.Error("unknown symbol must be absent")
	}
}

func TestStoredSource_UserAssetSymbols(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	owner := testutil.CreateTestUser(t, db)
	symbol := "MYCOIN"
	private := &models.Asset{UserID: &owner.ID, Name: "Moeda", Class: models.AssetClassCripto, Symbol: &symbol, CurrentValue: decimal.NewNullDecimal(testutil.Dec("0.01"))}
	testutil.AssertNoError(t, db.Create(private).Error)

	got, err := NewStoredSource(db).Quotes(context.Background(), []string{"MYCOIN", AssetKeyPrefix + private.ID})
	testutil.AssertNoError(t, err)

	if q, ok := got["MYCOIN"]; ok {
		t.Errorf("user-owned asset must not price a shared symbol, got %s", q.Price)
	}
	if q := got[AssetKeyPrefix+private.ID]; !q.Price.Equal(testutil.Dec("0.01")) {
		t.Errorf("expected user-owned asset priced by id, got %s", q.Price)
	}

	catalogue := &models.Asset{Name: "Moeda listada", Class: models.AssetClassCripto, Symbol: &symbol, CurrentValue: decimal.NewNullDecimal(testutil.Dec("2"))}
	testutil.AssertNoError(t, db.Create(catalogue).Error)

	got, err = NewStoredSource(db).Quotes(context.Background(), []string{"MYCOIN"})
	testutil.AssertNoError(t, err)
	if q := got["MYCOIN"]; !q.Price.Equal(testutil.Dec("2")) {
		t.Errorf("expected catalogue asset to price the symbol, got %s", q.Price)
	}
}

func TestLiveSource(t *testing.T) {
	ctx := context.Background()

	t.Run("caches_fetched_quotes", func(t *testing.T) {
		fetcher := &fakeFetcher{prices: map[string]string{"PETR4": "38.12", "ITUB4": "33"}}
		src := NewLiveSource(fetcher, cache.NewMemoryStore(), 0)

		first, err := src.Quotes(ctx, []string{"PETR4", "ITUB4", AssetKeyPrefix + "x"})
		testutil.AssertNoError(t, err)
		if len(first) != 2 {
			t.Fatalf("expected 2 quotes, got %d", len(first))
		}

		second, err := src.Quotes(ctx, []string{"PETR4"})
		testutil.AssertNoError(t, err)
		if !second["PETR4"].Price.Equal(testutil.Dec("38.12")) {
			t.Errorf("expected cached PETR4, got %s", second["PETR4"].Price)
		}
		if len(fetcher.calls) != 1 {
			t.Errorf("expected a single provider call, got %d", len(fetcher.calls))
		}
		for _, ticker := range fetcher.calls[0] {
			if ticker == AssetKeyPrefix+"x" {
				t.Error("asset keys must not be sent to the provider")
			}
		}
	})

	t.Run("provider_error", func(t *testing.T) {
		src := NewLiveSource(&fakeFetcher{err: errors.New("boom")}, cache.NewMemoryStore(), 0)
		if _, err := src.Quotes(ctx, []string{"PETR4"}); err == nil {
			t.Fatal("expected provider error")
		}
	})
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	live := staticSource{name: "live", quotes: map[string]Quote{"PETR4": {Symbol: "PETR4", Price: testutil.Dec("40")}}}
	stored := staticSource{name: "stored", quotes: map[string]Quote{
		"PETR4": {Symbol: "PETR4", Price: testutil.Dec("38")},
		"VALE3": {Symbol: "VALE3", Price: testutil.Dec("60")},
	}}

	t.Run("earlier_source_wins", func(t *testing.T) {
		got, err := Chain{live, stored}.Quotes(ctx, []string{"PETR4", "VALE3", "XXXX3"})
		testutil.AssertNoError(t, err)
		if !got["PETR4"].Price.Equal(testutil.Dec("40")) {
			t.Errorf("expected live price, got %s", got["PETR4"].Price)
		}
		if !got["VALE3"].Price.Equal(testutil.Dec("60")) {
			t.Errorf("expected stored price, got %s", got["VALE3"].Price)
		}
		if _, ok := got["XXXX3"]; ok {
			t.Error("unknown symbol must be absent")
		}
	})

	t.Run("failing_source_skipped", func(t *testing.T) {
		broken := staticSource{name: "broken", err: errors.New("timeout")}
		got, err := Chain{broken, stored}.Quotes(ctx, []string{"PETR4"})
		testutil.AssertNoError(t, err)
		if !got["PETR4"].Price.Equal(testutil.Dec("38")) {
			t.Errorf("expected stored price after failure, got %s", got["PETR4"].Price)
		}
	})

	t.Run("name", func(t *testing.T) {
		if name := (Chain{live, stored}).Name(); name != "live>stored" {
			t.Errorf("unexpected chain name %q", name)
		}
	})
}

func TestNewSource(t *testing.T) {
	stored := staticSource{name: "stored"}
	live := staticSource{name: "live"}

	src, err := NewSource("stored", stored, live)
	testutil.AssertNoError(t, err)
	if src.Name() != "stored" {
		t.Errorf("expected stored source, got %s", src.Name())
	}

	src, err = NewSource("live", stored, live)
	testutil.AssertNoError(t, err)
	if src.Name() != "live>stored" {
		t.Errorf("expected live chain, got %s", src.Name())
	}

	if _, err := NewSource("yahoo", stored, live); err == nil {
		t.Error("expected error for unknown mode")
	}
}
