package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/pagination"
	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// --- mock portfolio service ---

type mockPortfolioService struct {
	getPortfolioFn func(ctx context.Context, acting services.ActingContext) (*services.PortfolioSummary, error)
	aporteFn       func(ctx context.Context, acting services.ActingContext, input services.OperationInput) (*services.OperationResult, error)
	resgateFn      func(ctx context.Context, acting services.ActingContext, input services.OperationInput) (*services.OperationResult, error)
	cashSummaryFn  func(acting services.ActingContext, from, to *time.Time) (*services.CashSummary, error)
	setTargetsFn   func(acting services.ActingContext, inputs []services.AllocationTargetInput) ([]models.AllocationTarget, error)
}

func (m *mockPortfolioService) GetPortfolio(ctx context.Context, acting services.ActingContext) (*services.PortfolioSummary, error) {
	if m.getPortfolioFn != nil {
		return m.getPortfolioFn(ctx, acting)
	}
	return &services.PortfolioSummary{}, nil
}

func (m *mockPortfolioService) Aporte(ctx context.Context, acting services.ActingContext, input services.OperationInput) (*services.OperationResult, error) {
	if m.aporteFn != nil {
		return m.aporteFn(ctx, acting, input)
	}
	return &services.OperationResult{}, nil
}

func (m *mockPortfolioService) Resgate(ctx context.Context, acting services.ActingContext, input services.OperationInput) (*services.OperationResult, error) {
	if m.resgateFn != nil {
		return m.resgateFn(ctx, acting, input)
	}
	return &services.OperationResult{}, nil
}

func (m *mockPortfolioService) ListTransactions(_ services.ActingContext, page pagination.PageRequest) (*pagination.PageResponse[models.StockTransaction], error) {
	page.Defaults()
	resp := pagination.NewPageResponse([]models.StockTransaction{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockPortfolioService) CashSummary(acting services.ActingContext, from, to *time.Time) (*services.CashSummary, error) {
	if m.cashSummaryFn != nil {
		return m.cashSummaryFn(acting, from, to)
	}
	return &services.CashSummary{}, nil
}

func (m *mockPortfolioService) GetAllocationTargets(_ services.ActingContext) ([]models.AllocationTarget, error) {
	return []models.AllocationTarget{}, nil
}

func (m *mockPortfolioService) SetAllocationTargets(acting services.ActingContext, inputs []services.AllocationTargetInput) ([]models.AllocationTarget, error) {
	if m.setTargetsFn != nil {
		return m.setTargetsFn(acting, inputs)
	}
	return []models.AllocationTarget{}, nil
}

var _ services.PortfolioServicer = (*mockPortfolioService)(nil)

func setupPortfolioRouter(handler *PortfolioHandler, acting services.ActingContext) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectIdentity(acting.RequestorID, models.RoleConsultant, acting))
	auth.GET("/portfolio", handler.GetPortfolio)
	auth.POST("/portfolio/aporte", handler.Aporte)
	auth.POST("/portfolio/resgate", handler.Resgate)
	auth.GET("/portfolio/transactions", handler.ListTransactions)
	auth.GET("/portfolio/cash-summary", handler.CashSummary)
	auth.GET("/portfolio/targets", handler.GetTargets)
	auth.PUT("/portfolio/targets", handler.SetTargets)
	return r
}

func TestPortfolioHandler_GetPortfolio(t *testing.T) {
	svc := &mockPortfolioService{
		getPortfolioFn: func(_ context.Context, acting services.ActingContext) (*services.PortfolioSummary, error) {
			if acting.TargetUserID != testClientID {
				t.Errorf("expected client target, got %q", acting.TargetUserID)
			}
			return &services.PortfolioSummary{
				Holdings:        []services.Holding{{Symbol: "HGLG11", PriceSource: "fallback"}},
				FallbackSymbols: []string{"HGLG11"},
			}, nil
		},
	}
	r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}), actingFor(testConsultantID, testClientID))

	rec := doRequest(r, http.MethodGet, "/portfolio", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	fallback := result["fallback_symbols"].([]interface{})
	if len(fallback) != 1 || fallback[0] != "HGLG11" {
		t.Errorf("unexpected fallback symbols %v", fallback)
	}
	holding := result["holdings"].([]interface{})[0].(map[string]interface{})
	if holding["price_source"] != "fallback" {
		t.Errorf("unexpected holding %v", holding)
	}
}

func TestPortfolioHandler_Operations(t *testing.T) {
	t.Run("aporte is audited with the acting context", func(t *testing.T) {
		var got services.OperationInput
		svc := &mockPortfolioService{
			aporteFn: func(_ context.Context, _ services.ActingContext, input services.OperationInput) (*services.OperationResult, error) {
				got = input
				return &services.OperationResult{Position: models.Portfolio{Base: models.Base{ID: testResourceID}}}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, audit), actingFor(testConsultantID, testClientID))

		rec := doRequest(r, http.MethodPost, "/portfolio/aporte",
			`{"stock_id":"`+testResourceID+`","quantity":"10","price":"25.50","date":"2024-03-01"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Quantity.Equal(decimal.NewFromInt(10)) || !got.Price.Equal(decimal.RequireFromString("25.5")) {
			t.Errorf("unexpected input %+v", got)
		}
		if !got.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date %s", got.Date)
		}
		if len(audit.entries) != 1 {
			t.Fatalf("expected one audit entry, got %d", len(audit.entries))
		}
		entry := audit.entries[0]
		if entry.action != services.AuditAporte || entry.acting.RequestorID != testConsultantID || entry.acting.TargetUserID != testClientID {
			t.Errorf("unexpected audit entry %+v", entry)
		}
	})

	tests := []struct {
		name       string
		path       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "zero quantity", path: "/portfolio/aporte", body: `{"stock_id":"` + testResourceID + `","quantity":"0","price":"10"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_INPUT"},
		{name: "bad date", path: "/portfolio/aporte", body: `{"stock_id":"` + testResourceID + `","quantity":"1","price":"10","date":"01/03/2024"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_INPUT"},
		{name: "insufficient quantity", path: "/portfolio/resgate", body: `{"stock_id":"` + testResourceID + `","quantity":"100","price":"10"}`, err: apperrors.ErrInsufficientShares, wantStatus: http.StatusBadRequest, wantCode: "INSUFFICIENT_SHARES"},
		{name: "concurrent update", path: "/portfolio/resgate", body: `{"stock_id":"` + testResourceID + `","quantity":"1","price":"10"}`, err: apperrors.ErrConflict, wantStatus: http.StatusConflict, wantCode: "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fail := func(context.Context, services.ActingContext, services.OperationInput) (*services.OperationResult, error) {
				return nil, tt.err
			}
			audit := &mockAuditService{}
			r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{aporteFn: fail, resgateFn: fail}, audit), services.SelfContext(testUserID))

			rec := doRequest(r, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), tt.wantCode)
			if len(audit.entries) != 0 {
				t.Error("failed operations are not audited")
			}
		})
	}
}

func TestPortfolioHandler_CashSummary(t *testing.T) {
	var gotFrom, gotTo *time.Time
	svc := &mockPortfolioService{
		cashSummaryFn: func(_ services.ActingContext, from, to *time.Time) (*services.CashSummary, error) {
			gotFrom, gotTo = from, to
			return &services.CashSummary{}, nil
		},
	}
	r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}), services.SelfContext(testUserID))

	rec := doRequest(r, http.MethodGet, "/portfolio/cash-summary?from=2024-01-01&to=2024-01-31", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotFrom == nil || !gotFrom.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected from %v", gotFrom)
	}
	if gotTo == nil || gotTo.Day() != 31 || gotTo.Hour() != 23 {
		t.Errorf("expected the end of the last day, got %v", gotTo)
	}
}

func TestPortfolioHandler_SetTargets(t *testing.T) {
	t.Run("forwards targets", func(t *testing.T) {
		var got []services.AllocationTargetInput
		svc := &mockPortfolioService{
			setTargetsFn: func(_ services.ActingContext, inputs []services.AllocationTargetInput) ([]models.AllocationTarget, error) {
				got = inputs
				return []models.AllocationTarget{}, nil
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}), services.SelfContext(testUserID))
		rec := doRequest(r, http.MethodPut, "/portfolio/targets",
			`{"targets":[{"class":"acao","percent":"60"},{"class":"fii","percent":"40"}]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(got) != 2 || got[0].Class != models.AssetClassAcao || !got[1].Percent.Equal(decimal.NewFromInt(40)) {
			t.Errorf("unexpected inputs %+v", got)
		}
	})

	t.Run("rejects unknown class", func(t *testing.T) {
		r := setupPortfolioRouter(NewPortfolioHandler(&mockPortfolioService{}, &mockAuditService{}), services.SelfContext(testUserID))
		rec := doRequest(r, http.MethodPut, "/portfolio/targets", `{"targets":[{"class":"bond","percent":"10"}]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("over one hundred percent", func(t *testing.T) {
		svc := &mockPortfolioService{
			setTargetsFn: func(_ services.ActingContext, _ []services.AllocationTargetInput) ([]models.AllocationTarget, error) {
				return nil, apperrors.ErrInvalidTargets
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc, &mockAuditService{}), services.SelfContext(testUserID))
		rec := doRequest(r, http.MethodPut, "/portfolio/targets",
			`{"targets":[{"class":"acao","percent":"70"},{"class":"fii","percent":"40"}]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TARGETS")
	})
}
