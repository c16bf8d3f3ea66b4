package handlers

import (
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

// --- mock ledger services ---

type mockTransactionService struct {
	createTransactionFn   func(acting services.ActingContext, input services.CreateTransactionInput) (*models.Transaction, error)
	getUserTransactionsFn func(acting services.ActingContext, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn  func(acting services.ActingContext, transactionID string) (*models.Transaction, error)
	updateTransactionFn   func(acting services.ActingContext, transactionID string, input services.UpdateTransactionInput) (*models.Transaction, error)
	deleteTransactionFn   func(acting services.ActingContext, transactionID string) error
}

func (m *mockTransactionService) CreateTransaction(acting services.ActingContext, input services.CreateTransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(acting, input)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(acting services.ActingContext, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(acting, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(acting services.ActingContext, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(acting, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(acting services.ActingContext, transactionID string, input services.UpdateTransactionInput) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(acting, transactionID, input)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(acting services.ActingContext, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(acting, transactionID)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

type mockReportService struct {
	buildSummaryFn func(acting services.ActingContext, req services.SummaryRequest) (*services.Summary, error)
}

func (m *mockReportService) BuildSummary(acting services.ActingContext, req services.SummaryRequest) (*services.Summary, error) {
	if m.buildSummaryFn != nil {
		return m.buildSummaryFn(acting, req)
	}
	return &services.Summary{GroupBy: req.GroupBy}, nil
}

var _ services.ReportServicer = (*mockReportService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions", handler.GetUserTransactions)
	auth.GET("/transactions/summary", handler.GetSummary)
	auth.GET("/transactions/:id", handler.GetTransactionByID)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.CreateTransactionInput
		txSvc := &mockTransactionService{
			createTransactionFn: func(acting services.ActingContext, input services.CreateTransactionInput) (*models.Transaction, error) {
				got = input
				return &models.Transaction{UserID: acting.TargetUserID, Type: input.Type, Amount: input.Amount.Neg()}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockReportService{}))

		rec := doRequest(r, http.MethodPost, "/transactions",
			`{"type":"saida","amount":"89.90","category":" Mercado ","date":"2024-02-10"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Category != "Mercado" || !got.Date.Equal(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected input %+v", got)
		}
		tx := parseJSON(t, rec)["transaction"].(map[string]interface{})
		if tx["amount"] != "-89.9" {
			t.Errorf("expected signed amount, got %v", tx["amount"])
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "missing type", body: `{"amount":"10"}`},
		{name: "unknown type", body: `{"type":"transfer","amount":"10"}`},
		{name: "zero amount", body: `{"type":"entrada","amount":"0"}`},
		{name: "bad date", body: `{"type":"entrada","amount":"10","date":"ontem"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockReportService{}))
			rec := doRequest(r, http.MethodPost, "/transactions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}
}

func TestTransactionHandler_GetUserTransactions(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var gotPage pagination.PageRequest
		var gotFilter services.TransactionFilter
		txSvc := &mockTransactionService{
			getUserTransactionsFn: func(_ services.ActingContext, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				gotPage, gotFilter = page, filter
				resp := pagination.NewPageResponse([]models.Transaction{}, 2, 10, 0)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockReportService{}))

		rec := doRequest(r, http.MethodGet,
			"/transactions?page=2&page_size=10&type=saida&category=Lazer&min_amount=-500.5&from_date=2024-01-01", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotPage.Page != 2 || gotPage.PageSize != 10 {
			t.Errorf("unexpected page %+v", gotPage)
		}
		if gotFilter.Type == nil || *gotFilter.Type != models.TransactionTypeSaida {
			t.Errorf("unexpected type filter %v", gotFilter.Type)
		}
		if gotFilter.Category == nil || *gotFilter.Category != "Lazer" {
			t.Errorf("unexpected category filter %v", gotFilter.Category)
		}
		if gotFilter.MinAmount == nil || !gotFilter.MinAmount.Equal(decimal.RequireFromString("-500.5")) {
			t.Errorf("unexpected min amount %v", gotFilter.MinAmount)
		}
		if gotFilter.FromDate == nil || gotFilter.ToDate != nil {
			t.Errorf("unexpected date filter %v %v", gotFilter.FromDate, gotFilter.ToDate)
		}
	})

	for _, query := range []string{"type=income", "min_amount=abc", "to_date=31-01-2024", "page_size=500"} {
		t.Run("rejects "+query, func(t *testing.T) {
			r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockReportService{}))
			rec := doRequest(r, http.MethodGet, "/transactions?"+query, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTransactionHandler_ByID(t *testing.T) {
	notFound := &mockTransactionService{
		getTransactionByIDFn: func(_ services.ActingContext, _ string) (*models.Transaction, error) {
			return nil, apperrors.ErrTransactionNotFound
		},
		updateTransactionFn: func(_ services.ActingContext, _ string, _ services.UpdateTransactionInput) (*models.Transaction, error) {
			return nil, apperrors.ErrTransactionNotFound
		},
		deleteTransactionFn: func(_ services.ActingContext, _ string) error { return apperrors.ErrTransactionNotFound },
	}
	r := setupTransactionRouter(NewTransactionHandler(notFound, &mockReportService{}))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			rec := doRequest(r, method, "/transactions/"+testResourceID, `{"category":"Lazer"}`)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
		})
	}

	t.Run("rejects non-uuid id", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/transactions/7", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetSummary(t *testing.T) {
	t.Run("passes window and group", func(t *testing.T) {
		var got services.SummaryRequest
		reports := &mockReportService{
			buildSummaryFn: func(_ services.ActingContext, req services.SummaryRequest) (*services.Summary, error) {
				got = req
				return &services.Summary{GroupBy: req.GroupBy, TotalDisplay: "R$1.000,00"}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, reports))

		rec := doRequest(r, http.MethodGet, "/transactions/summary?startDate=2024-01-01&endDate=2024-01-31&groupBy=month", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.GroupBy != "month" || got.StartDate == nil || got.EndDate == nil {
			t.Fatalf("unexpected request %+v", got)
		}
		if !got.EndDate.After(time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)) {
			t.Errorf("end date must cover the whole last day, got %s", got.EndDate)
		}
	})

	t.Run("invalid group by", func(t *testing.T) {
		reports := &mockReportService{
			buildSummaryFn: func(_ services.ActingContext, _ services.SummaryRequest) (*services.Summary, error) {
				return nil, apperrors.ErrInvalidGroupBy
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, reports))
		rec := doRequest(r, http.MethodGet, "/transactions/summary?groupBy=week", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_GROUP_BY")
	})
}
