package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/HuskeLuv/SFC-sub003/internal/config"
	"github.com/HuskeLuv/SFC-sub003/internal/ingest"
	"github.com/HuskeLuv/SFC-sub003/internal/middleware"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/quotes"
	"github.com/HuskeLuv/SFC-sub003/internal/testutil"
	"github.com/HuskeLuv/SFC-sub003/internal/validator"
)

const pipelineKey = "router-test-key"

var testConfig = &config.Config{
	JWTSecret:        "router-test-secret",
	JWTExpirationDur: time.Hour,
	SessionCookie:    "token",
	ActingCookie:     "acting_client_id",
	ActingMaxAge:     2 * time.Hour,
	PipelineAPIKey:   pipelineKey,
}

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
	config.Set(testConfig)
}

type stubSyncer struct{}

func (stubSyncer) SyncQuotes(_ context.Context) (*ingest.RunResult, error) {
	return &ingest.RunResult{Requested: 1, Fetched: 1, Upserted: 1}, nil
}

func (stubSyncer) SyncIndexes(_ context.Context) (*ingest.RunResult, error) {
	return &ingest.RunResult{Requested: 3}, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return New(testConfig, NewServices(db, quotes.NewStoredSource(db)), stubSyncer{}), db
}

func sessionCookie(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	token, err := middleware.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return &http.Cookie{Name: testConfig.SessionCookie, Value: token}
}

func call(r *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return out
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestActingAsClient(t *testing.T) {
	r, db := setupRouter(t)

	consultantUser, consultant := testutil.CreateTestConsultant(t, db)
	client := testutil.CreateTestUser(t, db)
	testutil.LinkClient(t, db, consultant.ID, client.ID, models.LinkStatusActive)
	stock := testutil.CreateTestStock(t, db, "PETR4", models.AssetClassAcao, testutil.Ptr(testutil.Dec("30")))
	testutil.CreateTestPosition(t, db, client.ID, stock.ID, testutil.Dec("10"), testutil.Dec("25"))

	session := sessionCookie(t, consultantUser)

	rec := call(r, http.MethodPost, "/api/v1/consultant/acting", `{"client_id":"`+client.ID+`"}`, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("start acting: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	acting := responseCookie(rec, testConfig.ActingCookie)
	if acting == nil || acting.Value == "" {
		t.Fatal("expected acting cookie")
	}

	t.Run("portfolio reads the client's positions", func(t *testing.T) {
		rec := call(r, http.MethodGet, "/api/v1/portfolio", "", session, acting)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		holdings, _ := decode(t, rec)["holdings"].([]interface{})
		if len(holdings) != 1 {
			t.Fatalf("expected 1 holding, got %d", len(holdings))
		}
		if sym := holdings[0].(map[string]interface{})["symbol"]; sym != "PETR4" {
			t.Errorf("expected PETR4, got %v", sym)
		}
	})

	t.Run("without the cookie the consultant sees their own data", func(t *testing.T) {
		rec := call(r, http.MethodGet, "/api/v1/portfolio", "", session)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		holdings, _ := decode(t, rec)["holdings"].([]interface{})
		if len(holdings) != 0 {
			t.Errorf("expected no holdings, got %d", len(holdings))
		}
	})

	t.Run("me reports the acting context", func(t *testing.T) {
		rec := call(r, http.MethodGet, "/api/v1/auth/me", "", session, acting)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		ctx, _ := decode(t, rec)["acting"].(map[string]interface{})
		if ctx["target_user_id"] != client.ID {
			t.Errorf("expected target %s, got %v", client.ID, ctx)
		}
	})

	t.Run("cookie stops working once the link is deactivated", func(t *testing.T) {
		if err := db.Model(&models.ConsultantClient{}).
			Where("consultant_id = ? AND client_id = ?", consultant.ID, client.ID).
			Update("status", models.LinkStatusInactive).Error; err != nil {
			t.Fatalf("deactivating link: %v", err)
		}
		rec := call(r, http.MethodGet, "/api/v1/portfolio", "", session, acting)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		holdings, _ := decode(t, rec)["holdings"].([]interface{})
		if len(holdings) != 0 {
			t.Errorf("expected the consultant's own empty portfolio, got %d holdings", len(holdings))
		}
	})
}

func TestStartActing_UnlinkedClient(t *testing.T) {
	r, db := setupRouter(t)

	consultantUser, _ := testutil.CreateTestConsultant(t, db)
	stranger := testutil.CreateTestUser(t, db)

	rec := call(r, http.MethodPost, "/api/v1/consultant/acting", `{"client_id":"`+stranger.ID+`"}`, sessionCookie(t, consultantUser))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if c := responseCookie(rec, testConfig.ActingCookie); c != nil {
		t.Errorf("expected no acting cookie, got %q", c.Value)
	}

	// plain users cannot reach consultant routes
	rec = call(r, http.MethodPost, "/api/v1/consultant/acting", `{"client_id":"`+stranger.ID+`"}`, sessionCookie(t, stranger))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCashflowPersonalization(t *testing.T) {
	r, db := setupRouter(t)

	group := testutil.CreateTemplateGroup(t, db, "Receitas", models.CashflowTypeEntrada, nil)
	item := testutil.CreateTemplateItem(t, db, group.ID, "Salário")
	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)

	rec := call(r, http.MethodPut, "/api/v1/cashflow/items/"+item.ID, `{"name":"Salário líquido"}`, sessionCookie(t, alice))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	fork := decode(t, rec)["item"].(map[string]interface{})
	if fork["id"] == item.ID || fork["template_id"] != item.ID || fork["user_id"] != alice.ID {
		t.Fatalf("expected a fork of %s owned by alice, got %v", item.ID, fork)
	}

	var template models.CashflowItem
	if err := db.First(&template, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reloading template: %v", err)
	}
	if template.Name != "Salário" || template.UserID != nil {
		t.Errorf("template was modified: %+v", template)
	}

	itemNames := func(user *models.User) []string {
		rec := call(r, http.MethodGet, "/api/v1/cashflow?year=2024", "", sessionCookie(t, user))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var names []string
		for _, g := range decode(t, rec)["groups"].([]interface{}) {
			items, _ := g.(map[string]interface{})["items"].([]interface{})
			for _, it := range items {
				names = append(names, it.(map[string]interface{})["name"].(string))
			}
		}
		return names
	}

	if got := itemNames(alice); len(got) != 1 || got[0] != "Salário líquido" {
		t.Errorf("alice: expected [Salário líquido], got %v", got)
	}
	if got := itemNames(bob); len(got) != 1 || got[0] != "Salário" {
		t.Errorf("bob: expected [Salário], got %v", got)
	}
}

func TestInstitutionUpsert(t *testing.T) {
	r, db := setupRouter(t)

	admin := testutil.CreateTestUserWithRole(t, db, "admin@test.com", models.RoleAdmin)
	user := testutil.CreateTestUser(t, db)

	for i := 0; i < 2; i++ {
		rec := call(r, http.MethodPost, "/api/v1/institutions", `{"name":"XP Investimentos"}`, sessionCookie(t, admin))
		if rec.Code != http.StatusOK {
			t.Fatalf("upsert %d: expected 200, got %d: %s", i, rec.Code, rec.Body.String())
		}
		inst := decode(t, rec)["institution"].(map[string]interface{})
		if inst["code"] != "xp-investimentos" || inst["status"] != "ATIVA" {
			t.Errorf("unexpected institution %v", inst)
		}
	}

	var count int64
	db.Model(&models.Institution{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 institution, got %d", count)
	}

	rec := call(r, http.MethodPost, "/api/v1/institutions", `{"name":"Rico"}`, sessionCookie(t, user))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for plain user, got %d", rec.Code)
	}

	rec = call(r, http.MethodGet, "/api/v1/institutions", "", sessionCookie(t, user))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if list := decode(t, rec)["institutions"].([]interface{}); len(list) != 1 {
		t.Errorf("expected 1 institution listed, got %d", len(list))
	}
}

func TestPublicAndPipelineRoutes(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"health", http.MethodGet, "/api/health", "", http.StatusOK},
		{"protected route without session", http.MethodGet, "/api/v1/portfolio", "", http.StatusUnauthorized},
		{"pipeline without key", http.MethodPost, "/api/v1/pipeline/quotes/sync", "", http.StatusUnauthorized},
		{"pipeline with wrong key", http.MethodPost, "/api/v1/pipeline/quotes/sync", "nope", http.StatusUnauthorized},
		{"pipeline with key", http.MethodPost, "/api/v1/pipeline/indexes/sync", pipelineKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthFlow(t *testing.T) {
	r, _ := setupRouter(t)

	rec := call(r, http.MethodPost, "/api/v1/auth/register", `{"email":"ana@test.com","password":"password123","name":" Ana "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = call(r, http.MethodPost, "/api/v1/auth/register", `{"email":"ana@test.com","password":"password123"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}

	rec = call(r, http.MethodPost, "/api/v1/auth/login", `{"email":"ana@test.com","password":"password123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token := decode(t, rec)["token"].(string)
	session := responseCookie(rec, testConfig.SessionCookie)
	if session == nil || session.Value != token || !session.HttpOnly {
		t.Fatalf("expected an HTTP-only session cookie carrying the token, got %+v", session)
	}

	rec = call(r, http.MethodGet, "/api/v1/auth/me", "", session)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	me := decode(t, rec)
	if me["user"].(map[string]interface{})["name"] != "Ana" {
		t.Errorf("unexpected user %v", me["user"])
	}
	if me["acting"].(map[string]interface{})["acting_client"] != nil {
		t.Errorf("expected no acting client, got %v", me["acting"])
	}

	// the same token works as a bearer header
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	bearer := httptest.NewRecorder()
	r.ServeHTTP(bearer, req)
	if bearer.Code != http.StatusOK {
		t.Errorf("bearer me: expected 200, got %d", bearer.Code)
	}

	rec = call(r, http.MethodPost, "/api/v1/auth/logout", "", session)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}
	if c := responseCookie(rec, testConfig.SessionCookie); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected the session cookie to be cleared, got %+v", c)
	}
}

func TestPortfolioOperationsFlow(t *testing.T) {
	r, db := setupRouter(t)

	user := testutil.CreateTestUser(t, db)
	session := sessionCookie(t, user)
	stock := testutil.CreateTestStock(t, db, "VALE3", models.AssetClassAcao, testutil.Ptr(testutil.Dec("70")))

	position := func(rec *httptest.ResponseRecorder) (quantity, avg decimal.Decimal) {
		t.Helper()
		pos := decode(t, rec)["position"].(map[string]interface{})
		quantity, _ = decimal.NewFromString(pos["quantity"].(string))
		avg, _ = decimal.NewFromString(pos["avg_price"].(string))
		return quantity, avg
	}

	rec := call(r, http.MethodPost, "/api/v1/portfolio/aporte", `{"stock_id":"`+stock.ID+`","quantity":"10","price":"60","date":"2024-03-01"}`, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first aporte: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = call(r, http.MethodPost, "/api/v1/portfolio/aporte", `{"stock_id":"`+stock.ID+`","quantity":"10","price":"80"}`, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second aporte: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if q, avg := position(rec); !q.Equal(testutil.Dec("20")) || !avg.Equal(testutil.Dec("70")) {
		t.Errorf("expected 20 @ 70, got %s @ %s", q, avg)
	}

	rec = call(r, http.MethodPost, "/api/v1/portfolio/resgate", `{"stock_id":"`+stock.ID+`","quantity":"25","price":"75"}`, session)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized resgate: expected 400, got %d", rec.Code)
	}

	rec = call(r, http.MethodPost, "/api/v1/portfolio/resgate", `{"stock_id":"`+stock.ID+`","quantity":"5","price":"75"}`, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("resgate: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if q, avg := position(rec); !q.Equal(testutil.Dec("15")) || !avg.Equal(testutil.Dec("70")) {
		t.Errorf("expected 15 @ 70, got %s @ %s", q, avg)
	}

	rec = call(r, http.MethodGet, "/api/v1/portfolio/transactions", "", session)
	if rec.Code != http.StatusOK {
		t.Fatalf("transactions: expected 200, got %d", rec.Code)
	}
	if total := decode(t, rec)["total_items"].(float64); total != 3 {
		t.Errorf("expected 3 stock transactions, got %v", total)
	}

	var audits int64
	db.Model(&models.AuditLog{}).Where("requestor_id = ?", user.ID).Count(&audits)
	if audits != 3 {
		t.Errorf("expected 3 audit rows, got %d", audits)
	}
}
