package testutil_test

import (
	"testing"

	"github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{
		"users", "consultants", "consultant_clients", "cashflow_groups", "cashflow_items",
		"cashflow_values", "transactions", "institutions", "stocks", "assets", "portfolios",
		"stock_transactions", "allocation_targets", "watchlists", "notifications",
		"economic_indexes", "audit_logs",
	} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	second.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected a fresh database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}
	if user.Role != models.RoleUser {
		t.Errorf("expected role user, got %s", user.Role)
	}

	consultantUser, consultant := testutil.CreateTestConsultant(t, db)
	if consultant.UserID != consultantUser.ID {
		t.Errorf("consultant row should point at its user")
	}

	link := testutil.LinkClient(t, db, consultant.ID, user.ID, models.LinkStatusActive)
	if link.Status != models.LinkStatusActive {
		t.Errorf("expected active link, got %s", link.Status)
	}

	group := testutil.CreateTemplateGroup(t, db, "Receitas", models.CashflowTypeEntrada, nil)
	if !group.IsTemplate() {
		t.Error("fixture group should be a template")
	}

	price := testutil.Dec("10.50")
	stock := testutil.CreateTestStock(t, db, "PETR4", models.AssetClassAcao, &price)
	position := testutil.CreateTestPosition(t, db, user.ID, stock.ID, testutil.Dec("10"), price)
	if !position.TotalInvested.Equal(testutil.Dec("105")) {
		t.Errorf("expected total invested 105, got %s", position.TotalInvested)
	}
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.ErrNotFound, "NOT_FOUND")
	testutil.AssertAppError(t, errors.Wrap(errors.ErrConflict, nil), "CONFLICT")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
