package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithRole(t, db, email, models.RoleUser)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, email, models.RoleUser)
}

// CreateTestUserWithRole creates a user with the given email and role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestConsultant creates a consultant user together with its Consultant row.
func CreateTestConsultant(t *testing.T, db *gorm.DB) (*models.User, *models.Consultant) {
	t.Helper()

	user := CreateTestUserWithRole(t, db, fmt.Sprintf("consultant%d@test.com", nextID()), models.RoleConsultant)
	consultant := &models.Consultant{UserID: user.ID}
	if err := db.Create(consultant).Error; err != nil {
		t.Fatalf("failed to create test consultant: %v", err)
	}
	return user, consultant
}

// LinkClient links a client to a consultant with the given status.
func LinkClient(t *testing.T, db *gorm.DB, consultantID, clientID string, status models.LinkStatus) *models.ConsultantClient {
	t.Helper()

	link := &models.ConsultantClient{
		ConsultantID: consultantID,
		ClientID:     clientID,
		Status:       status,
	}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("failed to link client: %v", err)
	}
	return link
}

// CreateTemplateGroup creates a shared cash-flow group with no owner.
func CreateTemplateGroup(t *testing.T, db *gorm.DB, name string, groupType models.CashflowType, parentID *string) *models.CashflowGroup {
	t.Helper()

	group := &models.CashflowGroup{
		Name:     name,
		Type:     groupType,
		Order:    int(nextID()),
		ParentID: parentID,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create template group: %v", err)
	}
	return group
}

// CreateTemplateItem creates a shared cash-flow item under the given group.
func CreateTemplateItem(t *testing.T, db *gorm.DB, groupID, name string) *models.CashflowItem {
	t.Helper()

	item := &models.CashflowItem{
		GroupID: groupID,
		Name:    name,
		Order:   int(nextID()),
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create template item: %v", err)
	}
	return item
}

// CreateTestTransaction creates a ledger row for the user.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, date time.Time, txType models.TransactionType, category string, amount decimal.Decimal) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		Date:        date,
		Type:        txType,
		Category:    category,
		Description: fmt.Sprintf("Test transaction %d", nextID()),
		Amount:      amount,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestStock creates a stock with an optional stored last price.
func CreateTestStock(t *testing.T, db *gorm.DB, ticker string, class models.AssetClass, lastPrice *decimal.Decimal) *models.Stock {
	t.Helper()

	stock := &models.Stock{
		Ticker:      ticker,
		CompanyName: ticker + " SA",
		Class:       class,
	}
	if lastPrice != nil {
		stock.LastPrice = decimal.NewNullDecimal(*lastPrice)
		now := time.Now()
		stock.LastPriceAt = &now
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("failed to create test stock: %v", err)
	}
	return stock
}

// CreateTestAsset creates a catalogue asset of the given class.
func CreateTestAsset(t *testing.T, db *gorm.DB, name string, class models.AssetClass) *models.Asset {
	t.Helper()

	asset := &models.Asset{Name: name, Class: class}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestPosition creates a stock position with the given aggregates.
func CreateTestPosition(t *testing.T, db *gorm.DB, userID, stockID string, quantity, avgPrice decimal.Decimal) *models.Portfolio {
	t.Helper()

	position := &models.Portfolio{
		UserID:        userID,
		StockID:       &stockID,
		Quantity:      quantity,
		AvgPrice:      avgPrice,
		TotalInvested: quantity.Mul(avgPrice),
		LastUpdate:    time.Now(),
	}
	if err := db.Create(position).Error; err != nil {
		t.Fatalf("failed to create test position: %v", err)
	}
	return position
}
