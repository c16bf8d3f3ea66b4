package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/pagination"
)

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	Category  *string
	Asset     *string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

// CreateTransactionInput describes a new ledger row. Amount is a magnitude;
// its sign follows Type.
type CreateTransactionInput struct {
	Date        time.Time
	Type        models.TransactionType
	Category    string
	Description string
	Asset       string
	Amount      decimal.Decimal
}

// UpdateTransactionInput holds the fields a ledger row may change.
type UpdateTransactionInput struct {
	Date        *time.Time
	Category    *string
	Description *string
	Asset       *string
	Amount      *decimal.Decimal
}

// transactionService handles the realized cash-flow ledger.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records a ledger row for the target user.
func (s *transactionService) CreateTransaction(acting ActingContext, input CreateTransactionInput) (*models.Transaction, error) {
	if !input.Type.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be entrada or saida")
	}
	if input.Amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		UserID:      acting.TargetUserID,
		Date:        date,
		Type:        input.Type,
		Category:    strings.TrimSpace(input.Category),
		Description: input.Description,
		Asset:       strings.TrimSpace(input.Asset),
		Amount:      signedAmount(input.Type, input.Amount),
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the target user's ledger rows.
func (s *transactionService) GetUserTransactions(acting ActingContext, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", acting.TargetUserID)
	base = applyTransactionFilters(base, filter)

	result, err := pagination.Find[models.Transaction](base, page, "date DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.Asset != nil {
		q = q.Where("asset = ?", *f.Asset)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// GetTransactionByID retrieves a ledger row owned by the target user.
func (s *transactionService) GetTransactionByID(acting ActingContext, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, acting.TargetUserID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction changes the given fields of a ledger row. The type is
// fixed at creation, so a new amount keeps the row's sign.
func (s *transactionService) UpdateTransaction(acting ActingContext, transactionID string, input UpdateTransactionInput) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(acting, transactionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Date != nil {
		updates["date"] = *input.Date
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Asset != nil {
		updates["asset"] = strings.TrimSpace(*input.Asset)
	}
	if input.Amount != nil {
		if input.Amount.IsZero() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
		}
		updates["amount"] = signedAmount(transaction.Type, *input.Amount)
	}
	if len(updates) == 0 {
		return transaction, nil
	}

	if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetTransactionByID(acting, transactionID)
}

// DeleteTransaction soft-deletes a ledger row.
func (s *transactionService) DeleteTransaction(acting ActingContext, transactionID string) error {
	result := s.db.Where("id = ? AND user_id = ?", transactionID, acting.TargetUserID).Delete(&models.Transaction{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// signedAmount makes inflows positive and outflows negative.
func signedAmount(t models.TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == models.TransactionTypeSaida {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}
