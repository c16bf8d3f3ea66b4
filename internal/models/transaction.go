package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger row.
type TransactionType string

const (
	TransactionTypeEntrada TransactionType = "entrada"
	TransactionTypeSaida   TransactionType = "saida"
)

// Valid reports whether t is a known direction.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeEntrada || t == TransactionTypeSaida
}

// Transaction is a realized cash-flow ledger row. Amount is signed: inflows
// positive, outflows negative.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Category    string          `gorm:"not null;default:''" json:"category"`
	Description string          `json:"description"`
	Asset       string          `json:"asset,omitempty"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
}
