package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/uuid"

	"gorm.io/gorm"
)

// Index codes stored in economic_indexes.
const (
	IndexCDI   = "CDI"
	IndexSELIC = "SELIC"
	IndexIPCA  = "IPCA"
)

// IndexCodes lists the series the ingestion jobs keep up to date.
var IndexCodes = []string{IndexCDI, IndexSELIC, IndexIPCA}

// EconomicIndex is one observation of a central-bank series (CDI, SELIC, IPCA).
// This is time-series data: no Base embed, no soft deletes.
type EconomicIndex struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string          `gorm:"not null;uniqueIndex:uq_index_code_date" json:"code"`
	Date      time.Time       `gorm:"not null;uniqueIndex:uq_index_code_date" json:"date"`
	Value     decimal.Decimal `gorm:"type:numeric(18,8);not null" json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (e *EconomicIndex) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New()
	}
	return nil
}

// TableName pins the table name used by the migrations.
func (EconomicIndex) TableName() string { return "economic_indexes" }
