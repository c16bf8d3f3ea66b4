package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/HuskeLuv/SFC-sub003/internal/uuid"

	"gorm.io/gorm"
)

// Portfolio is a position of one user in one stock or asset. Version is bumped
// on every aggregate update and used for compare-and-swap writes.
type Portfolio struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index;uniqueIndex:uq_portfolio_user_stock;uniqueIndex:uq_portfolio_user_asset" json:"user_id"`
	StockID       *string         `gorm:"type:uuid;uniqueIndex:uq_portfolio_user_stock" json:"stock_id,omitempty"`
	AssetID       *string         `gorm:"type:uuid;uniqueIndex:uq_portfolio_user_asset" json:"asset_id,omitempty"`
	InstitutionID *string         `gorm:"type:uuid" json:"institution_id,omitempty"`
	Quantity      decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"quantity"`
	AvgPrice      decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"avg_price"`
	TotalInvested decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"total_invested"`
	Version       int64           `gorm:"not null;default:0" json:"version"`
	LastUpdate    time.Time       `gorm:"not null" json:"last_update"`

	Stock       *Stock       `gorm:"foreignKey:StockID" json:"stock,omitempty"`
	Asset       *Asset       `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	Institution *Institution `gorm:"foreignKey:InstitutionID" json:"institution,omitempty"`
}

// Symbol is the market symbol used to price the position, if any.
func (p *Portfolio) Symbol() string {
	if p.Stock != nil {
		return p.Stock.Ticker
	}
	if p.Asset != nil && p.Asset.Symbol != nil {
		return *p.Asset.Symbol
	}
	return ""
}

// Name is a display label for the position.
func (p *Portfolio) Name() string {
	if p.Stock != nil {
		if p.Stock.CompanyName != "" {
			return p.Stock.CompanyName
		}
		return p.Stock.Ticker
	}
	if p.Asset != nil {
		return p.Asset.Name
	}
	return ""
}

// Class returns the allocation class of the underlying stock or asset.
func (p *Portfolio) Class() AssetClass {
	if p.Stock != nil {
		return p.Stock.Class
	}
	if p.Asset != nil {
		return p.Asset.Class
	}
	return AssetClassOutro
}

// StockTransactionType distinguishes buys from sells.
type StockTransactionType string

const (
	StockTransactionCompra StockTransactionType = "compra"
	StockTransactionVenda  StockTransactionType = "venda"
)

// StockTransaction is the immutable audit row of an aporte or resgate.
// No Base embed: rows are never updated or soft deleted.
type StockTransaction struct {
	ID          string               `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string               `gorm:"type:uuid;not null;index" json:"user_id"`
	PortfolioID string               `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	StockID     *string              `gorm:"type:uuid" json:"stock_id,omitempty"`
	AssetID     *string              `gorm:"type:uuid" json:"asset_id,omitempty"`
	Type        StockTransactionType `gorm:"not null" json:"type"`
	Quantity    decimal.Decimal      `gorm:"type:numeric(24,8);not null" json:"quantity"`
	Price       decimal.Decimal      `gorm:"type:numeric(24,8);not null" json:"price"`
	Total       decimal.Decimal      `gorm:"type:numeric(24,8);not null" json:"total"`
	Date        time.Time            `gorm:"not null;index" json:"date"`
	Notes       datatypes.JSON       `json:"notes"`
	CreatedAt   time.Time            `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (s *StockTransaction) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}

// AllocationTarget is the desired share of a class in a user's portfolio.
type AllocationTarget struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;uniqueIndex:uq_allocation_target" json:"user_id"`
	Class         AssetClass      `gorm:"not null;uniqueIndex:uq_allocation_target" json:"class"`
	TargetPercent decimal.Decimal `gorm:"type:numeric(7,4);not null" json:"target_percent"`
}
