package models

import "github.com/shopspring/decimal"

// Watchlist is a stock a user follows without holding it.
type Watchlist struct {
	Base
	UserID      string              `gorm:"type:uuid;not null;uniqueIndex:uq_watchlist_user_stock" json:"user_id"`
	StockID     string              `gorm:"type:uuid;not null;uniqueIndex:uq_watchlist_user_stock" json:"stock_id"`
	TargetPrice decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"target_price"`
	Notes       string              `json:"notes,omitempty"`
	Stock       Stock               `gorm:"foreignKey:StockID" json:"stock"`
}
