package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass is the allocation bucket a holding belongs to.
type AssetClass string

const (
	AssetClassAcao       AssetClass = "acao"
	AssetClassFII        AssetClass = "fii"
	AssetClassREIT       AssetClass = "reit"
	AssetClassETF        AssetClass = "etf"
	AssetClassBDR        AssetClass = "bdr"
	AssetClassStock      AssetClass = "stock"
	AssetClassCripto     AssetClass = "cripto"
	AssetClassRendaFixa  AssetClass = "renda-fixa"
	AssetClassImovel     AssetClass = "imovel"
	AssetClassFundo      AssetClass = "fundo"
	AssetClassPrevidenca AssetClass = "previdencia"
	AssetClassOutro      AssetClass = "outro"
)

// AssetClasses lists every supported class.
var AssetClasses = []AssetClass{
	AssetClassAcao, AssetClassFII, AssetClassREIT, AssetClassETF, AssetClassBDR,
	AssetClassStock, AssetClassCripto, AssetClassRendaFixa, AssetClassImovel,
	AssetClassFundo, AssetClassPrevidenca, AssetClassOutro,
}

// Valid reports whether c is a known class.
func (c AssetClass) Valid() bool {
	for _, known := range AssetClasses {
		if c == known {
			return true
		}
	}
	return false
}

// Stock is an exchange-listed instrument whose price comes from the quote feed.
type Stock struct {
	Base
	Ticker      string              `gorm:"not null;uniqueIndex" json:"ticker"`
	CompanyName string              `json:"company_name"`
	Sector      string              `json:"sector,omitempty"`
	Class       AssetClass          `gorm:"not null;default:'acao'" json:"class"`
	LastPrice   decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"last_price"`
	LastPriceAt *time.Time          `json:"last_price_at,omitempty"`
}

// Asset is a non-listed holding (fixed income, real estate, crypto, funds).
// Catalogue assets have no owner; custom assets belong to a user.
type Asset struct {
	Base
	UserID       *string             `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name         string              `gorm:"not null" json:"name"`
	Class        AssetClass          `gorm:"not null" json:"class"`
	Symbol       *string             `gorm:"index" json:"symbol,omitempty"`
	CurrentValue decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"current_value"`
}
