package models

import "github.com/shopspring/decimal"

// CashflowType classifies a cash-flow group.
type CashflowType string

const (
	CashflowTypeEntrada      CashflowType = "entrada"
	CashflowTypeDespesa      CashflowType = "despesa"
	CashflowTypeInvestimento CashflowType = "investimento"
)

// CashflowGroup is a node of the cash-flow tree. Rows with a nil UserID are
// shared templates; rows with an owner are that user's personalized copies,
// pointing back at their template through TemplateID.
type CashflowGroup struct {
	Base
	UserID     *string      `gorm:"type:uuid;index;uniqueIndex:uq_cashflow_group_fork" json:"user_id"`
	TemplateID *string      `gorm:"type:uuid;uniqueIndex:uq_cashflow_group_fork" json:"template_id"`
	Name       string       `gorm:"not null" json:"name"`
	Type       CashflowType `gorm:"not null" json:"type"`
	Order      int          `gorm:"column:order_index;not null;default:0" json:"order"`
	ParentID   *string      `gorm:"type:uuid;index" json:"parent_id"`
}

// IsTemplate reports whether the group is part of the shared baseline.
func (g *CashflowGroup) IsTemplate() bool { return g.UserID == nil }

// OriginID is the id of the template this row derives from, or its own id
// for templates and user-created groups.
func (g *CashflowGroup) OriginID() string {
	if g.TemplateID != nil {
		return *g.TemplateID
	}
	return g.ID
}

// CashflowItem is a line inside a group, following the same template/fork rules.
// Hidden forks remove the template line from the owner's view.
type CashflowItem struct {
	Base
	GroupID     string  `gorm:"type:uuid;not null;index" json:"group_id"`
	UserID      *string `gorm:"type:uuid;index;uniqueIndex:uq_cashflow_item_fork" json:"user_id"`
	TemplateID  *string `gorm:"type:uuid;uniqueIndex:uq_cashflow_item_fork" json:"template_id"`
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description"`
	Order       int     `gorm:"column:order_index;not null;default:0" json:"order"`
	Hidden      bool    `gorm:"not null;default:false" json:"hidden"`
}

// IsTemplate reports whether the item is part of the shared baseline.
func (i *CashflowItem) IsTemplate() bool { return i.UserID == nil }

// OriginID is the id of the template this row derives from, or its own id.
func (i *CashflowItem) OriginID() string {
	if i.TemplateID != nil {
		return *i.TemplateID
	}
	return i.ID
}

// ValueStatus tracks whether a monthly value was settled.
type ValueStatus string

const (
	ValueStatusPago     ValueStatus = "pago"
	ValueStatusPendente ValueStatus = "pendente"
)

// CashflowValue is the amount of an item for one month of one year for one user.
// Month is zero-based (0 = January).
type CashflowValue struct {
	Base
	ItemID  string          `gorm:"type:uuid;not null;uniqueIndex:uq_cashflow_value" json:"item_id"`
	UserID  string          `gorm:"type:uuid;not null;uniqueIndex:uq_cashflow_value" json:"user_id"`
	Year    int             `gorm:"not null;uniqueIndex:uq_cashflow_value" json:"year"`
	Month   int             `gorm:"not null;uniqueIndex:uq_cashflow_value" json:"month"`
	Value   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"value"`
	Status  ValueStatus     `gorm:"not null;default:'pendente'" json:"status"`
	Comment string          `json:"comment,omitempty"`
}
