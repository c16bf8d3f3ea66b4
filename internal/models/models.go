// Package models defines the GORM models persisted by the API.
package models

// All lists every model, in dependency order, for auto-migration in tests.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Consultant{},
		&ConsultantClient{},
		&CashflowGroup{},
		&CashflowItem{},
		&CashflowValue{},
		&Transaction{},
		&Institution{},
		&Stock{},
		&Asset{},
		&Portfolio{},
		&StockTransaction{},
		&AllocationTarget{},
		&Watchlist{},
		&Notification{},
		&EconomicIndex{},
		&AuditLog{},
	}
}
