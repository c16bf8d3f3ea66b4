package models

// InstitutionStatus marks whether an institution is still operating.
type InstitutionStatus string

const (
	InstitutionAtiva   InstitutionStatus = "ATIVA"
	InstitutionInativa InstitutionStatus = "INATIVA"
)

// Institution is a broker or bank, keyed by a slug derived from its name.
type Institution struct {
	Base
	Code   string            `gorm:"not null;uniqueIndex" json:"code"`
	Name   string            `gorm:"not null" json:"name"`
	Status InstitutionStatus `gorm:"not null;default:'ATIVA'" json:"status"`
}
