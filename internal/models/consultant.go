package models

// Consultant is the consultant profile attached to a user with the consultant role.
type Consultant struct {
	Base
	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// LinkStatus is the lifecycle state of a consultant-client link.
type LinkStatus string

const (
	LinkStatusPending  LinkStatus = "pending"
	LinkStatusActive   LinkStatus = "active"
	LinkStatusInactive LinkStatus = "inactive"
)

// ConsultantClient links a consultant to a client user. Only active links
// allow the consultant to act as the client.
type ConsultantClient struct {
	Base
	ConsultantID string     `gorm:"type:uuid;not null;index:idx_consultant_client" json:"consultant_id"`
	ClientID     string     `gorm:"type:uuid;not null;index:idx_consultant_client" json:"client_id"`
	Status       LinkStatus `gorm:"not null;default:'pending'" json:"status"`

	Consultant Consultant `gorm:"foreignKey:ConsultantID" json:"consultant,omitempty"`
	Client     User       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}
