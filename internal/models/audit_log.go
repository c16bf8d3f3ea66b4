package models

// AuditLog records sensitive operations. RequestorID is who performed the
// action; TargetUserID is whose data it touched, which differs while a
// consultant acts as a client.
type AuditLog struct {
	Base
	RequestorID  string `gorm:"type:uuid;not null;index" json:"requestor_id"`
	TargetUserID string `gorm:"type:uuid;not null;index" json:"target_user_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
