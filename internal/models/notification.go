package models

import "time"

// Notification is an in-app message for a user.
type Notification struct {
	Base
	UserID  string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Type    string     `gorm:"not null" json:"type"`
	Title   string     `gorm:"not null" json:"title"`
	Message string     `json:"message"`
	ReadAt  *time.Time `json:"read_at,omitempty"`
}
