package models

import "time"

// Role gates what an identity may do; only consultants can act as clients.
type Role string

const (
	RoleUser       Role = "user"
	RoleConsultant Role = "consultant"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleConsultant, RoleAdmin:
		return true
	}
	return false
}

// User represents the user model in the database
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	Name                *string    `json:"name"`
	Role                Role       `gorm:"not null;default:'user'" json:"role"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}

// DisplayName returns the user's name or fallback when it is unset.
func (u *User) DisplayName(fallback string) string {
	if u.Name == nil || *u.Name == "" {
		return fallback
	}
	return *u.Name
}
