package model

import (
	"strings"
	"time"
)

// User represents an authenticated user in the system.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name         string     `json:"name" gorm:"size:255;not null;default:''"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	IsActive     bool       `json:"is_active" gorm:"not null;default:true"`
	IsStaff      bool       `json:"is_staff" gorm:"not null;default:false"`
	IsSuperuser  bool       `json:"is_superuser" gorm:"not null;default:false"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NormalizeEmail lowercases the domain part of an email address and leaves the
// local part untouched.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
