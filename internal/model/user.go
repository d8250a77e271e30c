package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated member of an organization.
// Role: "admin" | "manager" | "viewer"
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	Email          string    `gorm:"uniqueIndex;not null"`
	Name           string    `gorm:"not null"`
	PasswordHash   string    `gorm:"not null"`
	Role           string    `gorm:"type:varchar(20);not null;default:'viewer'"`
	Active         bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
