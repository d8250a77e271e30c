package model

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer of the organization.
// Tier: "STANDARD" | "PREMIUM" | "VIP" — tier-scoped commission rules
// match against this value.
type Client struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name           string    `gorm:"index;not null"`
	Tier           string    `gorm:"type:varchar(20);not null;default:'STANDARD'"`
	TerritoryID    *uuid.UUID `gorm:"type:uuid;index"`
	ContactEmail   *string
	Active         bool `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Project groups transactions under a client engagement. Plans may be
// scoped to a single project; project-scoped rules only match its
// transactions.
type Project struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID       uuid.UUID `gorm:"type:uuid;index;not null"`
	Name           string    `gorm:"not null"`
	TerritoryID    *uuid.UUID `gorm:"type:uuid"`
	Active         bool       `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Client *Client `gorm:"foreignKey:ClientID"`
}
