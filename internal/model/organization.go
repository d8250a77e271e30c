package model

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant root. Every domain row carries an
// OrganizationID and every repository query filters on it — rows of one
// organization are never visible to another.
type Organization struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Organization) TableName() string { return "organizations" }
