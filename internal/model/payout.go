package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutRun groups the approved calculations of a period and marks them
// paid in one pass. Status: "draft" | "completed"
type PayoutRun struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;index;not null"`
	PeriodStart    time.Time       `gorm:"type:date;not null"`
	PeriodEnd      time.Time       `gorm:"type:date;not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Count          int             `gorm:"not null;default:0"`
	Status         string          `gorm:"type:varchar(20);not null;default:'draft'"`
	CreatedByID    uuid.UUID       `gorm:"type:uuid;not null"`
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Calculations []CommissionCalculation `gorm:"foreignKey:PayoutRunID"`
}
