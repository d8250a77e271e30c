package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Calculation statuses. Transitions: pending → approved → paid, or
// pending → rejected. Recalculation overwrites amount and trace but
// preserves the row's identity and status.
const (
	CalcStatusPending  = "pending"
	CalcStatusApproved = "approved"
	CalcStatusRejected = "rejected"
	CalcStatusPaid     = "paid"
)

// CommissionCalculation is one payable amount per (transaction, plan)
// pairing. Trace holds the versioned engine trace as jsonb. Version is an
// optimistic-concurrency counter: recalculation and approval both bump it
// and refuse to write over a row someone else changed first.
type CommissionCalculation struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	TransactionID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_calc_tx_plan"`
	PlanID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_calc_tx_plan"`
	RuleID         uuid.UUID `gorm:"type:uuid;not null"`

	Amount       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Status       string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	Trace        []byte          `gorm:"type:jsonb"`
	CalculatedAt time.Time       `gorm:"not null"`
	Version      int             `gorm:"not null;default:1"`

	PayoutRunID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Transaction *SalesTransaction      `gorm:"foreignKey:TransactionID"`
	Plan        *CommissionPlan        `gorm:"foreignKey:PlanID"`
	Adjustments []CommissionAdjustment `gorm:"foreignKey:CalculationID"`
}

// NetAmount is the calculated amount plus all manual adjustments.
func (c *CommissionCalculation) NetAmount() decimal.Decimal {
	net := c.Amount
	for _, a := range c.Adjustments {
		net = net.Add(a.Delta)
	}
	return net
}

// CommissionAdjustment is a manual correction applied after calculation.
// Adjustments are additive and immutable; the original calculation
// amount is never mutated.
type CommissionAdjustment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;index;not null"`
	CalculationID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	Delta          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Reason         string          `gorm:"not null"`
	AppliedByID    uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt      time.Time
}
