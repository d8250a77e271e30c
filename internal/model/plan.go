package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionPlan is a named container of rules, optionally scoped to one
// project. Deactivating a plan stops its rules from matching new
// calculations; historical calculations keep their plan reference.
// CommissionBasis: "GROSS" | "NET"
type CommissionPlan struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID  uuid.UUID  `gorm:"type:uuid;index;not null"`
	Name            string     `gorm:"not null"`
	Description     *string
	CommissionBasis string     `gorm:"type:varchar(10);not null;default:'GROSS'"`
	ProjectID       *uuid.UUID `gorm:"type:uuid;index"`
	Active          bool       `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Rules []CommissionRule `gorm:"foreignKey:PlanID"`
}

// CommissionRule belongs to exactly one plan.
// Type:     "PERCENTAGE" | "FLAT_AMOUNT" | "TIERED"
// Scope:    "GLOBAL" | "CUSTOMER_TIER" | "PROJECT_SPECIFIC"
// Priority: "DEFAULT" | "CUSTOMER_TIER" | "PROJECT_SPECIFIC"
// Tiers is a jsonb array of {up_to, rate} bands, ascending, last band open.
type CommissionRule struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	PlanID         uuid.UUID `gorm:"type:uuid;index;not null"`
	Type           string    `gorm:"type:varchar(20);not null"`
	Scope          string    `gorm:"type:varchar(20);not null;default:'GLOBAL'"`
	Priority       string    `gorm:"type:varchar(20);not null;default:'DEFAULT'"`

	Percentage decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	FlatAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Tiers      []byte          `gorm:"type:jsonb"`

	// Gates on the sale amount — which transactions the rule applies to.
	MinSaleAmount *decimal.Decimal `gorm:"type:decimal(14,2)"`
	MaxSaleAmount *decimal.Decimal `gorm:"type:decimal(14,2)"`
	// Caps on the computed commission itself.
	MinAmount *decimal.Decimal `gorm:"type:decimal(14,2)"`
	MaxAmount *decimal.Decimal `gorm:"type:decimal(14,2)"`

	CustomerTier  *string    `gorm:"type:varchar(20)"`
	RuleProjectID *uuid.UUID `gorm:"type:uuid;column:rule_project_id"`

	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Plan *CommissionPlan `gorm:"foreignKey:PlanID"`
}
