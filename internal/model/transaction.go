package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesTransaction is an immutable record of a sale.
// Type: "SALE" | "RETURN" | "ADJUSTMENT" — RETURN/ADJUSTMENT carry
// negative amounts and reduce commission. Once a calculation references a
// transaction it is never mutated; corrections are new ADJUSTMENT rows.
type SalesTransaction struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID       *uuid.UUID `gorm:"type:uuid;index"`
	ProjectID      *uuid.UUID `gorm:"type:uuid;index"`
	Type           string     `gorm:"type:varchar(20);not null;default:'SALE'"`
	// GrossAmount is the full sale amount; DiscountTotal is subtracted to
	// obtain the net basis for plans configured with commission_basis=NET.
	GrossAmount       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	DiscountTotal     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Date              time.Time       `gorm:"type:date;not null;index"`
	ProductCategoryID *uuid.UUID      `gorm:"type:uuid"`
	InvoiceNumber     *string         `gorm:"type:varchar(50)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Client  *Client  `gorm:"foreignKey:ClientID"`
	Project *Project `gorm:"foreignKey:ProjectID"`
}

// NetAmount is the gross amount minus accumulated discounts.
func (t *SalesTransaction) NetAmount() decimal.Decimal {
	return t.GrossAmount.Sub(t.DiscountTotal)
}
