package dto

import "github.com/shopspring/decimal"

// ─── Plans ───────────────────────────────────────────────────────────────────

type CreatePlanRequest struct {
	Name            string  `json:"name"             validate:"required,min=2"`
	Description     *string `json:"description"`
	CommissionBasis string  `json:"commission_basis" validate:"required,oneof=GROSS NET"`
	ProjectID       *string `json:"project_id"       validate:"omitempty,uuid"`
}

type UpdatePlanRequest struct {
	Name            *string `json:"name"             validate:"omitempty,min=2"`
	Description     *string `json:"description"`
	CommissionBasis *string `json:"commission_basis" validate:"omitempty,oneof=GROSS NET"`
}

type PlanResponse struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     *string        `json:"description,omitempty"`
	CommissionBasis string         `json:"commission_basis"`
	ProjectID       *string        `json:"project_id,omitempty"`
	Active          bool           `json:"active"`
	Rules           []RuleResponse `json:"rules,omitempty"`
	CreatedAt       string         `json:"created_at"`
}

// ─── Rules ───────────────────────────────────────────────────────────────────

// TierBand mirrors one progressive band of a TIERED rule.
type TierBand struct {
	UpTo *decimal.Decimal `json:"up_to"` // nil = open top band
	Rate decimal.Decimal  `json:"rate"  validate:"required"`
}

type CreateRuleRequest struct {
	Type     string `json:"type"     validate:"required,oneof=PERCENTAGE FLAT_AMOUNT TIERED"`
	Scope    string `json:"scope"    validate:"required,oneof=GLOBAL CUSTOMER_TIER PROJECT_SPECIFIC"`
	Priority string `json:"priority" validate:"required,oneof=DEFAULT CUSTOMER_TIER PROJECT_SPECIFIC"`

	Percentage decimal.Decimal `json:"percentage"`
	FlatAmount decimal.Decimal `json:"flat_amount"`
	Tiers      []TierBand      `json:"tiers" validate:"omitempty,dive"`

	MinSaleAmount *decimal.Decimal `json:"min_sale_amount"`
	MaxSaleAmount *decimal.Decimal `json:"max_sale_amount"`
	MinAmount     *decimal.Decimal `json:"min_amount"`
	MaxAmount     *decimal.Decimal `json:"max_amount"`

	CustomerTier *string `json:"customer_tier" validate:"omitempty,oneof=STANDARD PREMIUM VIP"`
	ProjectID    *string `json:"project_id"    validate:"omitempty,uuid"`
}

type RuleResponse struct {
	ID       string `json:"id"`
	PlanID   string `json:"plan_id"`
	Type     string `json:"type"`
	Scope    string `json:"scope"`
	Priority string `json:"priority"`

	Percentage decimal.Decimal `json:"percentage"`
	FlatAmount decimal.Decimal `json:"flat_amount"`
	Tiers      []TierBand      `json:"tiers,omitempty"`

	MinSaleAmount *decimal.Decimal `json:"min_sale_amount,omitempty"`
	MaxSaleAmount *decimal.Decimal `json:"max_sale_amount,omitempty"`
	MinAmount     *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount     *decimal.Decimal `json:"max_amount,omitempty"`

	CustomerTier *string `json:"customer_tier,omitempty"`
	ProjectID    *string `json:"project_id,omitempty"`

	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}
