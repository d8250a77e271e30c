package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidRule tags configuration errors detected during evaluation
// (unknown rule type, caps with min > max, malformed tier bands).
// These should have been rejected at authoring time; the engine refuses
// to calculate rather than silently produce a wrong payout.
var ErrInvalidRule = errors.New("invalid rule configuration")

// RuleType determines how the raw commission amount is computed.
type RuleType string

const (
	RulePercentage RuleType = "PERCENTAGE"
	RuleFlatAmount RuleType = "FLAT_AMOUNT"
	RuleTiered     RuleType = "TIERED"
)

// Scope is the condition class a rule matches against.
type Scope string

const (
	ScopeGlobal          Scope = "GLOBAL"
	ScopeCustomerTier    Scope = "CUSTOMER_TIER"
	ScopeProjectSpecific Scope = "PROJECT_SPECIFIC"
)

// specificity orders scopes from broadest to narrowest. Used as the
// second tie-break when two matching rules share a priority.
func (s Scope) specificity() int {
	switch s {
	case ScopeProjectSpecific:
		return 2
	case ScopeCustomerTier:
		return 1
	default:
		return 0
	}
}

// Priority ranks rules within a plan. Comparison goes through rank() so
// precedence is a total order, never string comparison.
type Priority string

const (
	PriorityDefault         Priority = "DEFAULT"
	PriorityCustomerTier    Priority = "CUSTOMER_TIER"
	PriorityProjectSpecific Priority = "PROJECT_SPECIFIC"
)

func (p Priority) rank() int {
	switch p {
	case PriorityProjectSpecific:
		return 2
	case PriorityCustomerTier:
		return 1
	default:
		return 0
	}
}

// Basis selects the amount commission percentages are applied to.
type Basis string

const (
	BasisGross Basis = "GROSS"
	BasisNet   Basis = "NET"
)

// TransactionType mirrors the sales ledger. RETURN and ADJUSTMENT carry
// negative amounts and reduce commission; the sign is preserved through
// the whole calculation.
type TransactionType string

const (
	TxSale       TransactionType = "SALE"
	TxReturn     TransactionType = "RETURN"
	TxAdjustment TransactionType = "ADJUSTMENT"
)

// Tier is one progressive band of a TIERED rule. UpTo is the inclusive
// upper bound of the band; nil marks the open-ended top band.
type Tier struct {
	UpTo *decimal.Decimal `json:"up_to"`
	Rate decimal.Decimal  `json:"rate"` // percent, e.g. 5 = 5%
}

// PlanRef carries the plan attributes the engine needs. Rules are grouped
// by PlanRef.ID; Basis decides gross vs net per plan.
type PlanRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Basis Basis     `json:"basis"`
}

// Rule is a fully resolved candidate rule. The caller loads these from
// active plans; the engine never touches storage.
type Rule struct {
	ID   uuid.UUID `json:"id"`
	Plan PlanRef   `json:"plan"`

	Type     RuleType `json:"type"`
	Scope    Scope    `json:"scope"`
	Priority Priority `json:"priority"`

	Percentage decimal.Decimal `json:"percentage"`  // for PERCENTAGE
	FlatAmount decimal.Decimal `json:"flat_amount"` // for FLAT_AMOUNT
	Tiers      []Tier          `json:"tiers"`       // for TIERED, ascending

	// Gates on the sale (basis) amount — which transactions the rule applies to.
	MinSaleAmount *decimal.Decimal `json:"min_sale_amount"`
	MaxSaleAmount *decimal.Decimal `json:"max_sale_amount"`

	// Caps on the computed commission itself.
	MinAmount *decimal.Decimal `json:"min_amount"`
	MaxAmount *decimal.Decimal `json:"max_amount"`

	// Scope operands.
	CustomerTier string     `json:"customer_tier,omitempty"`
	ProjectID    *uuid.UUID `json:"project_id,omitempty"`

	// CreatedAt is the final tie-break: among equal priority and scope the
	// earliest-created rule wins, so inserting a new rule never silently
	// steals payouts from an established one.
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is the immutable sale record under evaluation. NetAmount is
// resolved by the caller (gross minus prior discounts/adjustments); the
// engine only picks between the two per the plan's basis setting.
type Transaction struct {
	GrossAmount decimal.Decimal
	NetAmount   decimal.Decimal
	Date        time.Time
	Type        TransactionType
}

// Context is the matching context resolved by the caller from the
// transaction's linked client and project.
type Context struct {
	CustomerTier      string
	ProjectID         *uuid.UUID
	TerritoryID       *uuid.UUID
	ProductCategoryID *uuid.UUID
}

// Validate rejects malformed rules before any amount is computed.
func (r *Rule) Validate() error {
	switch r.Type {
	case RulePercentage:
		if r.Percentage.IsNegative() {
			return fmt.Errorf("%w: rule %s: negative percentage", ErrInvalidRule, r.ID)
		}
	case RuleFlatAmount:
		if r.FlatAmount.IsNegative() {
			return fmt.Errorf("%w: rule %s: negative flat amount", ErrInvalidRule, r.ID)
		}
	case RuleTiered:
		if len(r.Tiers) == 0 {
			return fmt.Errorf("%w: rule %s: tiered rule without tiers", ErrInvalidRule, r.ID)
		}
		var prev *decimal.Decimal
		for i, t := range r.Tiers {
			if t.Rate.IsNegative() {
				return fmt.Errorf("%w: rule %s: tier %d negative rate", ErrInvalidRule, r.ID, i)
			}
			if t.UpTo == nil {
				if i != len(r.Tiers)-1 {
					return fmt.Errorf("%w: rule %s: open band before last tier", ErrInvalidRule, r.ID)
				}
				continue
			}
			if prev != nil && t.UpTo.LessThanOrEqual(*prev) {
				return fmt.Errorf("%w: rule %s: tier bounds not ascending", ErrInvalidRule, r.ID)
			}
			prev = t.UpTo
		}
	default:
		return fmt.Errorf("%w: rule %s: unknown type %q", ErrInvalidRule, r.ID, r.Type)
	}

	switch r.Scope {
	case ScopeGlobal, ScopeCustomerTier, ScopeProjectSpecific:
	default:
		return fmt.Errorf("%w: rule %s: unknown scope %q", ErrInvalidRule, r.ID, r.Scope)
	}
	switch r.Priority {
	case PriorityDefault, PriorityCustomerTier, PriorityProjectSpecific:
	default:
		return fmt.Errorf("%w: rule %s: unknown priority %q", ErrInvalidRule, r.ID, r.Priority)
	}
	if r.Scope == ScopeCustomerTier && r.CustomerTier == "" {
		return fmt.Errorf("%w: rule %s: customer-tier scope without tier", ErrInvalidRule, r.ID)
	}
	if r.Scope == ScopeProjectSpecific && r.ProjectID == nil {
		return fmt.Errorf("%w: rule %s: project scope without project", ErrInvalidRule, r.ID)
	}

	if r.MinSaleAmount != nil && r.MaxSaleAmount != nil && r.MinSaleAmount.GreaterThan(*r.MaxSaleAmount) {
		return fmt.Errorf("%w: rule %s: min sale amount exceeds max", ErrInvalidRule, r.ID)
	}
	if r.MinAmount != nil && r.MaxAmount != nil && r.MinAmount.GreaterThan(*r.MaxAmount) {
		return fmt.Errorf("%w: rule %s: min cap exceeds max cap", ErrInvalidRule, r.ID)
	}
	switch r.Plan.Basis {
	case BasisGross, BasisNet:
	default:
		return fmt.Errorf("%w: rule %s: unknown plan basis %q", ErrInvalidRule, r.ID, r.Plan.Basis)
	}
	return nil
}
