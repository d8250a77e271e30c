package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TraceVersion is bumped whenever the Trace shape changes. Stored traces
// carry their version so historical rows stay readable; there is exactly
// one current shape.
const TraceVersion = 2

// Reject reasons recorded for considered-but-not-selected rules.
const (
	RejectScopeMismatch   = "scope_mismatch"
	RejectBelowMinSale    = "sale_amount_below_min"
	RejectAboveMaxSale    = "sale_amount_above_max"
	RejectLowerPrecedence = "lower_precedence"
)

// ConsideredRule is one entry in the audit trace: every candidate rule of
// the plan appears here, selected or not.
type ConsideredRule struct {
	RuleID       uuid.UUID `json:"rule_id"`
	Type         RuleType  `json:"type"`
	Scope        Scope     `json:"scope"`
	Priority     Priority  `json:"priority"`
	Selected     bool      `json:"selected"`
	RejectReason string    `json:"reject_reason,omitempty"`
}

// Trace is the strongly-typed calculation record persisted alongside every
// commission amount. It must contain everything needed to explain the
// payout to an auditor without re-running the engine.
type Trace struct {
	Version     int              `json:"version"`
	PlanID      uuid.UUID        `json:"plan_id"`
	PlanName    string           `json:"plan_name"`
	BasisType   Basis            `json:"basis_type"`
	BasisAmount decimal.Decimal  `json:"basis_amount"`
	RawAmount   decimal.Decimal  `json:"raw_amount"`
	FinalAmount decimal.Decimal  `json:"final_amount"`
	CapApplied  bool             `json:"cap_applied"`
	Considered  []ConsideredRule `json:"considered"`
}

// SelectedRule summarizes the winning rule for display.
type SelectedRule struct {
	RuleID     uuid.UUID       `json:"rule_id"`
	Type       RuleType        `json:"type"`
	Scope      Scope           `json:"scope"`
	Priority   Priority        `json:"priority"`
	Percentage decimal.Decimal `json:"percentage,omitempty"`
	FlatAmount decimal.Decimal `json:"flat_amount,omitempty"`
}

// PlanCalculation is one plan's result: exactly one selected rule, the
// computed amount, and the full trace. Multiple plans matching the same
// transaction each produce their own PlanCalculation (stacking across
// plans happens at the persistence layer, one calculation row per plan).
type PlanCalculation struct {
	PlanID      uuid.UUID       `json:"plan_id"`
	PlanName    string          `json:"plan_name"`
	BasisType   Basis           `json:"basis_type"`
	BasisAmount decimal.Decimal `json:"basis_amount"`
	RawAmount   decimal.Decimal `json:"raw_amount"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	CapApplied  bool            `json:"cap_applied"`
	Selected    SelectedRule    `json:"selected_rule"`
	Trace       Trace           `json:"trace"`
}

// Result is the full evaluation outcome. An empty Calculations slice is
// the valid "no rule matched" business outcome, not an error: the caller
// surfaces such transactions for manual review.
type Result struct {
	Calculations []PlanCalculation `json:"calculations"`
}

// Matched reports whether any plan produced a calculation.
func (r *Result) Matched() bool { return len(r.Calculations) > 0 }
