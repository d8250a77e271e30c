// Package engine implements commission rule resolution: given a sales
// transaction, its matching context, and the candidate rules of all active
// plans, it deterministically selects one rule per plan, computes the
// commission amount, and emits a full audit trace.
//
// The engine is a pure function over its inputs — no I/O, no clock reads,
// no shared state. Identical inputs always produce identical output, which
// is what makes bulk recalculation after plan edits safe: the new result
// deterministically replaces the old one.
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluate resolves candidateRules against the transaction and context.
//
// Rule selection per plan, in order:
//  1. Drop rules whose min/max sale-amount gate excludes the basis amount
//     or whose scope does not match the context.
//  2. Among the remainder pick exactly one: highest priority, then most
//     specific scope, then earliest CreatedAt, then smallest rule ID.
//     The ordering is total, so equal-priority ties resolve the same way
//     on every run.
//  3. Compute the raw amount per rule type, clamp into the rule's
//     commission caps, round to 2 places.
//
// Each plan with a surviving rule contributes one PlanCalculation; a
// transaction matched by no plan yields an empty Result, not an error.
// Malformed rules abort the whole evaluation with ErrInvalidRule.
func Evaluate(tx Transaction, ctx Context, candidateRules []Rule) (*Result, error) {
	for i := range candidateRules {
		if err := candidateRules[i].Validate(); err != nil {
			return nil, err
		}
	}

	byPlan := make(map[string][]Rule)
	planOrder := make([]string, 0)
	for _, r := range candidateRules {
		key := r.Plan.ID.String()
		if _, seen := byPlan[key]; !seen {
			planOrder = append(planOrder, key)
		}
		byPlan[key] = append(byPlan[key], r)
	}
	// Plan iteration order must not depend on input order.
	sort.Strings(planOrder)

	result := &Result{Calculations: []PlanCalculation{}}
	for _, key := range planOrder {
		if calc := evaluatePlan(tx, ctx, byPlan[key]); calc != nil {
			result.Calculations = append(result.Calculations, *calc)
		}
	}
	return result, nil
}

// evaluatePlan runs steps 1–3 for a single plan's rules. Returns nil when
// no rule of the plan matches.
func evaluatePlan(tx Transaction, ctx Context, rules []Rule) *PlanCalculation {
	plan := rules[0].Plan
	basisAmount := tx.GrossAmount
	if plan.Basis == BasisNet {
		basisAmount = tx.NetAmount
	}

	sortByPrecedence(rules)

	considered := make([]ConsideredRule, 0, len(rules))
	var selected *Rule
	for i := range rules {
		r := &rules[i]
		entry := ConsideredRule{
			RuleID:   r.ID,
			Type:     r.Type,
			Scope:    r.Scope,
			Priority: r.Priority,
		}
		if reason := rejectReason(r, ctx, basisAmount); reason != "" {
			entry.RejectReason = reason
		} else if selected == nil {
			entry.Selected = true
			selected = r
		} else {
			entry.RejectReason = RejectLowerPrecedence
		}
		considered = append(considered, entry)
	}

	if selected == nil {
		return nil
	}

	raw := computeRaw(selected, basisAmount)
	final, capped := applyCaps(raw, selected.MinAmount, selected.MaxAmount)

	trace := Trace{
		Version:     TraceVersion,
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		BasisType:   plan.Basis,
		BasisAmount: basisAmount,
		RawAmount:   raw,
		FinalAmount: final,
		CapApplied:  capped,
		Considered:  considered,
	}
	return &PlanCalculation{
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		BasisType:   plan.Basis,
		BasisAmount: basisAmount,
		RawAmount:   raw,
		FinalAmount: final,
		CapApplied:  capped,
		Selected: SelectedRule{
			RuleID:     selected.ID,
			Type:       selected.Type,
			Scope:      selected.Scope,
			Priority:   selected.Priority,
			Percentage: selected.Percentage,
			FlatAmount: selected.FlatAmount,
		},
		Trace: trace,
	}
}

// sortByPrecedence orders rules so the first match wins: priority rank,
// scope specificity, creation time, rule ID. The final two keys make the
// order total — equal-priority ties go to the earliest-created rule.
func sortByPrecedence(rules []Rule) {
	sort.Slice(rules, func(i, j int) bool {
		a, b := &rules[i], &rules[j]
		if ar, br := a.Priority.rank(), b.Priority.rank(); ar != br {
			return ar > br
		}
		if as, bs := a.Scope.specificity(), b.Scope.specificity(); as != bs {
			return as > bs
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// rejectReason returns "" when the rule matches the transaction, or the
// trace reason explaining why it was filtered out. Sale-amount gates
// compare against the magnitude of the basis amount so a RETURN routes
// through the same rule as the sale it reverses.
func rejectReason(r *Rule, ctx Context, basisAmount decimal.Decimal) string {
	switch r.Scope {
	case ScopeCustomerTier:
		if ctx.CustomerTier == "" || r.CustomerTier != ctx.CustomerTier {
			return RejectScopeMismatch
		}
	case ScopeProjectSpecific:
		if ctx.ProjectID == nil || r.ProjectID == nil || *r.ProjectID != *ctx.ProjectID {
			return RejectScopeMismatch
		}
	}

	gate := basisAmount.Abs()
	if r.MinSaleAmount != nil && gate.LessThan(*r.MinSaleAmount) {
		return RejectBelowMinSale
	}
	if r.MaxSaleAmount != nil && gate.GreaterThan(*r.MaxSaleAmount) {
		return RejectAboveMaxSale
	}
	return ""
}

// computeRaw applies the rule's formula to the basis amount. The sign of
// the basis flows through: a negative basis (RETURN/ADJUSTMENT) yields a
// negative, commission-reducing amount for every rule type.
func computeRaw(r *Rule, basisAmount decimal.Decimal) decimal.Decimal {
	switch r.Type {
	case RulePercentage:
		return basisAmount.Mul(r.Percentage).Div(hundred).Round(2)
	case RuleFlatAmount:
		if basisAmount.IsNegative() {
			return r.FlatAmount.Neg().Round(2)
		}
		return r.FlatAmount.Round(2)
	case RuleTiered:
		return tieredAmount(basisAmount, r.Tiers)
	}
	return decimal.Zero
}

// tieredAmount is a progressive (marginal) band calculation: each band's
// portion of the amount is multiplied by that band's rate and summed.
// A $15,000 amount against [$0–10,000 @5%, above @7%] yields
// 10,000×5% + 5,000×7% = 850, not 15,000×7%.
func tieredAmount(basisAmount decimal.Decimal, tiers []Tier) decimal.Decimal {
	amount := basisAmount.Abs()
	total := decimal.Zero
	lower := decimal.Zero

	for _, t := range tiers {
		if amount.LessThanOrEqual(lower) {
			break
		}
		bandTop := amount
		if t.UpTo != nil && t.UpTo.LessThan(amount) {
			bandTop = *t.UpTo
		}
		total = total.Add(bandTop.Sub(lower).Mul(t.Rate).Div(hundred))
		if t.UpTo == nil {
			break
		}
		lower = *t.UpTo
	}

	if basisAmount.IsNegative() {
		total = total.Neg()
	}
	return total.Round(2)
}

// applyCaps clamps the magnitude of the computed commission into
// [min, max], preserving sign, and reports whether clamping occurred.
// Caps bound the payable commission; they are distinct from the
// sale-amount gates checked during matching.
func applyCaps(raw decimal.Decimal, min, max *decimal.Decimal) (decimal.Decimal, bool) {
	if min == nil && max == nil {
		return raw, false
	}
	neg := raw.IsNegative()
	mag := raw.Abs()
	capped := false
	if max != nil && mag.GreaterThan(*max) {
		mag = *max
		capped = true
	}
	if min != nil && mag.LessThan(*min) {
		mag = *min
		capped = true
	}
	if neg {
		mag = mag.Neg()
	}
	return mag.Round(2), capped
}
