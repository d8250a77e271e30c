package service

import (
	"encoding/json"
	"fmt"

	"commissionflow/internal/dto"
	"commissionflow/internal/engine"
	"commissionflow/internal/model"
)

// toEngineRule converts a persisted rule (with its preloaded plan) into
// the engine's pure input form. Tier bands round-trip through the jsonb
// column as dto.TierBand.
func toEngineRule(r *model.CommissionRule) (engine.Rule, error) {
	if r.Plan == nil {
		return engine.Rule{}, fmt.Errorf("rule %s: plan not loaded", r.ID)
	}

	er := engine.Rule{
		ID: r.ID,
		Plan: engine.PlanRef{
			ID:    r.PlanID,
			Name:  r.Plan.Name,
			Basis: engine.Basis(r.Plan.CommissionBasis),
		},
		Type:          engine.RuleType(r.Type),
		Scope:         engine.Scope(r.Scope),
		Priority:      engine.Priority(r.Priority),
		Percentage:    r.Percentage,
		FlatAmount:    r.FlatAmount,
		MinSaleAmount: r.MinSaleAmount,
		MaxSaleAmount: r.MaxSaleAmount,
		MinAmount:     r.MinAmount,
		MaxAmount:     r.MaxAmount,
		ProjectID:     r.RuleProjectID,
		CreatedAt:     r.CreatedAt,
	}
	if r.CustomerTier != nil {
		er.CustomerTier = *r.CustomerTier
	}

	if len(r.Tiers) > 0 {
		var bands []dto.TierBand
		if err := json.Unmarshal(r.Tiers, &bands); err != nil {
			return engine.Rule{}, fmt.Errorf("rule %s: malformed tiers: %w", r.ID, err)
		}
		for _, b := range bands {
			er.Tiers = append(er.Tiers, engine.Tier{UpTo: b.UpTo, Rate: b.Rate})
		}
	}
	return er, nil
}

func toEngineTransaction(t *model.SalesTransaction) engine.Transaction {
	return engine.Transaction{
		GrossAmount: t.GrossAmount,
		NetAmount:   t.NetAmount(),
		Date:        t.Date,
		Type:        engine.TransactionType(t.Type),
	}
}

// resolveContext builds the engine matching context from a transaction's
// preloaded relations. Territory comes from the project when present,
// otherwise from the client.
func resolveContext(t *model.SalesTransaction) engine.Context {
	ctx := engine.Context{
		ProjectID:         t.ProjectID,
		ProductCategoryID: t.ProductCategoryID,
	}
	if t.Client != nil {
		ctx.CustomerTier = t.Client.Tier
		ctx.TerritoryID = t.Client.TerritoryID
	}
	if t.Project != nil && t.Project.TerritoryID != nil {
		ctx.TerritoryID = t.Project.TerritoryID
	}
	return ctx
}
