package service_test

import (
	"context"
	"testing"

	"commissionflow/internal/dto"
	"commissionflow/internal/engine"
	"commissionflow/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPlanSvc() (service.PlanService, *stubPlanRepo, uuid.UUID) {
	repo := newStubPlanRepo()
	return service.NewPlanService(repo, nil), repo, uuid.New()
}

func percentageRuleReq(pct int64) dto.CreateRuleRequest {
	return dto.CreateRuleRequest{
		Type:       "PERCENTAGE",
		Scope:      "GLOBAL",
		Priority:   "DEFAULT",
		Percentage: decimal.NewFromInt(pct),
	}
}

func TestCreatePlanAndAddRule(t *testing.T) {
	svc, _, orgID := buildPlanSvc()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, orgID, dto.CreatePlanRequest{
		Name:            "Standard commissions",
		CommissionBasis: "GROSS",
	})
	require.NoError(t, err)
	assert.True(t, plan.Active)

	rule, err := svc.AddRule(ctx, orgID, uuid.MustParse(plan.ID), percentageRuleReq(5))
	require.NoError(t, err)
	assert.Equal(t, "PERCENTAGE", rule.Type)
	assert.True(t, rule.Active)

	got, err := svc.GetPlan(ctx, orgID, uuid.MustParse(plan.ID))
	require.NoError(t, err)
	assert.Equal(t, "Standard commissions", got.Name)
}

func TestAddRuleRejectsMalformedTiers(t *testing.T) {
	svc, _, orgID := buildPlanSvc()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, orgID, dto.CreatePlanRequest{Name: "Tiered", CommissionBasis: "NET"})
	require.NoError(t, err)
	planID := uuid.MustParse(plan.ID)

	hundred := decimal.NewFromInt(100)
	fifty := decimal.NewFromInt(50)

	_, err = svc.AddRule(ctx, orgID, planID, dto.CreateRuleRequest{
		Type:     "TIERED",
		Scope:    "GLOBAL",
		Priority: "DEFAULT",
		Tiers: []dto.TierBand{
			{UpTo: &hundred, Rate: decimal.NewFromInt(5)},
			{UpTo: &fifty, Rate: decimal.NewFromInt(7)}, // bounds go backwards
		},
	})
	require.ErrorIs(t, err, engine.ErrInvalidRule)

	_, err = svc.AddRule(ctx, orgID, planID, dto.CreateRuleRequest{
		Type:     "TIERED",
		Scope:    "GLOBAL",
		Priority: "DEFAULT",
	})
	require.ErrorIs(t, err, engine.ErrInvalidRule, "tiered rule needs at least one band")
}

func TestAddRuleRejectsScopeWithoutOperand(t *testing.T) {
	svc, _, orgID := buildPlanSvc()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, orgID, dto.CreatePlanRequest{Name: "Scoped", CommissionBasis: "GROSS"})
	require.NoError(t, err)

	_, err = svc.AddRule(ctx, orgID, uuid.MustParse(plan.ID), dto.CreateRuleRequest{
		Type:       "PERCENTAGE",
		Scope:      "CUSTOMER_TIER", // no tier named
		Priority:   "CUSTOMER_TIER",
		Percentage: decimal.NewFromInt(5),
	})
	require.ErrorIs(t, err, engine.ErrInvalidRule)
}

func TestAddRuleRejectsAmbiguousDuplicate(t *testing.T) {
	svc, _, orgID := buildPlanSvc()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, orgID, dto.CreatePlanRequest{Name: "Dup", CommissionBasis: "GROSS"})
	require.NoError(t, err)
	planID := uuid.MustParse(plan.ID)

	_, err = svc.AddRule(ctx, orgID, planID, percentageRuleReq(5))
	require.NoError(t, err)

	_, err = svc.AddRule(ctx, orgID, planID, percentageRuleReq(7))
	require.ErrorIs(t, err, engine.ErrInvalidRule,
		"a second active rule with the same priority, scope and operand is ambiguous")
}

func TestAddRuleAllowedAfterDeactivatingConflict(t *testing.T) {
	svc, _, orgID := buildPlanSvc()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, orgID, dto.CreatePlanRequest{Name: "Replace", CommissionBasis: "GROSS"})
	require.NoError(t, err)
	planID := uuid.MustParse(plan.ID)

	old, err := svc.AddRule(ctx, orgID, planID, percentageRuleReq(5))
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateRule(ctx, orgID, uuid.MustParse(old.ID)))

	_, err = svc.AddRule(ctx, orgID, planID, percentageRuleReq(7))
	assert.NoError(t, err, "the deactivated rule no longer blocks the slot")
}

func TestAddRuleRefusedOnInactivePlan(t *testing.T) {
	svc, _, orgID := buildPlanSvc()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, orgID, dto.CreatePlanRequest{Name: "Retired", CommissionBasis: "GROSS"})
	require.NoError(t, err)
	planID := uuid.MustParse(plan.ID)
	require.NoError(t, svc.DeactivatePlan(ctx, orgID, planID))

	_, err = svc.AddRule(ctx, orgID, planID, percentageRuleReq(5))
	assert.Error(t, err)
}

func TestUpdatePlanBasis(t *testing.T) {
	svc, repo, orgID := buildPlanSvc()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, orgID, dto.CreatePlanRequest{Name: "Basis", CommissionBasis: "GROSS"})
	require.NoError(t, err)
	planID := uuid.MustParse(plan.ID)

	net := "NET"
	updated, err := svc.UpdatePlan(ctx, orgID, planID, dto.UpdatePlanRequest{CommissionBasis: &net})
	require.NoError(t, err)
	assert.Equal(t, "NET", updated.CommissionBasis)

	stored, err := repo.FindPlanByID(ctx, orgID, planID)
	require.NoError(t, err)
	assert.Equal(t, "NET", stored.CommissionBasis)
}

func TestPlanLookupsAreTenantScoped(t *testing.T) {
	svc, _, orgID := buildPlanSvc()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, orgID, dto.CreatePlanRequest{Name: "Mine", CommissionBasis: "GROSS"})
	require.NoError(t, err)

	_, err = svc.GetPlan(ctx, uuid.New(), uuid.MustParse(plan.ID))
	assert.Error(t, err)
}
