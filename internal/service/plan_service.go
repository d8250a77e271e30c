package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"commissionflow/internal/dto"
	"commissionflow/internal/engine"
	"commissionflow/internal/model"
	"commissionflow/internal/repository"
	"commissionflow/internal/worker"

	"github.com/google/uuid"
)

type PlanService interface {
	CreatePlan(ctx context.Context, orgID uuid.UUID, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, orgID, id uuid.UUID) (*dto.PlanResponse, error)
	ListPlans(ctx context.Context, orgID uuid.UUID) ([]dto.PlanResponse, error)
	UpdatePlan(ctx context.Context, orgID, id uuid.UUID, req dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	DeactivatePlan(ctx context.Context, orgID, id uuid.UUID) error

	AddRule(ctx context.Context, orgID, planID uuid.UUID, req dto.CreateRuleRequest) (*dto.RuleResponse, error)
	DeactivateRule(ctx context.Context, orgID, ruleID uuid.UUID) error
}

type planService struct {
	repo       repository.PlanRepository
	dispatcher *worker.Dispatcher
}

func NewPlanService(repo repository.PlanRepository, dispatcher *worker.Dispatcher) PlanService {
	return &planService{repo: repo, dispatcher: dispatcher}
}

// ── Plans ────────────────────────────────────────────────────────────────────

func (s *planService) CreatePlan(ctx context.Context, orgID uuid.UUID, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	plan := &model.CommissionPlan{
		OrganizationID:  orgID,
		Name:            req.Name,
		Description:     req.Description,
		CommissionBasis: req.CommissionBasis,
		Active:          true,
	}
	if req.ProjectID != nil {
		pid, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("invalid project_id: %w", err)
		}
		plan.ProjectID = &pid
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	resp := planToResponse(plan)
	return &resp, nil
}

func (s *planService) GetPlan(ctx context.Context, orgID, id uuid.UUID) (*dto.PlanResponse, error) {
	plan, err := s.repo.FindPlanByID(ctx, orgID, id)
	if err != nil {
		return nil, errors.New("plan not found")
	}
	resp := planToResponse(plan)
	return &resp, nil
}

func (s *planService) ListPlans(ctx context.Context, orgID uuid.UUID) ([]dto.PlanResponse, error) {
	plans, err := s.repo.ListPlans(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, planToResponse(&plans[i]))
	}
	return out, nil
}

func (s *planService) UpdatePlan(ctx context.Context, orgID, id uuid.UUID, req dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	plan, err := s.repo.FindPlanByID(ctx, orgID, id)
	if err != nil {
		return nil, errors.New("plan not found")
	}

	basisChanged := false
	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = req.Description
	}
	if req.CommissionBasis != nil && *req.CommissionBasis != plan.CommissionBasis {
		plan.CommissionBasis = *req.CommissionBasis
		basisChanged = true
	}
	if err := s.repo.UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}

	// Changing the basis changes every amount the plan produces.
	if basisChanged {
		s.enqueueRecalc(ctx, orgID, plan.ID)
	}

	resp := planToResponse(plan)
	return &resp, nil
}

// DeactivatePlan stops the plan's rules from matching new calculations.
// Historical calculations keep their plan reference untouched.
func (s *planService) DeactivatePlan(ctx context.Context, orgID, id uuid.UUID) error {
	return s.repo.SetPlanActive(ctx, orgID, id, false)
}

// ── Rules ────────────────────────────────────────────────────────────────────

// AddRule validates at authoring time everything the engine would reject
// at evaluation time, plus ambiguity: two active rules of the same plan
// with identical priority, scope, and scope operand would make selection
// depend on creation order alone, so the configuration is refused here.
func (s *planService) AddRule(ctx context.Context, orgID, planID uuid.UUID, req dto.CreateRuleRequest) (*dto.RuleResponse, error) {
	plan, err := s.repo.FindPlanByID(ctx, orgID, planID)
	if err != nil {
		return nil, errors.New("plan not found")
	}
	if !plan.Active {
		return nil, errors.New("cannot add rules to an inactive plan")
	}

	rule := &model.CommissionRule{
		OrganizationID: orgID,
		PlanID:         plan.ID,
		Type:           req.Type,
		Scope:          req.Scope,
		Priority:       req.Priority,
		Percentage:     req.Percentage,
		FlatAmount:     req.FlatAmount,
		MinSaleAmount:  req.MinSaleAmount,
		MaxSaleAmount:  req.MaxSaleAmount,
		MinAmount:      req.MinAmount,
		MaxAmount:      req.MaxAmount,
		CustomerTier:   req.CustomerTier,
		Active:         true,
	}
	if req.ProjectID != nil {
		pid, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("invalid project_id: %w", err)
		}
		rule.RuleProjectID = &pid
	}
	if len(req.Tiers) > 0 {
		tiers, err := json.Marshal(req.Tiers)
		if err != nil {
			return nil, err
		}
		rule.Tiers = tiers
	}

	// Run the engine's own validation against the prospective rule so a
	// rule that cannot evaluate never reaches the database.
	rule.Plan = plan
	candidate, err := toEngineRule(rule)
	if err != nil {
		return nil, err
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkAmbiguity(ctx, orgID, plan.ID, rule); err != nil {
		return nil, err
	}

	rule.Plan = nil
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	// Existing calculations may now select a different rule.
	s.enqueueRecalc(ctx, orgID, plan.ID)

	resp := ruleToResponse(rule)
	return &resp, nil
}

func (s *planService) checkAmbiguity(ctx context.Context, orgID, planID uuid.UUID, candidate *model.CommissionRule) error {
	existing, err := s.repo.ListRulesByPlan(ctx, orgID, planID)
	if err != nil {
		return err
	}
	for i := range existing {
		r := &existing[i]
		if !r.Active || r.Priority != candidate.Priority || r.Scope != candidate.Scope {
			continue
		}
		sameTier := equalStrPtr(r.CustomerTier, candidate.CustomerTier)
		sameProject := equalUUIDPtr(r.RuleProjectID, candidate.RuleProjectID)
		if sameTier && sameProject {
			return fmt.Errorf("%w: rule duplicates priority %s and scope %s of rule %s; deactivate that rule first or pick a different priority",
				engine.ErrInvalidRule, candidate.Priority, candidate.Scope, r.ID)
		}
	}
	return nil
}

func (s *planService) DeactivateRule(ctx context.Context, orgID, ruleID uuid.UUID) error {
	rule, err := s.repo.FindRuleByID(ctx, orgID, ruleID)
	if err != nil {
		return errors.New("rule not found")
	}
	if err := s.repo.SetRuleActive(ctx, orgID, ruleID, false); err != nil {
		return err
	}
	s.enqueueRecalc(ctx, orgID, rule.PlanID)
	return nil
}

func (s *planService) enqueueRecalc(ctx context.Context, orgID, planID uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.EnqueueRecalc(ctx, worker.RecalcJobPayload{
		OrganizationID: orgID.String(),
		PlanID:         planID.String(),
	})
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalUUIDPtr(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func planToResponse(p *model.CommissionPlan) dto.PlanResponse {
	rules := make([]dto.RuleResponse, 0, len(p.Rules))
	for i := range p.Rules {
		rules = append(rules, ruleToResponse(&p.Rules[i]))
	}
	resp := dto.PlanResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		Description:     p.Description,
		CommissionBasis: p.CommissionBasis,
		Active:          p.Active,
		Rules:           rules,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
	if p.ProjectID != nil {
		id := p.ProjectID.String()
		resp.ProjectID = &id
	}
	return resp
}

func ruleToResponse(r *model.CommissionRule) dto.RuleResponse {
	resp := dto.RuleResponse{
		ID:            r.ID.String(),
		PlanID:        r.PlanID.String(),
		Type:          r.Type,
		Scope:         r.Scope,
		Priority:      r.Priority,
		Percentage:    r.Percentage,
		FlatAmount:    r.FlatAmount,
		MinSaleAmount: r.MinSaleAmount,
		MaxSaleAmount: r.MaxSaleAmount,
		MinAmount:     r.MinAmount,
		MaxAmount:     r.MaxAmount,
		CustomerTier:  r.CustomerTier,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.RuleProjectID != nil {
		id := r.RuleProjectID.String()
		resp.ProjectID = &id
	}
	if len(r.Tiers) > 0 {
		var bands []dto.TierBand
		if json.Unmarshal(r.Tiers, &bands) == nil {
			resp.Tiers = bands
		}
	}
	return resp
}
