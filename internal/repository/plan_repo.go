package repository

import (
	"context"

	"commissionflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlanRepository interface {
	CreatePlan(ctx context.Context, p *model.CommissionPlan) error
	FindPlanByID(ctx context.Context, orgID, id uuid.UUID) (*model.CommissionPlan, error)
	ListPlans(ctx context.Context, orgID uuid.UUID) ([]model.CommissionPlan, error)
	UpdatePlan(ctx context.Context, p *model.CommissionPlan) error
	SetPlanActive(ctx context.Context, orgID, id uuid.UUID, active bool) error

	CreateRule(ctx context.Context, r *model.CommissionRule) error
	FindRuleByID(ctx context.Context, orgID, id uuid.UUID) (*model.CommissionRule, error)
	ListRulesByPlan(ctx context.Context, orgID, planID uuid.UUID) ([]model.CommissionRule, error)
	SetRuleActive(ctx context.Context, orgID, id uuid.UUID, active bool) error

	// ListActiveCandidateRules loads the active rules of all active plans
	// applicable to a transaction: organization-wide plans plus, when the
	// transaction belongs to a project, plans scoped to that project.
	ListActiveCandidateRules(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.CommissionRule, error)
}

type planRepo struct{ db *gorm.DB }

func NewPlanRepository(db *gorm.DB) PlanRepository { return &planRepo{db: db} }

func (r *planRepo) CreatePlan(ctx context.Context, p *model.CommissionPlan) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *planRepo) FindPlanByID(ctx context.Context, orgID, id uuid.UUID) (*model.CommissionPlan, error) {
	var p model.CommissionPlan
	err := r.db.WithContext(ctx).Preload("Rules").
		Where("organization_id = ? AND id = ?", orgID, id).First(&p).Error
	return &p, err
}

func (r *planRepo) ListPlans(ctx context.Context, orgID uuid.UUID) ([]model.CommissionPlan, error) {
	var plans []model.CommissionPlan
	err := r.db.WithContext(ctx).Preload("Rules").
		Where("organization_id = ?", orgID).Order("created_at").Find(&plans).Error
	return plans, err
}

func (r *planRepo) UpdatePlan(ctx context.Context, p *model.CommissionPlan) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *planRepo) SetPlanActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.CommissionPlan{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("active", active).Error
}

func (r *planRepo) CreateRule(ctx context.Context, rule *model.CommissionRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *planRepo) FindRuleByID(ctx context.Context, orgID, id uuid.UUID) (*model.CommissionRule, error) {
	var rule model.CommissionRule
	err := r.db.WithContext(ctx).Preload("Plan").
		Where("organization_id = ? AND id = ?", orgID, id).First(&rule).Error
	return &rule, err
}

func (r *planRepo) ListRulesByPlan(ctx context.Context, orgID, planID uuid.UUID) ([]model.CommissionRule, error) {
	var rules []model.CommissionRule
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND plan_id = ?", orgID, planID).
		Order("created_at").Find(&rules).Error
	return rules, err
}

func (r *planRepo) SetRuleActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.CommissionRule{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("active", active).Error
}

func (r *planRepo) ListActiveCandidateRules(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.CommissionRule, error) {
	var rules []model.CommissionRule
	q := r.db.WithContext(ctx).Preload("Plan").
		Joins("JOIN commission_plans p ON p.id = commission_rules.plan_id").
		Where("commission_rules.organization_id = ? AND commission_rules.active = true AND p.active = true", orgID)
	if projectID != nil {
		q = q.Where("p.project_id IS NULL OR p.project_id = ?", *projectID)
	} else {
		q = q.Where("p.project_id IS NULL")
	}
	err := q.Order("commission_rules.created_at").Find(&rules).Error
	return rules, err
}
