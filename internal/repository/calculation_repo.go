package repository

import (
	"context"
	"errors"
	"time"

	"commissionflow/internal/dto"
	"commissionflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an optimistic-concurrency write
// finds the row's version already moved past the caller's.
var ErrVersionConflict = errors.New("calculation was modified concurrently")

// StatusSummary is one row of the per-status aggregate.
type StatusSummary struct {
	Status string
	Amount decimal.Decimal
	Count  int64
}

type CalculationRepository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.CommissionCalculation, error)
	FindByTransactionAndPlan(ctx context.Context, orgID, txID, planID uuid.UUID) (*model.CommissionCalculation, error)
	Create(ctx context.Context, c *model.CommissionCalculation) error
	// OverwriteAmount replaces amount and trace of an existing calculation,
	// preserving its identity and status and bumping Version. Fails with
	// ErrVersionConflict when the row changed since it was read.
	OverwriteAmount(ctx context.Context, c *model.CommissionCalculation, ruleID uuid.UUID, amount decimal.Decimal, trace []byte, calculatedAt time.Time) error
	// UpdateStatus transitions a calculation's status guarded by the
	// caller's last-seen version.
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, fromVersion int, status string) error
	List(ctx context.Context, orgID uuid.UUID, filter dto.CalculationFilter) ([]model.CommissionCalculation, int64, error)
	ListByTransaction(ctx context.Context, orgID, txID uuid.UUID) ([]model.CommissionCalculation, error)
	CountByTransaction(ctx context.Context, orgID, txID uuid.UUID) (int64, error)
	DeletePendingByTransaction(ctx context.Context, orgID, txID uuid.UUID, keepPlanIDs []uuid.UUID) error

	CreateAdjustment(ctx context.Context, a *model.CommissionAdjustment) error

	SummarizeByStatus(ctx context.Context, orgID uuid.UUID) ([]StatusSummary, error)
	// ListApprovedInPeriod returns approved, unassigned calculations whose
	// transaction date falls in [start, end) — the payout-run work set.
	// The caller passes an exclusive upper bound.
	ListApprovedInPeriod(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]model.CommissionCalculation, error)
	AssignToPayoutRun(ctx context.Context, tx *gorm.DB, orgID, runID uuid.UUID, calcIDs []uuid.UUID) error
	DB() *gorm.DB
}

type calculationRepo struct{ db *gorm.DB }

func NewCalculationRepository(db *gorm.DB) CalculationRepository { return &calculationRepo{db: db} }

func (r *calculationRepo) DB() *gorm.DB { return r.db }

func (r *calculationRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.CommissionCalculation, error) {
	var c model.CommissionCalculation
	err := r.db.WithContext(ctx).Preload("Adjustments").Preload("Plan").
		Where("organization_id = ? AND id = ?", orgID, id).First(&c).Error
	return &c, err
}

func (r *calculationRepo) FindByTransactionAndPlan(ctx context.Context, orgID, txID, planID uuid.UUID) (*model.CommissionCalculation, error) {
	var c model.CommissionCalculation
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND transaction_id = ? AND plan_id = ?", orgID, txID, planID).
		First(&c).Error
	return &c, err
}

func (r *calculationRepo) Create(ctx context.Context, c *model.CommissionCalculation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *calculationRepo) OverwriteAmount(ctx context.Context, c *model.CommissionCalculation, ruleID uuid.UUID, amount decimal.Decimal, trace []byte, calculatedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.CommissionCalculation{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]interface{}{
			"rule_id":       ruleID,
			"amount":        amount,
			"trace":         trace,
			"calculated_at": calculatedAt,
			"version":       c.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	c.RuleID = ruleID
	c.Amount = amount
	c.Trace = trace
	c.CalculatedAt = calculatedAt
	c.Version++
	return nil
}

func (r *calculationRepo) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, fromVersion int, status string) error {
	res := r.db.WithContext(ctx).Model(&model.CommissionCalculation{}).
		Where("organization_id = ? AND id = ? AND version = ?", orgID, id, fromVersion).
		Updates(map[string]interface{}{
			"status":  status,
			"version": fromVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *calculationRepo) List(ctx context.Context, orgID uuid.UUID, filter dto.CalculationFilter) ([]model.CommissionCalculation, int64, error) {
	var calcs []model.CommissionCalculation
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.CommissionCalculation{}).
		Where("commission_calculations.organization_id = ?", orgID)

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PlanID != "" {
		q = q.Where("plan_id = ?", filter.PlanID)
	}
	if filter.From != "" || filter.To != "" {
		q = q.Joins("JOIN sales_transactions st ON st.id = commission_calculations.transaction_id")
		if from, err := time.Parse("2006-01-02", filter.From); filter.From != "" && err == nil {
			q = q.Where("st.date >= ?", from)
		}
		if to, err := time.Parse("2006-01-02", filter.To); filter.To != "" && err == nil {
			q = q.Where("st.date <= ?", to)
		}
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Adjustments").Preload("Plan").
		Order("commission_calculations.calculated_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&calcs).Error

	return calcs, total, err
}

func (r *calculationRepo) ListByTransaction(ctx context.Context, orgID, txID uuid.UUID) ([]model.CommissionCalculation, error) {
	var calcs []model.CommissionCalculation
	err := r.db.WithContext(ctx).Preload("Adjustments").Preload("Plan").
		Where("organization_id = ? AND transaction_id = ?", orgID, txID).
		Order("plan_id").Find(&calcs).Error
	return calcs, err
}

func (r *calculationRepo) CountByTransaction(ctx context.Context, orgID, txID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CommissionCalculation{}).
		Where("organization_id = ? AND transaction_id = ?", orgID, txID).Count(&n).Error
	return n, err
}

// DeletePendingByTransaction removes pending calculations whose plan no
// longer matched on recalculation. Approved/paid rows are never deleted.
func (r *calculationRepo) DeletePendingByTransaction(ctx context.Context, orgID, txID uuid.UUID, keepPlanIDs []uuid.UUID) error {
	q := r.db.WithContext(ctx).
		Where("organization_id = ? AND transaction_id = ? AND status = ?", orgID, txID, model.CalcStatusPending)
	if len(keepPlanIDs) > 0 {
		q = q.Where("plan_id NOT IN ?", keepPlanIDs)
	}
	return q.Delete(&model.CommissionCalculation{}).Error
}

func (r *calculationRepo) CreateAdjustment(ctx context.Context, a *model.CommissionAdjustment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *calculationRepo) SummarizeByStatus(ctx context.Context, orgID uuid.UUID) ([]StatusSummary, error) {
	var rows []StatusSummary
	err := r.db.WithContext(ctx).Model(&model.CommissionCalculation{}).
		Select("status, COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count").
		Where("organization_id = ?", orgID).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *calculationRepo) ListApprovedInPeriod(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]model.CommissionCalculation, error) {
	var calcs []model.CommissionCalculation
	err := r.db.WithContext(ctx).Preload("Adjustments").
		Joins("JOIN sales_transactions st ON st.id = commission_calculations.transaction_id").
		Where("commission_calculations.organization_id = ? AND status = ? AND payout_run_id IS NULL", orgID, model.CalcStatusApproved).
		Where("st.date >= ? AND st.date < ?", start, end).
		Order("st.date, commission_calculations.id").
		Find(&calcs).Error
	return calcs, err
}

func (r *calculationRepo) AssignToPayoutRun(ctx context.Context, tx *gorm.DB, orgID, runID uuid.UUID, calcIDs []uuid.UUID) error {
	return tx.WithContext(ctx).Model(&model.CommissionCalculation{}).
		Where("organization_id = ? AND id IN ?", orgID, calcIDs).
		Updates(map[string]interface{}{
			"payout_run_id": runID,
			"status":        model.CalcStatusPaid,
		}).Error
}
