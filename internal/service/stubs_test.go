package service_test

import (
	"context"
	"time"

	"commissionflow/internal/dto"
	"commissionflow/internal/model"
	"commissionflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ─── Calculation repository stub ─────────────────────────────────────────────

// stubCalcRepo is an in-memory CalculationRepository. It replicates the
// version checks of the real repository so the optimistic-concurrency
// paths behave the same.
type stubCalcRepo struct {
	calcs map[uuid.UUID]*model.CommissionCalculation
}

var _ repository.CalculationRepository = (*stubCalcRepo)(nil)

func newStubCalcRepo() *stubCalcRepo {
	return &stubCalcRepo{calcs: make(map[uuid.UUID]*model.CommissionCalculation)}
}

func (s *stubCalcRepo) DB() *gorm.DB { return nil }

func (s *stubCalcRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.CommissionCalculation, error) {
	c, ok := s.calcs[id]
	if !ok || c.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *stubCalcRepo) FindByTransactionAndPlan(_ context.Context, orgID, txID, planID uuid.UUID) (*model.CommissionCalculation, error) {
	for _, c := range s.calcs {
		if c.OrganizationID == orgID && c.TransactionID == txID && c.PlanID == planID {
			clone := *c
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCalcRepo) Create(_ context.Context, c *model.CommissionCalculation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	clone := *c
	s.calcs[c.ID] = &clone
	return nil
}

func (s *stubCalcRepo) OverwriteAmount(_ context.Context, c *model.CommissionCalculation, ruleID uuid.UUID, amount decimal.Decimal, trace []byte, calculatedAt time.Time) error {
	stored, ok := s.calcs[c.ID]
	if !ok || stored.Version != c.Version {
		return repository.ErrVersionConflict
	}
	stored.RuleID = ruleID
	stored.Amount = amount
	stored.Trace = trace
	stored.CalculatedAt = calculatedAt
	stored.Version++
	c.RuleID = ruleID
	c.Amount = amount
	c.Trace = trace
	c.CalculatedAt = calculatedAt
	c.Version++
	return nil
}

func (s *stubCalcRepo) UpdateStatus(_ context.Context, orgID, id uuid.UUID, fromVersion int, status string) error {
	stored, ok := s.calcs[id]
	if !ok || stored.OrganizationID != orgID || stored.Version != fromVersion {
		return repository.ErrVersionConflict
	}
	stored.Status = status
	stored.Version = fromVersion + 1
	return nil
}

func (s *stubCalcRepo) List(_ context.Context, orgID uuid.UUID, filter dto.CalculationFilter) ([]model.CommissionCalculation, int64, error) {
	var out []model.CommissionCalculation
	for _, c := range s.calcs {
		if c.OrganizationID != orgID {
			continue
		}
		if filter.Status != "" && filter.Status != "all" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (s *stubCalcRepo) ListByTransaction(_ context.Context, orgID, txID uuid.UUID) ([]model.CommissionCalculation, error) {
	var out []model.CommissionCalculation
	for _, c := range s.calcs {
		if c.OrganizationID == orgID && c.TransactionID == txID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubCalcRepo) CountByTransaction(_ context.Context, orgID, txID uuid.UUID) (int64, error) {
	var n int64
	for _, c := range s.calcs {
		if c.OrganizationID == orgID && c.TransactionID == txID {
			n++
		}
	}
	return n, nil
}

func (s *stubCalcRepo) DeletePendingByTransaction(_ context.Context, orgID, txID uuid.UUID, keepPlanIDs []uuid.UUID) error {
	keep := make(map[uuid.UUID]bool, len(keepPlanIDs))
	for _, id := range keepPlanIDs {
		keep[id] = true
	}
	for id, c := range s.calcs {
		if c.OrganizationID == orgID && c.TransactionID == txID &&
			c.Status == model.CalcStatusPending && !keep[c.PlanID] {
			delete(s.calcs, id)
		}
	}
	return nil
}

func (s *stubCalcRepo) CreateAdjustment(_ context.Context, a *model.CommissionAdjustment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	stored, ok := s.calcs[a.CalculationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Adjustments = append(stored.Adjustments, *a)
	return nil
}

func (s *stubCalcRepo) SummarizeByStatus(_ context.Context, orgID uuid.UUID) ([]repository.StatusSummary, error) {
	agg := make(map[string]*repository.StatusSummary)
	for _, c := range s.calcs {
		if c.OrganizationID != orgID {
			continue
		}
		row, ok := agg[c.Status]
		if !ok {
			row = &repository.StatusSummary{Status: c.Status}
			agg[c.Status] = row
		}
		row.Amount = row.Amount.Add(c.Amount)
		row.Count++
	}
	out := make([]repository.StatusSummary, 0, len(agg))
	for _, row := range agg {
		out = append(out, *row)
	}
	return out, nil
}

func (s *stubCalcRepo) ListApprovedInPeriod(_ context.Context, orgID uuid.UUID, start, end time.Time) ([]model.CommissionCalculation, error) {
	var out []model.CommissionCalculation
	for _, c := range s.calcs {
		if c.OrganizationID != orgID || c.Status != model.CalcStatusApproved || c.PayoutRunID != nil {
			continue
		}
		if c.Transaction == nil {
			continue
		}
		d := c.Transaction.Date
		if d.Before(start) || !d.Before(end) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubCalcRepo) AssignToPayoutRun(_ context.Context, _ *gorm.DB, orgID, runID uuid.UUID, calcIDs []uuid.UUID) error {
	for _, id := range calcIDs {
		stored, ok := s.calcs[id]
		if !ok || stored.OrganizationID != orgID {
			return gorm.ErrRecordNotFound
		}
		rid := runID
		stored.PayoutRunID = &rid
		stored.Status = model.CalcStatusPaid
		stored.Version++
	}
	return nil
}

// ─── Transaction repository stub ─────────────────────────────────────────────

type stubTxRepo struct {
	txs map[uuid.UUID]*model.SalesTransaction
	// uncalculated is the backfill work list, set explicitly by tests.
	uncalculated []uuid.UUID
}

var _ repository.TransactionRepository = (*stubTxRepo)(nil)

func newStubTxRepo() *stubTxRepo {
	return &stubTxRepo{txs: make(map[uuid.UUID]*model.SalesTransaction)}
}

func (s *stubTxRepo) DB() *gorm.DB { return nil }

func (s *stubTxRepo) Create(_ context.Context, t *model.SalesTransaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	clone := *t
	s.txs[t.ID] = &clone
	return nil
}

func (s *stubTxRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.SalesTransaction, error) {
	t, ok := s.txs[id]
	if !ok || t.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *stubTxRepo) List(_ context.Context, orgID uuid.UUID, _ dto.TransactionFilter) ([]model.SalesTransaction, int64, error) {
	var out []model.SalesTransaction
	for _, t := range s.txs {
		if t.OrganizationID == orgID {
			out = append(out, *t)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubTxRepo) ListUncalculated(_ context.Context, orgID uuid.UUID, limit int) ([]model.SalesTransaction, error) {
	var out []model.SalesTransaction
	for _, id := range s.uncalculated {
		if len(out) >= limit {
			break
		}
		if t, ok := s.txs[id]; ok && t.OrganizationID == orgID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *stubTxRepo) CountUncalculated(_ context.Context, orgID uuid.UUID) (int64, error) {
	var n int64
	for _, id := range s.uncalculated {
		if t, ok := s.txs[id]; ok && t.OrganizationID == orgID {
			n++
		}
	}
	return n, nil
}

func (s *stubTxRepo) ListByPlanScope(_ context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.SalesTransaction, error) {
	var out []model.SalesTransaction
	for _, t := range s.txs {
		if t.OrganizationID != orgID {
			continue
		}
		if projectID != nil && (t.ProjectID == nil || *t.ProjectID != *projectID) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

// ─── Plan repository stub ────────────────────────────────────────────────────

type stubPlanRepo struct {
	plans map[uuid.UUID]*model.CommissionPlan
	rules map[uuid.UUID]*model.CommissionRule
}

var _ repository.PlanRepository = (*stubPlanRepo)(nil)

func newStubPlanRepo() *stubPlanRepo {
	return &stubPlanRepo{
		plans: make(map[uuid.UUID]*model.CommissionPlan),
		rules: make(map[uuid.UUID]*model.CommissionRule),
	}
}

func (s *stubPlanRepo) CreatePlan(_ context.Context, p *model.CommissionPlan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	clone := *p
	s.plans[p.ID] = &clone
	return nil
}

func (s *stubPlanRepo) FindPlanByID(_ context.Context, orgID, id uuid.UUID) (*model.CommissionPlan, error) {
	p, ok := s.plans[id]
	if !ok || p.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *stubPlanRepo) ListPlans(_ context.Context, orgID uuid.UUID) ([]model.CommissionPlan, error) {
	var out []model.CommissionPlan
	for _, p := range s.plans {
		if p.OrganizationID == orgID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubPlanRepo) UpdatePlan(_ context.Context, p *model.CommissionPlan) error {
	clone := *p
	s.plans[p.ID] = &clone
	return nil
}

func (s *stubPlanRepo) SetPlanActive(_ context.Context, orgID, id uuid.UUID, active bool) error {
	p, ok := s.plans[id]
	if !ok || p.OrganizationID != orgID {
		return gorm.ErrRecordNotFound
	}
	p.Active = active
	return nil
}

func (s *stubPlanRepo) CreateRule(_ context.Context, r *model.CommissionRule) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now()
	clone := *r
	s.rules[r.ID] = &clone
	return nil
}

func (s *stubPlanRepo) FindRuleByID(_ context.Context, orgID, id uuid.UUID) (*model.CommissionRule, error) {
	r, ok := s.rules[id]
	if !ok || r.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *r
	return &clone, nil
}

func (s *stubPlanRepo) ListRulesByPlan(_ context.Context, orgID, planID uuid.UUID) ([]model.CommissionRule, error) {
	var out []model.CommissionRule
	for _, r := range s.rules {
		if r.OrganizationID == orgID && r.PlanID == planID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubPlanRepo) SetRuleActive(_ context.Context, orgID, id uuid.UUID, active bool) error {
	r, ok := s.rules[id]
	if !ok || r.OrganizationID != orgID {
		return gorm.ErrRecordNotFound
	}
	r.Active = active
	return nil
}

func (s *stubPlanRepo) ListActiveCandidateRules(_ context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.CommissionRule, error) {
	var out []model.CommissionRule
	for _, r := range s.rules {
		if r.OrganizationID != orgID || !r.Active {
			continue
		}
		plan, ok := s.plans[r.PlanID]
		if !ok || !plan.Active {
			continue
		}
		if plan.ProjectID != nil {
			if projectID == nil || *plan.ProjectID != *projectID {
				continue
			}
		}
		clone := *r
		planClone := *plan
		clone.Plan = &planClone
		out = append(out, clone)
	}
	return out, nil
}

// ─── Payout repository stub ──────────────────────────────────────────────────

type stubPayoutRepo struct {
	runs map[uuid.UUID]*model.PayoutRun
}

var _ repository.PayoutRepository = (*stubPayoutRepo)(nil)

func newStubPayoutRepo() *stubPayoutRepo {
	return &stubPayoutRepo{runs: make(map[uuid.UUID]*model.PayoutRun)}
}

func (s *stubPayoutRepo) DB() *gorm.DB { return nil }

func (s *stubPayoutRepo) Create(_ context.Context, _ *gorm.DB, run *model.PayoutRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.CreatedAt = time.Now()
	clone := *run
	s.runs[run.ID] = &clone
	return nil
}

func (s *stubPayoutRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.PayoutRun, error) {
	r, ok := s.runs[id]
	if !ok || r.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *r
	return &clone, nil
}

func (s *stubPayoutRepo) List(_ context.Context, orgID uuid.UUID) ([]model.PayoutRun, error) {
	var out []model.PayoutRun
	for _, r := range s.runs {
		if r.OrganizationID == orgID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubPayoutRepo) Complete(_ context.Context, _ *gorm.DB, id uuid.UUID, completedAt time.Time) error {
	r, ok := s.runs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.Status = "completed"
	ts := completedAt
	r.CompletedAt = &ts
	return nil
}
