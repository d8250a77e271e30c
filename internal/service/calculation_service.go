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

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type CalculationService interface {
	// CalculateForTransaction evaluates all active plans against one
	// transaction and upserts one calculation row per matching plan.
	// Idempotent: re-running overwrites amount and trace, preserves row
	// identity and status.
	CalculateForTransaction(ctx context.Context, orgID, txID uuid.UUID) ([]dto.CalculationResponse, error)
	// RecalculatePlan re-evaluates every transaction a plan could apply
	// to. Invoked by the recalc worker after rule edits.
	RecalculatePlan(ctx context.Context, orgID, planID uuid.UUID) (int, error)
	// BackfillMissing evaluates SALE transactions that have no
	// calculation yet, surfacing how many still matched nothing.
	BackfillMissing(ctx context.Context, orgID uuid.UUID) (*dto.BackfillResponse, error)
	List(ctx context.Context, orgID uuid.UUID, filter dto.CalculationFilter) (*dto.CalculationListResponse, error)
	ListByTransaction(ctx context.Context, orgID, txID uuid.UUID) ([]dto.CalculationResponse, error)
	Explain(ctx context.Context, orgID, calcID uuid.UUID) (*dto.TraceResponse, error)
}

type calculationService struct {
	calcRepo repository.CalculationRepository
	txRepo   repository.TransactionRepository
	planRepo repository.PlanRepository
}

func NewCalculationService(
	calcRepo repository.CalculationRepository,
	txRepo repository.TransactionRepository,
	planRepo repository.PlanRepository,
) CalculationService {
	return &calculationService{calcRepo: calcRepo, txRepo: txRepo, planRepo: planRepo}
}

const backfillBatchSize = 500

// ── CalculateForTransaction ──────────────────────────────────────────────────

func (s *calculationService) CalculateForTransaction(ctx context.Context, orgID, txID uuid.UUID) ([]dto.CalculationResponse, error) {
	tx, err := s.txRepo.FindByID(ctx, orgID, txID)
	if err != nil {
		return nil, errors.New("transaction not found")
	}

	result, err := s.evaluate(ctx, orgID, tx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	keepPlans := make([]uuid.UUID, 0, len(result.Calculations))
	responses := make([]dto.CalculationResponse, 0, len(result.Calculations))

	for _, pc := range result.Calculations {
		traceJSON, err := json.Marshal(pc.Trace)
		if err != nil {
			return nil, fmt.Errorf("marshal trace: %w", err)
		}
		keepPlans = append(keepPlans, pc.PlanID)

		existing, findErr := s.calcRepo.FindByTransactionAndPlan(ctx, orgID, tx.ID, pc.PlanID)
		if findErr == nil {
			if err := s.calcRepo.OverwriteAmount(ctx, existing, pc.Selected.RuleID, pc.FinalAmount, traceJSON, now); err != nil {
				return nil, err
			}
			responses = append(responses, calcToResponse(existing))
			continue
		}

		calc := &model.CommissionCalculation{
			OrganizationID: orgID,
			TransactionID:  tx.ID,
			PlanID:         pc.PlanID,
			RuleID:         pc.Selected.RuleID,
			Amount:         pc.FinalAmount,
			Status:         model.CalcStatusPending,
			Trace:          traceJSON,
			CalculatedAt:   now,
			Version:        1,
		}
		if err := s.calcRepo.Create(ctx, calc); err != nil {
			return nil, err
		}
		responses = append(responses, calcToResponse(calc))
	}

	// Plans that stopped matching leave stale pending rows behind;
	// approved/paid rows are kept for the audit trail.
	if err := s.calcRepo.DeletePendingByTransaction(ctx, orgID, tx.ID, keepPlans); err != nil {
		return nil, err
	}

	if !result.Matched() {
		log.Info().
			Str("transaction_id", tx.ID.String()).
			Msg("no commission rule matched — flagged for manual review")
	}
	return responses, nil
}

// evaluate loads candidate rules, converts them, and runs the engine.
func (s *calculationService) evaluate(ctx context.Context, orgID uuid.UUID, tx *model.SalesTransaction) (*engine.Result, error) {
	rules, err := s.planRepo.ListActiveCandidateRules(ctx, orgID, tx.ProjectID)
	if err != nil {
		return nil, err
	}

	candidates := make([]engine.Rule, 0, len(rules))
	for i := range rules {
		er, err := toEngineRule(&rules[i])
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, er)
	}

	return engine.Evaluate(toEngineTransaction(tx), resolveContext(tx), candidates)
}

// ── RecalculatePlan ──────────────────────────────────────────────────────────

func (s *calculationService) RecalculatePlan(ctx context.Context, orgID, planID uuid.UUID) (int, error) {
	plan, err := s.planRepo.FindPlanByID(ctx, orgID, planID)
	if err != nil {
		return 0, errors.New("plan not found")
	}

	txs, err := s.txRepo.ListByPlanScope(ctx, orgID, plan.ProjectID)
	if err != nil {
		return 0, err
	}

	recalculated := 0
	for i := range txs {
		if _, err := s.CalculateForTransaction(ctx, orgID, txs[i].ID); err != nil {
			if errors.Is(err, engine.ErrInvalidRule) {
				return recalculated, err // config error affects every transaction — stop
			}
			log.Error().Err(err).
				Str("transaction_id", txs[i].ID.String()).
				Msg("recalculation failed, continuing with remaining transactions")
			continue
		}
		recalculated++
	}
	return recalculated, nil
}

// ── BackfillMissing ──────────────────────────────────────────────────────────

func (s *calculationService) BackfillMissing(ctx context.Context, orgID uuid.UUID) (*dto.BackfillResponse, error) {
	txs, err := s.txRepo.ListUncalculated(ctx, orgID, backfillBatchSize)
	if err != nil {
		return nil, err
	}

	resp := &dto.BackfillResponse{Scanned: len(txs)}
	for i := range txs {
		calcs, err := s.CalculateForTransaction(ctx, orgID, txs[i].ID)
		if err != nil {
			return resp, err
		}
		if len(calcs) > 0 {
			resp.Calculated++
		} else {
			resp.Unmatched++
		}
	}
	return resp, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *calculationService) List(ctx context.Context, orgID uuid.UUID, filter dto.CalculationFilter) (*dto.CalculationListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	calcs, total, err := s.calcRepo.List(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CalculationResponse, 0, len(calcs))
	for i := range calcs {
		items = append(items, calcToResponse(&calcs[i]))
	}
	return &dto.CalculationListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *calculationService) ListByTransaction(ctx context.Context, orgID, txID uuid.UUID) ([]dto.CalculationResponse, error) {
	calcs, err := s.calcRepo.ListByTransaction(ctx, orgID, txID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CalculationResponse, 0, len(calcs))
	for i := range calcs {
		items = append(items, calcToResponse(&calcs[i]))
	}
	return items, nil
}

func (s *calculationService) Explain(ctx context.Context, orgID, calcID uuid.UUID) (*dto.TraceResponse, error) {
	calc, err := s.calcRepo.FindByID(ctx, orgID, calcID)
	if err != nil {
		return nil, errors.New("calculation not found")
	}
	return &dto.TraceResponse{
		CalculationID: calc.ID.String(),
		Trace:         json.RawMessage(calc.Trace),
	}, nil
}

func calcToResponse(c *model.CommissionCalculation) dto.CalculationResponse {
	adjustments := make([]dto.AdjustmentResponse, 0, len(c.Adjustments))
	for _, a := range c.Adjustments {
		adjustments = append(adjustments, dto.AdjustmentResponse{
			ID:        a.ID.String(),
			Delta:     a.Delta,
			Reason:    a.Reason,
			AppliedBy: a.AppliedByID.String(),
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	planName := ""
	if c.Plan != nil {
		planName = c.Plan.Name
	}
	return dto.CalculationResponse{
		ID:            c.ID.String(),
		TransactionID: c.TransactionID.String(),
		PlanID:        c.PlanID.String(),
		PlanName:      planName,
		RuleID:        c.RuleID.String(),
		Amount:        c.Amount,
		NetAmount:     c.NetAmount(),
		Status:        c.Status,
		Version:       c.Version,
		CalculatedAt:  c.CalculatedAt.Format(time.RFC3339),
		Adjustments:   adjustments,
	}
}
