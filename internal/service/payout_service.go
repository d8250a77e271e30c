package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commissionflow/internal/dto"
	"commissionflow/internal/model"
	"commissionflow/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatementRenderer turns a completed payout run into a downloadable
// statement document.
type StatementRenderer interface {
	RenderStatement(run *model.PayoutRun) ([]byte, error)
}

type PayoutService interface {
	CreateRun(ctx context.Context, orgID, actorID uuid.UUID, req dto.CreatePayoutRunRequest) (*dto.PayoutRunResponse, error)
	GetRun(ctx context.Context, orgID, id uuid.UUID) (*dto.PayoutRunResponse, error)
	ListRuns(ctx context.Context, orgID uuid.UUID) ([]dto.PayoutRunResponse, error)
	Statement(ctx context.Context, orgID, id uuid.UUID) ([]byte, string, error)
}

type payoutService struct {
	payouts  repository.PayoutRepository
	calcs    repository.CalculationRepository
	renderer StatementRenderer
}

func NewPayoutService(payouts repository.PayoutRepository, calcs repository.CalculationRepository, renderer StatementRenderer) PayoutService {
	return &payoutService{payouts: payouts, calcs: calcs, renderer: renderer}
}

// runTx runs fn inside a database transaction. A nil DB (unit tests with
// stub repositories) runs fn directly.
func (s *payoutService) runTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := s.payouts.DB()
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// CreateRun collects every approved calculation whose transaction date
// falls in the period, assigns them to a new run, marks them paid and
// completes the run, all in one transaction. A period with nothing
// approved is an error rather than an empty run.
func (s *payoutService) CreateRun(ctx context.Context, orgID, actorID uuid.UUID, req dto.CreatePayoutRunRequest) (*dto.PayoutRunResponse, error) {
	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		return nil, fmt.Errorf("invalid period_start: %w", err)
	}
	end, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid period_end: %w", err)
	}
	if end.Before(start) {
		return nil, errors.New("period_end is before period_start")
	}
	// The end date is inclusive.
	endExclusive := end.AddDate(0, 0, 1)

	calcs, err := s.calcs.ListApprovedInPeriod(ctx, orgID, start, endExclusive)
	if err != nil {
		return nil, err
	}
	if len(calcs) == 0 {
		return nil, errors.New("no approved calculations in the period")
	}

	total := decimal.Zero
	ids := make([]uuid.UUID, 0, len(calcs))
	for i := range calcs {
		total = total.Add(calcs[i].NetAmount())
		ids = append(ids, calcs[i].ID)
	}

	run := &model.PayoutRun{
		OrganizationID: orgID,
		PeriodStart:    start,
		PeriodEnd:      end,
		TotalAmount:    total,
		Count:          len(calcs),
		Status:         "completed",
		CreatedByID:    actorID,
	}

	now := time.Now().UTC()
	err = s.runTx(ctx, func(tx *gorm.DB) error {
		if err := s.payouts.Create(ctx, tx, run); err != nil {
			return err
		}
		if err := s.calcs.AssignToPayoutRun(ctx, tx, orgID, run.ID, ids); err != nil {
			return err
		}
		return s.payouts.Complete(ctx, tx, run.ID, now)
	})
	if err != nil {
		return nil, err
	}
	run.CompletedAt = &now

	log.Info().
		Str("payout_run_id", run.ID.String()).
		Int("calculations", run.Count).
		Str("total", total.StringFixed(2)).
		Msg("payout run completed")

	resp := runToResponse(run)
	return &resp, nil
}

func (s *payoutService) GetRun(ctx context.Context, orgID, id uuid.UUID) (*dto.PayoutRunResponse, error) {
	run, err := s.payouts.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, errors.New("payout run not found")
	}
	resp := runToResponse(run)
	return &resp, nil
}

func (s *payoutService) ListRuns(ctx context.Context, orgID uuid.UUID) ([]dto.PayoutRunResponse, error) {
	runs, err := s.payouts.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PayoutRunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, runToResponse(&runs[i]))
	}
	return out, nil
}

// Statement renders the PDF statement of a completed run and returns the
// bytes plus a suggested filename.
func (s *payoutService) Statement(ctx context.Context, orgID, id uuid.UUID) ([]byte, string, error) {
	run, err := s.payouts.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, "", errors.New("payout run not found")
	}
	if run.Status != "completed" {
		return nil, "", errors.New("statement is only available for completed runs")
	}
	pdf, err := s.renderer.RenderStatement(run)
	if err != nil {
		return nil, "", fmt.Errorf("rendering statement: %w", err)
	}
	name := fmt.Sprintf("payout-%s-%s.pdf",
		run.PeriodStart.Format("20060102"), run.PeriodEnd.Format("20060102"))
	return pdf, name, nil
}

func runToResponse(r *model.PayoutRun) dto.PayoutRunResponse {
	resp := dto.PayoutRunResponse{
		ID:          r.ID.String(),
		PeriodStart: r.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   r.PeriodEnd.Format("2006-01-02"),
		TotalAmount: r.TotalAmount,
		Count:       r.Count,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.CompletedAt != nil {
		ts := r.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &ts
	}
	return resp
}
