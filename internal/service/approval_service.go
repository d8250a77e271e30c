package service

import (
	"context"
	"errors"
	"fmt"

	"commissionflow/internal/dto"
	"commissionflow/internal/model"
	"commissionflow/internal/repository"
	"commissionflow/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ApprovalService interface {
	Approve(ctx context.Context, orgID, calcID uuid.UUID, req dto.ApproveRequest, actorEmail string) (*dto.CalculationResponse, error)
	Reject(ctx context.Context, orgID, calcID uuid.UUID, req dto.RejectRequest) (*dto.CalculationResponse, error)
	CreateAdjustment(ctx context.Context, orgID, calcID, actorID uuid.UUID, req dto.AdjustmentRequest) (*dto.CalculationResponse, error)
}

type approvalService struct {
	repo       repository.CalculationRepository
	dispatcher *worker.Dispatcher
}

func NewApprovalService(repo repository.CalculationRepository, dispatcher *worker.Dispatcher) ApprovalService {
	return &approvalService{repo: repo, dispatcher: dispatcher}
}

// Approve moves a pending calculation to approved. The caller supplies the
// version it last read; if a recalculation bumped it in the meantime the
// update is refused and the caller must re-read.
func (s *approvalService) Approve(ctx context.Context, orgID, calcID uuid.UUID, req dto.ApproveRequest, actorEmail string) (*dto.CalculationResponse, error) {
	calc, err := s.repo.FindByID(ctx, orgID, calcID)
	if err != nil {
		return nil, errors.New("calculation not found")
	}
	if calc.Status != model.CalcStatusPending {
		return nil, fmt.Errorf("calculation is %s, only pending calculations can be approved", calc.Status)
	}

	if err := s.repo.UpdateStatus(ctx, orgID, calcID, req.Version, model.CalcStatusApproved); err != nil {
		return nil, err
	}

	s.notifyApproval(ctx, calc, actorEmail)

	return s.reload(ctx, orgID, calcID)
}

func (s *approvalService) Reject(ctx context.Context, orgID, calcID uuid.UUID, req dto.RejectRequest) (*dto.CalculationResponse, error) {
	calc, err := s.repo.FindByID(ctx, orgID, calcID)
	if err != nil {
		return nil, errors.New("calculation not found")
	}
	if calc.Status != model.CalcStatusPending {
		return nil, fmt.Errorf("calculation is %s, only pending calculations can be rejected", calc.Status)
	}

	if err := s.repo.UpdateStatus(ctx, orgID, calcID, req.Version, model.CalcStatusRejected); err != nil {
		return nil, err
	}

	log.Info().
		Str("calculation_id", calcID.String()).
		Str("reason", req.Reason).
		Msg("calculation rejected")

	return s.reload(ctx, orgID, calcID)
}

// CreateAdjustment records a manual delta on an approved calculation.
// The original amount is never touched; payouts sum amount plus deltas.
func (s *approvalService) CreateAdjustment(ctx context.Context, orgID, calcID, actorID uuid.UUID, req dto.AdjustmentRequest) (*dto.CalculationResponse, error) {
	calc, err := s.repo.FindByID(ctx, orgID, calcID)
	if err != nil {
		return nil, errors.New("calculation not found")
	}
	if calc.Status != model.CalcStatusApproved {
		return nil, fmt.Errorf("calculation is %s, adjustments apply to approved calculations only", calc.Status)
	}

	adj := &model.CommissionAdjustment{
		OrganizationID: orgID,
		CalculationID:  calcID,
		Delta:          req.Delta,
		Reason:         req.Reason,
		AppliedByID:    actorID,
	}
	if err := s.repo.CreateAdjustment(ctx, adj); err != nil {
		return nil, err
	}

	return s.reload(ctx, orgID, calcID)
}

func (s *approvalService) reload(ctx context.Context, orgID, calcID uuid.UUID) (*dto.CalculationResponse, error) {
	calc, err := s.repo.FindByID(ctx, orgID, calcID)
	if err != nil {
		return nil, err
	}
	resp := calcToResponse(calc)
	return &resp, nil
}

func (s *approvalService) notifyApproval(ctx context.Context, calc *model.CommissionCalculation, actorEmail string) {
	if s.dispatcher == nil || actorEmail == "" {
		return
	}
	planName := ""
	if calc.Plan != nil {
		planName = calc.Plan.Name
	}
	err := s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
		To:      actorEmail,
		Subject: "Commission approved",
		Body: fmt.Sprintf("Calculation %s (plan %s) for %s was approved.",
			calc.ID, planName, calc.Amount.StringFixed(2)),
	})
	if err != nil {
		log.Warn().Err(err).Str("calculation_id", calc.ID.String()).Msg("could not enqueue approval email")
	}
}
