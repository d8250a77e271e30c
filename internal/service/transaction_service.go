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
)

type TransactionService interface {
	Create(ctx context.Context, orgID uuid.UUID, req dto.CreateTransactionRequest) (*dto.TransactionResponse, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*dto.TransactionResponse, error)
	List(ctx context.Context, orgID uuid.UUID, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)
}

type transactionService struct {
	repo       repository.TransactionRepository
	clientRepo repository.ClientRepository
	calc       CalculationService
}

func NewTransactionService(
	repo repository.TransactionRepository,
	clientRepo repository.ClientRepository,
	calc CalculationService,
) TransactionService {
	return &transactionService{repo: repo, clientRepo: clientRepo, calc: calc}
}

// Create records a sales transaction and immediately evaluates commission
// for it. A transaction no rule matches is still stored — it shows up in
// the uncalculated list for manual review.
func (s *transactionService) Create(ctx context.Context, orgID uuid.UUID, req dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	if req.Type == "SALE" && req.GrossAmount.IsNegative() {
		return nil, errors.New("SALE transactions must carry a non-negative amount")
	}
	if req.DiscountTotal.IsNegative() {
		return nil, errors.New("discount total cannot be negative")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	tx := &model.SalesTransaction{
		OrganizationID: orgID,
		Type:           req.Type,
		GrossAmount:    req.GrossAmount,
		DiscountTotal:  req.DiscountTotal,
		Date:           date,
		InvoiceNumber:  req.InvoiceNumber,
	}

	if req.ClientID != nil {
		cid, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("invalid client_id: %w", err)
		}
		// Tenant check: the client must belong to the same organization.
		if _, err := s.clientRepo.FindByID(ctx, orgID, cid); err != nil {
			return nil, errors.New("client not found")
		}
		tx.ClientID = &cid
	}
	if req.ProjectID != nil {
		pid, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("invalid project_id: %w", err)
		}
		tx.ProjectID = &pid
	}
	if req.ProductCategoryID != nil {
		catID, err := uuid.Parse(*req.ProductCategoryID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_category_id: %w", err)
		}
		tx.ProductCategoryID = &catID
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, err
	}

	calcs, err := s.calc.CalculateForTransaction(ctx, orgID, tx.ID)
	if err != nil {
		// The transaction is already stored; surface the calculation
		// failure without rolling it back so the row can be backfilled.
		return nil, fmt.Errorf("transaction stored but commission calculation failed: %w", err)
	}

	resp := txToResponse(tx)
	resp.CalculationCount = len(calcs)
	return &resp, nil
}

func (s *transactionService) Get(ctx context.Context, orgID, id uuid.UUID) (*dto.TransactionResponse, error) {
	tx, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, errors.New("transaction not found")
	}
	resp := txToResponse(tx)
	return &resp, nil
}

func (s *transactionService) List(ctx context.Context, orgID uuid.UUID, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	txs, total, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransactionResponse, 0, len(txs))
	for i := range txs {
		items = append(items, txToResponse(&txs[i]))
	}
	return &dto.TransactionListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func txToResponse(t *model.SalesTransaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:            t.ID.String(),
		Type:          t.Type,
		GrossAmount:   t.GrossAmount,
		DiscountTotal: t.DiscountTotal,
		NetAmount:     t.NetAmount(),
		Date:          t.Date.Format("2006-01-02"),
		InvoiceNumber: t.InvoiceNumber,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
	if t.ClientID != nil {
		id := t.ClientID.String()
		resp.ClientID = &id
	}
	if t.Client != nil {
		resp.ClientName = t.Client.Name
	}
	if t.ProjectID != nil {
		id := t.ProjectID.String()
		resp.ProjectID = &id
	}
	if t.Project != nil {
		resp.ProjectName = t.Project.Name
	}
	if t.ProductCategoryID != nil {
		id := t.ProductCategoryID.String()
		resp.ProductCategoryID = &id
	}
	return resp
}
