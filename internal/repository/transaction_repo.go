package repository

import (
	"context"
	"time"

	"commissionflow/internal/dto"
	"commissionflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *model.SalesTransaction) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.SalesTransaction, error)
	List(ctx context.Context, orgID uuid.UUID, filter dto.TransactionFilter) ([]model.SalesTransaction, int64, error)
	// ListUncalculated returns SALE transactions of the organization with no
	// calculation row, oldest first — the backfill work list.
	ListUncalculated(ctx context.Context, orgID uuid.UUID, limit int) ([]model.SalesTransaction, error)
	CountUncalculated(ctx context.Context, orgID uuid.UUID) (int64, error)
	// ListByPlanScope returns transactions a plan's rules could apply to:
	// all of the organization's, or only one project's when the plan is
	// project-scoped. Used by bulk recalculation after rule edits.
	ListByPlanScope(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.SalesTransaction, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository { return &transactionRepo{db: db} }

func (r *transactionRepo) DB() *gorm.DB { return r.db }

func (r *transactionRepo) Create(ctx context.Context, t *model.SalesTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.SalesTransaction, error) {
	var t model.SalesTransaction
	err := r.db.WithContext(ctx).Preload("Client").Preload("Project").
		Where("organization_id = ? AND id = ?", orgID, id).First(&t).Error
	return &t, err
}

func (r *transactionRepo) List(ctx context.Context, orgID uuid.UUID, filter dto.TransactionFilter) ([]model.SalesTransaction, int64, error) {
	var txs []model.SalesTransaction
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.SalesTransaction{}).
		Where("sales_transactions.organization_id = ?", orgID)

	if filter.Type != "" && filter.Type != "all" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.From != "" {
		if from, err := time.Parse("2006-01-02", filter.From); err == nil {
			q = q.Where("date >= ?", from)
		}
	}
	if filter.To != "" {
		if to, err := time.Parse("2006-01-02", filter.To); err == nil {
			q = q.Where("date <= ?", to)
		}
	}
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.ProjectID != "" {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Uncalculated {
		q = q.Where("NOT EXISTS (SELECT 1 FROM commission_calculations cc WHERE cc.transaction_id = sales_transactions.id)")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Client").Preload("Project").
		Order("date DESC, created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&txs).Error

	return txs, total, err
}

func (r *transactionRepo) ListUncalculated(ctx context.Context, orgID uuid.UUID, limit int) ([]model.SalesTransaction, error) {
	var txs []model.SalesTransaction
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND type = 'SALE'", orgID).
		Where("NOT EXISTS (SELECT 1 FROM commission_calculations cc WHERE cc.transaction_id = sales_transactions.id)").
		Order("date, created_at").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) CountUncalculated(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.SalesTransaction{}).
		Where("organization_id = ? AND type = 'SALE'", orgID).
		Where("NOT EXISTS (SELECT 1 FROM commission_calculations cc WHERE cc.transaction_id = sales_transactions.id)").
		Count(&n).Error
	return n, err
}

func (r *transactionRepo) ListByPlanScope(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.SalesTransaction, error) {
	var txs []model.SalesTransaction
	q := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	err := q.Order("date, created_at").Find(&txs).Error
	return txs, err
}
