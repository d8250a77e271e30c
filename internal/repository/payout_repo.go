package repository

import (
	"context"
	"time"

	"commissionflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PayoutRepository interface {
	Create(ctx context.Context, tx *gorm.DB, run *model.PayoutRun) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.PayoutRun, error)
	List(ctx context.Context, orgID uuid.UUID) ([]model.PayoutRun, error)
	Complete(ctx context.Context, tx *gorm.DB, id uuid.UUID, completedAt time.Time) error
	DB() *gorm.DB
}

type payoutRepo struct{ db *gorm.DB }

func NewPayoutRepository(db *gorm.DB) PayoutRepository { return &payoutRepo{db: db} }

func (r *payoutRepo) DB() *gorm.DB { return r.db }

func (r *payoutRepo) Create(ctx context.Context, tx *gorm.DB, run *model.PayoutRun) error {
	return tx.WithContext(ctx).Create(run).Error
}

func (r *payoutRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.PayoutRun, error) {
	var run model.PayoutRun
	err := r.db.WithContext(ctx).Preload("Calculations").Preload("Calculations.Adjustments").
		Where("organization_id = ? AND id = ?", orgID, id).First(&run).Error
	return &run, err
}

func (r *payoutRepo) List(ctx context.Context, orgID uuid.UUID) ([]model.PayoutRun, error) {
	var runs []model.PayoutRun
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).Order("created_at DESC").Find(&runs).Error
	return runs, err
}

func (r *payoutRepo) Complete(ctx context.Context, tx *gorm.DB, id uuid.UUID, completedAt time.Time) error {
	return tx.WithContext(ctx).Model(&model.PayoutRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": completedAt,
		}).Error
}
