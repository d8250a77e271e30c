package repository

import (
	"context"

	"commissionflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, orgID uuid.UUID) ([]model.Client, error)
	Update(ctx context.Context, c *model.Client) error
	SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).First(&c).Error
	return &c, err
}

func (r *clientRepo) List(ctx context.Context, orgID uuid.UUID) ([]model.Client, error) {
	var clients []model.Client
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).Order("name").Find(&clients).Error
	return clients, err
}

func (r *clientRepo) Update(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clientRepo) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.Client{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("active", active).Error
}
