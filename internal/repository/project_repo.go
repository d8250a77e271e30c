package repository

import (
	"context"

	"commissionflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context, orgID uuid.UUID) ([]model.Project, error)
	SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error
}

type projectRepo struct{ db *gorm.DB }

func NewProjectRepository(db *gorm.DB) ProjectRepository { return &projectRepo{db: db} }

func (r *projectRepo) Create(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).Preload("Client").
		Where("organization_id = ? AND id = ?", orgID, id).First(&p).Error
	return &p, err
}

func (r *projectRepo) List(ctx context.Context, orgID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).Preload("Client").
		Where("organization_id = ?", orgID).Order("name").Find(&projects).Error
	return projects, err
}

func (r *projectRepo) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.Project{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("active", active).Error
}
