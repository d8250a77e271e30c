package repository

import (
	"context"

	"commissionflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.User, error)
	List(ctx context.Context, orgID uuid.UUID) ([]model.User, error)
	SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// FindByEmail is the one lookup not scoped by organization: it backs
// login, where the organization comes FROM the stored user.
func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where("email = ? AND active = true", email).First(&u).Error
	return &u, err
}

func (r *userRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).First(&u).Error
	return &u, err
}

func (r *userRepo) List(ctx context.Context, orgID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).Order("created_at").Find(&users).Error
	return users, err
}

func (r *userRepo) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("active", active).Error
}
