package service_test

import (
	"context"
	"testing"

	"commissionflow/internal/config"
	"commissionflow/internal/dto"
	"commissionflow/internal/model"
	"commissionflow/internal/repository"
	"commissionflow/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (s *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	clone := *u
	s.users[u.ID] = &clone
	return nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email && u.Active {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.User, error) {
	u, ok := s.users[id]
	if !ok || u.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *stubUserRepo) List(_ context.Context, orgID uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, u := range s.users {
		if u.OrganizationID == orgID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *stubUserRepo) SetActive(_ context.Context, orgID, id uuid.UUID, active bool) error {
	u, ok := s.users[id]
	if !ok || u.OrganizationID != orgID {
		return gorm.ErrRecordNotFound
	}
	u.Active = active
	return nil
}

func buildAuthSvc() (service.AuthService, *stubUserRepo, uuid.UUID) {
	repo := newStubUserRepo()
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
	return service.NewAuthService(repo, cfg), repo, uuid.New()
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _, orgID := buildAuthSvc()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, orgID, dto.CreateUserRequest{
		Email:    "ana@acme.test",
		Name:     "Ana",
		Password: "correct-horse-battery",
		Role:     "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, "manager", created.Role)

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "ana@acme.test", Password: "correct-horse-battery"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, created.ID, resp.User.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, orgID := buildAuthSvc()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, orgID, dto.CreateUserRequest{
		Email:    "ana@acme.test",
		Name:     "Ana",
		Password: "correct-horse-battery",
		Role:     "viewer",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "ana@acme.test", Password: "wrong"})
	assert.EqualError(t, err, "invalid credentials")

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@acme.test", Password: "whatever"})
	assert.EqualError(t, err, "invalid credentials", "unknown users get the same answer as bad passwords")
}

func TestRefreshIssuesNewPair(t *testing.T) {
	svc, _, orgID := buildAuthSvc()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, orgID, dto.CreateUserRequest{
		Email:    "ana@acme.test",
		Name:     "Ana",
		Password: "correct-horse-battery",
		Role:     "admin",
	})
	require.NoError(t, err)

	first, err := svc.Login(ctx, dto.LoginRequest{Email: "ana@acme.test", Password: "correct-horse-battery"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, second.AccessToken)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc, _, _ := buildAuthSvc()

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	svc, repo, orgID := buildAuthSvc()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, orgID, dto.CreateUserRequest{
		Email:    "ana@acme.test",
		Name:     "Ana",
		Password: "correct-horse-battery",
		Role:     "viewer",
	})
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, dto.LoginRequest{Email: "ana@acme.test", Password: "correct-horse-battery"})
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(ctx, orgID, uuid.MustParse(created.ID), false))

	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.Error(t, err)
}
