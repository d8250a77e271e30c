package service

import (
	"context"
	"errors"
	"time"

	"commissionflow/internal/config"
	"commissionflow/internal/dto"
	"commissionflow/internal/model"
	"commissionflow/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	CreateUser(ctx context.Context, orgID uuid.UUID, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, orgID uuid.UUID) ([]dto.UserResponse, error)
	DeactivateUser(ctx context.Context, orgID, id uuid.UUID) error
}

type authService struct {
	repo repository.UserRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	return s.tokenPair(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("refresh token invalid or expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("malformed token")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("malformed token")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, errors.New("malformed token")
	}

	orgIDStr, _ := claims["org_id"].(string)
	orgID, err := uuid.Parse(orgIDStr)
	if err != nil {
		return nil, errors.New("malformed token")
	}
	u, err := s.repo.FindByID(ctx, orgID, uid)
	if err != nil || !u.Active {
		return nil, errors.New("user not found or inactive")
	}

	return s.tokenPair(u)
}

func (s *authService) tokenPair(user *model.User) (*dto.TokenResponse, error) {
	access, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         userToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"org_id":  user.OrganizationID.String(),
		"email":   user.Email,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authService) CreateUser(ctx context.Context, orgID uuid.UUID, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		OrganizationID: orgID,
		Email:          req.Email,
		Name:           req.Name,
		PasswordHash:   string(hash),
		Role:           req.Role,
		Active:         true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, errors.New("email already in use")
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context, orgID uuid.UUID) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userToResponse(&users[i]))
	}
	return out, nil
}

func (s *authService) DeactivateUser(ctx context.Context, orgID, id uuid.UUID) error {
	return s.repo.SetActive(ctx, orgID, id, false)
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             u.ID.String(),
		OrganizationID: u.OrganizationID.String(),
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		Active:         u.Active,
	}
}
