package services

import (
	"context"
	"errors"
	"log"

	"queueflow/internal/adapters/persistence/models"
	"queueflow/internal/adapters/persistence/repositories"
	"queueflow/internal/config"
	"queueflow/internal/core/domain"
	"queueflow/internal/pkg/jwt"
	"queueflow/internal/pkg/password"
)

// Auth errors
var (
	ErrOperatorInactive = errors.New("operator account is inactive")
)

// AuthService handles operator authentication
type AuthService struct {
	operatorRepo repositories.OperatorRepository
	cfg          *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(operatorRepo repositories.OperatorRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		operatorRepo: operatorRepo,
		cfg:          cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Operator    *models.OperatorResponse `json:"operator"`
	AccessToken string                   `json:"access_token"`
	ExpiresIn   int                      `json:"expires_in"`
}

// Login authenticates an operator
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find operator by username
	op, err := s.operatorRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Check if operator is active
	if !op.IsActive {
		return nil, ErrOperatorInactive
	}

	// 3. Verify password
	if !password.Verify(input.Password, op.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Generate access token
	accessToken, err := jwt.GenerateAccessToken(
		op.ID,
		op.CenterID,
		op.Username,
		op.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Operator logged in: %s (center %d)", op.Username, op.CenterID)

	return &AuthResponse{
		Operator:    op.ToResponse(),
		AccessToken: accessToken,
		ExpiresIn:   s.cfg.JWT.AccessTokenMins * 60,
	}, nil
}

// GetOperatorByID gets an operator by ID
func (s *AuthService) GetOperatorByID(ctx context.Context, operatorID uint) (*models.Operator, error) {
	return s.operatorRepo.GetByID(ctx, operatorID)
}
