package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dev-serdi/helpdesk-core/internal/auth"
	"github.com/dev-serdi/helpdesk-core/internal/domain"
	"github.com/dev-serdi/helpdesk-core/internal/repository"
	apperrors "github.com/dev-serdi/helpdesk-core/pkg/util"
)

// AuthService authenticates local accounts and mints access tokens.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

// NewAuthService constructs the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// LoginResult carries the issued token and the account it belongs to.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *domain.User
}

// Login verifies credentials against the stored bcrypt hash.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("account is disabled")
	}
	if user.PasswordHash == nil || auth.ComparePassword(*user.PasswordHash, password) != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}
