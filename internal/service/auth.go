package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docvault/internal/auth"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// AuthResult is returned from both Register and Login: a signed token plus
// the account's public projection.
type AuthResult struct {
	Token string         `json:"token"`
	User  model.UserView `json:"user"`
}

// AuthService handles account registration and credential verification.
type AuthService interface {
	// Register creates an account and logs it in (returns a token).
	Register(ctx context.Context, username, password string) (*AuthResult, error)

	// Login verifies credentials and issues a token. Unknown usernames and
	// wrong passwords are indistinguishable (both ErrInvalidCredentials).
	Login(ctx context.Context, username, password string) (*AuthResult, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	logger zerolog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, logger zerolog.Logger) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		logger: logger.With().Str("service", "auth").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(stored)
}

func (s *authService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to issue token")
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, User: user.View()}, nil
}
