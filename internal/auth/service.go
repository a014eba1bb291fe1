package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/users"
)

// UserLookup is the slice of the user repository needed to log in.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
	TouchLogin(ctx context.Context, id int64, at time.Time) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token
	User shared.Identity `json:"user"`
}

// Service wraps authentication business rules.
type Service struct {
	users  UserLookup
	tokens *TokenStore
	logger *slog.Logger
}

// NewService constructs a new Service.
func NewService(users UserLookup, tokens *TokenStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return users.User{}, shared.ErrInvalidCredentials
		}
		return users.User{}, err
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	id := user.Identity()
	token, err := s.tokens.Issue(ctx, id)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.users.TouchLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("record last login", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
	s.logger.Info("user logged in", slog.Int64("user_id", user.ID), slog.String("role", string(user.Role)))
	return LoginResult{Token: token, User: id}, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, token string) error {
	id, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, token, id.UserID)
}

// Resolve maps a bearer token to its identity.
func (s *Service) Resolve(ctx context.Context, token string) (shared.Identity, error) {
	return s.tokens.Resolve(ctx, token)
}
