package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

const minPasswordLength = 8

// TokenRevoker drops every bearer token issued to a user.
type TokenRevoker interface {
	RevokeUser(ctx context.Context, userID int64) (int, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic.
type Service struct {
	repo       RepositoryPort
	tokens     TokenRevoker
	audit      AuditPort
	logger     *slog.Logger
	bcryptCost int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, tokens TokenRevoker, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, audit: audit, logger: logger, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.bcryptCost = cost
	return s
}

// HashPassword hashes a plain text password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", shared.NewValidationError("invalid user", map[string]string{"email": "must be a valid address"})
	}
	return email, nil
}

func checkRole(role shared.Role) error {
	if !role.Valid() {
		return shared.NewValidationError("invalid user", map[string]any{
			"role":    "unknown role",
			"options": []shared.Role{shared.RoleSuperAdmin, shared.RoleAdmin, shared.RoleCashier},
		})
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return shared.NewValidationError("invalid user", map[string]string{"password": fmt.Sprintf("must be at least %d characters", minPasswordLength)})
	}
	return nil
}

// Create registers a new operator.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return User{}, shared.NewValidationError("invalid user", map[string]string{"name": "is required"})
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return User{}, err
	}
	role := shared.Role(shared.NormalizeKey(string(in.Role)))
	if err := checkRole(role); err != nil {
		return User{}, err
	}
	if err := checkPassword(in.Password); err != nil {
		return User{}, err
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}
	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.Create(ctx, User{Name: name, Email: email, PasswordHash: hash, Role: role, IsActive: true})
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.created", created.ID, map[string]any{"role": role})
	return created, nil
}

// Update patches an account. Role changes and deactivation revoke the user's tokens.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (User, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return User{}, shared.NewValidationError("invalid user", map[string]string{"name": "is required"})
		}
		updates["name"] = name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return User{}, err
		}
		if email != existing.Email {
			if other, err := s.repo.GetByEmail(ctx, email); err == nil && other.ID != id {
				return User{}, ErrEmailTaken
			} else if err != nil && !errors.Is(err, ErrUserNotFound) {
				return User{}, err
			}
			updates["email"] = email
		}
	}
	if in.Password != nil {
		if err := checkPassword(*in.Password); err != nil {
			return User{}, err
		}
		hash, err := HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return User{}, err
		}
		updates["password_hash"] = hash
	}
	revoke := false
	if in.Role != nil {
		role := shared.Role(shared.NormalizeKey(string(*in.Role)))
		if err := checkRole(role); err != nil {
			return User{}, err
		}
		if role != existing.Role {
			if id == shared.ActorID(ctx) {
				return User{}, shared.Validationf("cannot change your own role")
			}
			updates["role"] = role
			revoke = true
		}
	}
	if in.IsActive != nil && *in.IsActive != existing.IsActive {
		if !*in.IsActive {
			if id == shared.ActorID(ctx) {
				return User{}, shared.Validationf("cannot deactivate your own account")
			}
			revoke = true
		}
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return User{}, err
	}
	if revoke {
		if err := s.revoke(ctx, id); err != nil {
			return User{}, err
		}
	}
	s.record(ctx, "user.updated", id, map[string]any{"revoked": revoke})
	return s.repo.Get(ctx, id)
}

// Deactivate disables an account and revokes its tokens.
func (s *Service) Deactivate(ctx context.Context, id int64) (User, error) {
	active := false
	return s.Update(ctx, id, UpdateInput{IsActive: &active})
}

// Get returns a user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, page shared.PageRequest) ([]User, int, error) {
	return s.repo.List(ctx, page)
}

func (s *Service) revoke(ctx context.Context, id int64) error {
	if s.tokens == nil {
		return nil
	}
	n, err := s.tokens.RevokeUser(ctx, id)
	if err != nil {
		return fmt.Errorf("revoke tokens of user %d: %w", id, err)
	}
	s.logger.Info("user tokens revoked", slog.Int64("user_id", id), slog.Int("tokens", n))
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "user",
		EntityID: shared.EntityKey(id),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit user change", slog.String("action", action), slog.Any("error", err))
	}
}
