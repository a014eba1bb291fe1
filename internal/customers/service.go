package customers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator drops derived read models after customer changes.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service implements the customer directory.
type Service struct {
	repo   Repository
	audit  AuditPort
	cache  Invalidator
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, audit AuditPort, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, cache: cache, logger: logger}
}

// Create registers a customer after checking phone uniqueness.
func (s *Service) Create(ctx context.Context, req CreateInput) (Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = normalizePhone(req.Phone)
	details := map[string]string{}
	if req.Name == "" {
		details["name"] = "is required"
	}
	if req.Phone == "" {
		details["phone"] = "is required"
	}
	if req.CreditLimit.IsNegative() {
		details["creditLimit"] = "must not be negative"
	}
	if len(details) > 0 {
		return Customer{}, shared.NewValidationError("invalid customer", details)
	}

	if err := s.ensurePhoneAvailable(ctx, req.Phone); err != nil {
		return Customer{}, err
	}

	created, err := s.repo.Create(ctx, Customer{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       strings.TrimSpace(req.Email),
		Address:     req.Address,
		Notes:       req.Notes,
		CreditLimit: shared.RoundMoney(req.CreditLimit),
		IsActive:    true,
	})
	if err != nil {
		return Customer{}, err
	}
	s.record(ctx, "customer.created", created.ID, map[string]any{"phone": created.Phone})
	return created, nil
}

// Update patches contact details. The receivable balance is never patched here.
func (s *Service) Update(ctx context.Context, id int64, req UpdateInput) (Customer, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, err
	}

	updates := make(map[string]any)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return Customer{}, shared.NewValidationError("invalid customer", map[string]string{"name": "is required"})
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		phone := normalizePhone(*req.Phone)
		if phone == "" {
			return Customer{}, shared.NewValidationError("invalid customer", map[string]string{"phone": "is required"})
		}
		if phone != existing.Phone {
			if err := s.ensurePhoneAvailable(ctx, phone); err != nil {
				return Customer{}, err
			}
			updates["phone"] = phone
		}
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.CreditLimit != nil {
		if req.CreditLimit.IsNegative() {
			return Customer{}, shared.NewValidationError("invalid customer", map[string]string{"creditLimit": "must not be negative"})
		}
		updates["credit_limit"] = shared.RoundMoney(*req.CreditLimit)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	s.record(ctx, "customer.updated", id, nil)
	return s.repo.Get(ctx, id)
}

// Delete removes a customer with all bills and payments, unless a bill is still unpaid.
func (s *Service) Delete(ctx context.Context, id int64) (DeleteSummary, error) {
	var summary DeleteSummary
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.LockCustomer(ctx, id); err != nil {
			return err
		}
		unpaid, err := tx.ListUnpaidBills(ctx, id)
		if err != nil {
			return fmt.Errorf("list unpaid bills: %w", err)
		}
		if len(unpaid) > 0 {
			return shared.NewValidationError("cannot delete customer with unpaid bills", unpaid)
		}
		summary, err = tx.DeleteCascade(ctx, id)
		return err
	})
	if err != nil {
		return DeleteSummary{}, err
	}
	s.record(ctx, "customer.deleted", id, map[string]any{"bills": summary.Bills, "payments": summary.Payments})
	return summary, nil
}

// Get returns a customer by id.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of customers.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) ensurePhoneAvailable(ctx context.Context, phone string) error {
	_, err := s.repo.GetByPhone(ctx, phone)
	if err == nil {
		return ErrPhoneExists
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("check existing phone: %w", err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  shared.ActorID(ctx),
			Action:   action,
			Entity:   "customer",
			EntityID: shared.EntityKey(id),
			Meta:     meta,
		}); err != nil {
			s.logger.Warn("audit customer change", slog.String("action", action), slog.Any("error", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump report cache", slog.Any("error", err))
		}
	}
}

func normalizePhone(raw string) string {
	return strings.Join(strings.Fields(raw), "")
}
