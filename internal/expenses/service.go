package expenses

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/ar"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator drops cached reports after expense changes.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service manages the expense book.
type Service struct {
	repo   Repository
	audit  AuditPort
	cache  Invalidator
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewService builds Service. Expense dates default to today in loc.
func NewService(repo Repository, audit AuditPort, cache Invalidator, logger *slog.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, audit: audit, cache: cache, logger: logger, loc: loc, now: time.Now}
}

// Location returns the business time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// Create records an expense.
func (s *Service) Create(ctx context.Context, in CreateInput) (Expense, error) {
	details := map[string]any{}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		details["title"] = "is required"
	}
	category := shared.NormalizeKey(in.Category)
	if category == "" {
		details["category"] = "is required"
	}
	if !in.Amount.IsPositive() {
		details["amount"] = "must be greater than zero"
	}
	if len(details) > 0 {
		return Expense{}, shared.NewValidationError("invalid expense", details)
	}
	method, err := ar.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return Expense{}, err
	}
	date := s.today()
	if in.ExpenseDate != nil {
		date = *in.ExpenseDate
	}

	created, err := s.repo.Create(ctx, Expense{
		Title:         title,
		Category:      category,
		Amount:        shared.RoundMoney(in.Amount),
		ExpenseDate:   date,
		PaymentMethod: method,
		Notes:         in.Notes,
		RecordedBy:    shared.ActorID(ctx),
	})
	if err != nil {
		return Expense{}, err
	}
	s.afterChange(ctx, "expense.created", created.ID, map[string]any{"amount": created.Amount.String(), "category": category})
	return created, nil
}

// Update patches an expense.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Expense, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	updates := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return Expense{}, shared.NewValidationError("invalid expense", map[string]string{"title": "is required"})
		}
		updates["title"] = title
	}
	if in.Category != nil {
		category := shared.NormalizeKey(*in.Category)
		if category == "" {
			return Expense{}, shared.NewValidationError("invalid expense", map[string]string{"category": "is required"})
		}
		updates["category"] = category
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return Expense{}, shared.NewValidationError("invalid expense", map[string]string{"amount": "must be greater than zero"})
		}
		updates["amount"] = shared.RoundMoney(*in.Amount)
	}
	if in.ExpenseDate != nil {
		updates["expense_date"] = *in.ExpenseDate
	}
	if in.PaymentMethod != nil {
		method, err := ar.ParsePaymentMethod(*in.PaymentMethod)
		if err != nil {
			return Expense{}, err
		}
		updates["payment_method"] = method
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return Expense{}, err
	}
	s.afterChange(ctx, "expense.updated", id, nil)
	return s.repo.Get(ctx, id)
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterChange(ctx, "expense.deleted", id, nil)
	return nil
}

// Get returns an expense.
func (s *Service) Get(ctx context.Context, id int64) (Expense, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of expenses.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Expense, int, error) {
	filter.Category = shared.NormalizeKey(filter.Category)
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, shared.Validationf("from must not be after to")
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) afterChange(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  shared.ActorID(ctx),
			Action:   action,
			Entity:   "expense",
			EntityID: shared.EntityKey(id),
			Meta:     meta,
		}); err != nil {
			s.logger.Warn("audit expense change", slog.String("action", action), slog.Any("error", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump report cache", slog.Any("error", err))
		}
	}
}
