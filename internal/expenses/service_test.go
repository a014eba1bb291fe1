package expenses

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/ar"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type memoryRepo struct {
	items  map[int64]Expense
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[int64]Expense{}}
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Expense, error) {
	e, ok := r.items[id]
	if !ok {
		return Expense{}, ErrExpenseNotFound
	}
	return e, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Expense, int, error) {
	var out []Expense
	for _, e := range r.items {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.From != nil && e.ExpenseDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.ExpenseDate.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *memoryRepo) Create(ctx context.Context, e Expense) (Expense, error) {
	r.nextID++
	e.ID = r.nextID
	r.items[e.ID] = e
	return e, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	e, ok := r.items[id]
	if !ok {
		return ErrExpenseNotFound
	}
	for col, v := range updates {
		switch col {
		case "title":
			e.Title = v.(string)
		case "category":
			e.Category = v.(string)
		case "amount":
			e.Amount = v.(decimal.Decimal)
		case "expense_date":
			e.ExpenseDate = v.(time.Time)
		case "payment_method":
			e.PaymentMethod = v.(ar.PaymentMethod)
		case "notes":
			e.Notes = v.(string)
		default:
			return errors.New("unexpected column " + col)
		}
	}
	r.items[id] = e
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return ErrExpenseNotFound
	}
	delete(r.items, id)
	return nil
}

type recordingAudit struct {
	actions []string
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

type countingCache struct {
	bumps int
}

func (c *countingCache) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

func newTestService() (*Service, *memoryRepo, *recordingAudit, *countingCache) {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	cache := &countingCache{}
	svc := NewService(repo, audit, cache, nil, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 10, 15, 22, 0, 0, 0, time.UTC) }
	return svc, repo, audit, cache
}

func TestCreateNormalizesCategoryAndDefaultsDate(t *testing.T) {
	svc, _, audit, cache := newTestService()
	ctx := shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 3, Role: shared.RoleSuperAdmin})

	e, err := svc.Create(ctx, CreateInput{
		Title:         " Shop rent ",
		Category:      " Rent ",
		Amount:        decimal.RequireFromString("15000.005"),
		PaymentMethod: "Bank_Transfer",
	})
	require.NoError(t, err)
	require.Equal(t, "Shop rent", e.Title)
	require.Equal(t, "rent", e.Category)
	require.Equal(t, ar.MethodBankTransfer, e.PaymentMethod)
	require.Equal(t, "15000", e.Amount.String())
	require.Equal(t, time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC), e.ExpenseDate)
	require.Equal(t, int64(3), e.RecordedBy)
	require.Equal(t, []string{"expense.created"}, audit.actions)
	require.Equal(t, 1, cache.bumps)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestService()

	cases := []struct {
		name  string
		input CreateInput
		msg   string
	}{
		{"zero amount", CreateInput{Title: "Tea", Category: "misc", PaymentMethod: "cash"}, "invalid expense"},
		{"negative amount", CreateInput{Title: "Tea", Category: "misc", Amount: decimal.NewFromInt(-1), PaymentMethod: "cash"}, "invalid expense"},
		{"missing category", CreateInput{Title: "Tea", Amount: decimal.NewFromInt(1), PaymentMethod: "cash"}, "invalid expense"},
		{"bad method", CreateInput{Title: "Tea", Category: "misc", Amount: decimal.NewFromInt(1), PaymentMethod: "cheque"}, "invalid paymentMethod"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			var verr *shared.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tc.msg, verr.Message)
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc, repo, audit, cache := newTestService()
	ctx := context.Background()
	e, err := svc.Create(ctx, CreateInput{Title: "Power", Category: "utilities", Amount: decimal.NewFromInt(900), PaymentMethod: "upi"})
	require.NoError(t, err)

	category := "UTILITIES "
	amount := decimal.NewFromInt(950)
	updated, err := svc.Update(ctx, e.ID, UpdateInput{Category: &category, Amount: &amount})
	require.NoError(t, err)
	require.Equal(t, "utilities", updated.Category)
	require.True(t, updated.Amount.Equal(amount))

	zero := decimal.Zero
	_, err = svc.Update(ctx, e.ID, UpdateInput{Amount: &zero})
	require.True(t, shared.IsValidation(err))

	require.NoError(t, svc.Delete(ctx, e.ID))
	require.Empty(t, repo.items)
	require.ErrorIs(t, svc.Delete(ctx, e.ID), shared.ErrNotFound)
	require.Equal(t, []string{"expense.created", "expense.updated", "expense.deleted"}, audit.actions)
	require.Equal(t, 3, cache.bumps)
}

func TestListFiltersByCategory(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	for _, c := range []string{"rent", "Salary", "rent"} {
		_, err := svc.Create(ctx, CreateInput{Title: c, Category: c, Amount: decimal.NewFromInt(10), PaymentMethod: "cash"})
		require.NoError(t, err)
	}

	items, total, err := svc.List(ctx, ListFilter{Category: "RENT"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, items, 2)

	from := time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	_, _, err = svc.List(ctx, ListFilter{From: &from, To: &to})
	require.True(t, shared.IsValidation(err))
}
