package customers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/rbac"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type memoryBill struct {
	id         int64
	customerID int64
	number     string
	due        decimal.Decimal
}

type memoryRepo struct {
	customers map[int64]Customer
	bills     []memoryBill
	payments  map[int64]int64
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{customers: make(map[int64]Customer), payments: make(map[int64]int64)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	customers := make(map[int64]Customer, len(r.customers))
	for k, v := range r.customers {
		customers[k] = v
	}
	bills := append([]memoryBill(nil), r.bills...)
	payments := make(map[int64]int64, len(r.payments))
	for k, v := range r.payments {
		payments[k] = v
	}
	if err := fn(ctx, r); err != nil {
		r.customers, r.bills, r.payments = customers, bills, payments
		return err
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) GetByPhone(ctx context.Context, phone string) (Customer, error) {
	for _, c := range r.customers {
		if c.Phone == phone {
			return c, nil
		}
	}
	return Customer{}, ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Create(ctx context.Context, c Customer) (Customer, error) {
	r.nextID++
	c.ID = r.nextID
	r.customers[c.ID] = c
	return c, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	c, ok := r.customers[id]
	if !ok {
		return ErrNotFound
	}
	for col, v := range updates {
		switch col {
		case "name":
			c.Name = v.(string)
		case "phone":
			c.Phone = v.(string)
		case "email":
			c.Email = v.(string)
		case "address":
			c.Address = v.(string)
		case "notes":
			c.Notes = v.(string)
		case "credit_limit":
			c.CreditLimit = v.(decimal.Decimal)
		case "is_active":
			c.IsActive = v.(bool)
		}
	}
	r.customers[id] = c
	return nil
}

func (r *memoryRepo) LockCustomer(ctx context.Context, id int64) (Customer, error) {
	return r.Get(ctx, id)
}

func (r *memoryRepo) ListUnpaidBills(ctx context.Context, customerID int64) ([]BlockingBill, error) {
	var out []BlockingBill
	for _, b := range r.bills {
		if b.customerID == customerID && b.due.IsPositive() {
			out = append(out, BlockingBill{ID: b.id, BillNumber: b.number, DueAmount: b.due})
		}
	}
	return out, nil
}

func (r *memoryRepo) DeleteCascade(ctx context.Context, customerID int64) (DeleteSummary, error) {
	var summary DeleteSummary
	summary.Payments = r.payments[customerID]
	delete(r.payments, customerID)
	kept := r.bills[:0]
	for _, b := range r.bills {
		if b.customerID == customerID {
			summary.Bills++
			continue
		}
		kept = append(kept, b)
	}
	r.bills = kept
	delete(r.customers, customerID)
	return summary, nil
}

func TestCreateRejectsDuplicatePhone(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	c, err := svc.Create(context.Background(), CreateInput{Name: "Asha", Phone: "98765 43210"})
	require.NoError(t, err)
	require.Equal(t, "9876543210", c.Phone)
	require.True(t, c.TotalDue.IsZero())
	require.True(t, c.IsActive)

	_, err = svc.Create(context.Background(), CreateInput{Name: "Other", Phone: "9876543210"})
	require.ErrorIs(t, err, ErrPhoneExists)
	require.True(t, shared.IsValidation(err))
}

func TestUpdatePhoneUniqueness(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	a, _ := svc.Create(context.Background(), CreateInput{Name: "A", Phone: "11111"})
	_, _ = svc.Create(context.Background(), CreateInput{Name: "B", Phone: "22222"})

	taken := "22222"
	_, err := svc.Update(context.Background(), a.ID, UpdateInput{Phone: &taken})
	require.ErrorIs(t, err, ErrPhoneExists)

	same := "11111"
	email := "a@example.com"
	got, err := svc.Update(context.Background(), a.ID, UpdateInput{Phone: &same, Email: &email})
	require.NoError(t, err)
	require.Equal(t, "a@example.com", got.Email)
}

func TestDeleteBlockedByUnpaidBills(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	c, _ := svc.Create(context.Background(), CreateInput{Name: "Ravi", Phone: "33333"})
	repo.bills = []memoryBill{
		{id: 1, customerID: c.ID, number: "BILL-1001", due: decimal.Zero},
		{id: 2, customerID: c.ID, number: "BILL-1002", due: decimal.NewFromInt(40)},
	}
	repo.payments[c.ID] = 2

	_, err := svc.Delete(context.Background(), c.ID)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	blocking := verr.Details.([]BlockingBill)
	require.Len(t, blocking, 1)
	require.Equal(t, "BILL-1002", blocking[0].BillNumber)

	require.Contains(t, repo.customers, c.ID)
	require.Len(t, repo.bills, 2)
	require.Equal(t, int64(2), repo.payments[c.ID])
}

func TestDeleteCascadesWhenSettled(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	c, _ := svc.Create(context.Background(), CreateInput{Name: "Meena", Phone: "44444"})
	other, _ := svc.Create(context.Background(), CreateInput{Name: "Other", Phone: "55555"})
	repo.bills = []memoryBill{
		{id: 1, customerID: c.ID, number: "BILL-1001", due: decimal.Zero},
		{id: 2, customerID: other.ID, number: "BILL-1002", due: decimal.NewFromInt(5)},
	}
	repo.payments[c.ID] = 1

	summary, err := svc.Delete(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, DeleteSummary{Bills: 1, Payments: 1}, summary)
	require.NotContains(t, repo.customers, c.ID)
	require.Len(t, repo.bills, 1)

	_, err = svc.Delete(context.Background(), 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteHandlerReturnsBlockingBills(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	c, _ := svc.Create(context.Background(), CreateInput{Name: "Ravi", Phone: "66666"})
	repo.bills = []memoryBill{{id: 7, customerID: c.ID, number: "BILL-1007", due: decimal.NewFromInt(10)}}

	r := chi.NewRouter()
	r.Route("/customers", NewHandler(nil, svc, rbac.Middleware{}).MountRoutes)

	req := httptest.NewRequest(http.MethodDelete, "/customers/1", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: 1, Role: shared.RoleSuperAdmin}))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), "BILL-1007"))

	req = httptest.NewRequest(http.MethodDelete, "/customers/1", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: 2, Role: shared.RoleCashier}))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}
