package products

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type memoryRepo struct {
	items  map[int64]Product
	nextID int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Product)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[int64]Product, len(r.items))
	for k, v := range r.items {
		snapshot[k] = v
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.items = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.items[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	p.refreshStatus()
	return p, nil
}

func (r *memoryRepo) GetBySKU(ctx context.Context, sku string) (Product, error) {
	for _, p := range r.items {
		if p.SKU == sku {
			p.refreshStatus()
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	var out []Product
	for _, p := range r.items {
		p.refreshStatus()
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *memoryRepo) ListLowStock(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range r.items {
		if p.IsActive && p.Quantity <= p.LowStockAlert {
			p.refreshStatus()
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, p Product) (Product, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.items[p.ID] = p
	p.refreshStatus()
	return p, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	p, ok := r.items[id]
	if !ok {
		return ErrProductNotFound
	}
	for col, v := range updates {
		switch col {
		case "sku":
			p.SKU = v.(string)
		case "name":
			p.Name = v.(string)
		case "category":
			p.Category = v.(string)
		case "description":
			p.Description = v.(string)
		case "unit":
			p.Unit = v.(string)
		case "price":
			p.Price = v.(decimal.Decimal)
		case "cost_price":
			p.CostPrice = v.(decimal.Decimal)
		case "low_stock_alert":
			p.LowStockAlert = v.(int)
		case "is_active":
			p.IsActive = v.(bool)
		case "supplier":
			p.Supplier = v.(Supplier)
		}
	}
	r.items[id] = p
	return nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (Product, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) SetQuantity(ctx context.Context, id int64, qty int) error {
	p, ok := tx.repo.items[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Quantity = qty
	tx.repo.items[id] = p
	return nil
}

type countingCache struct{ bumps int }

func (c *countingCache) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

type recordingAudit struct{ logs []shared.AuditLog }

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func seedProduct(t *testing.T, svc *Service, sku string, qty int) Product {
	t.Helper()
	p, err := svc.Create(context.Background(), CreateInput{
		SKU:           sku,
		Name:          "Item " + sku,
		Category:      "grocery",
		Price:         decimal.RequireFromString("12.50"),
		CostPrice:     decimal.RequireFromString("8.00"),
		Quantity:      qty,
		LowStockAlert: 5,
	})
	require.NoError(t, err)
	return p
}

func TestDeriveStatus(t *testing.T) {
	require.Equal(t, StatusDiscontinued, DeriveStatus(false, 50, 5))
	require.Equal(t, StatusOutOfStock, DeriveStatus(true, 0, 5))
	require.Equal(t, StatusLowStock, DeriveStatus(true, 5, 5))
	require.Equal(t, StatusLowStock, DeriveStatus(true, 1, 5))
	require.Equal(t, StatusInStock, DeriveStatus(true, 6, 5))
	require.Equal(t, StatusOutOfStock, DeriveStatus(true, 0, 0))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("low_stock")
	require.NoError(t, err)
	require.Equal(t, StatusLowStock, s)
	s, err = ParseStatus("Out of Stock")
	require.NoError(t, err)
	require.Equal(t, StatusOutOfStock, s)
	_, err = ParseStatus("sold")
	require.True(t, shared.IsValidation(err))
}

func TestCreateRejectsDuplicateSKU(t *testing.T) {
	cache := &countingCache{}
	audit := &recordingAudit{}
	svc := NewService(newMemoryRepo(), audit, cache, nil)
	p := seedProduct(t, svc, "SKU-1", 10)
	require.Equal(t, StatusInStock, p.Status)
	require.Equal(t, "pcs", p.Unit)
	require.Equal(t, 1, cache.bumps)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "product.created", audit.logs[0].Action)

	_, err := svc.Create(context.Background(), CreateInput{SKU: "SKU-1", Name: "Dup", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, ErrSKUExists)
}

func TestCreateValidatesNumbers(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	_, err := svc.Create(context.Background(), CreateInput{
		SKU:      "X",
		Name:     "Broken",
		Price:    decimal.NewFromInt(-1),
		Quantity: -2,
	})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	details := verr.Details.(map[string]string)
	require.Contains(t, details, "price")
	require.Contains(t, details, "quantity")
}

func TestAdjustStockGuardsNegativeQuantity(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	p := seedProduct(t, svc, "SKU-2", 3)

	_, err := svc.AdjustStock(context.Background(), StockAdjustment{ProductID: p.ID, Delta: -4})
	require.True(t, shared.IsValidation(err))
	got, _ := svc.Get(context.Background(), p.ID)
	require.Equal(t, 3, got.Quantity)

	got, err = svc.AdjustStock(context.Background(), StockAdjustment{ProductID: p.ID, Delta: -3, Reason: "damaged"})
	require.NoError(t, err)
	require.Equal(t, 0, got.Quantity)
	require.Equal(t, StatusOutOfStock, got.Status)

	_, err = svc.AdjustStock(context.Background(), StockAdjustment{ProductID: 999, Delta: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeactivateIsSoftDelete(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	p := seedProduct(t, svc, "SKU-3", 20)

	got, err := svc.Deactivate(context.Background(), p.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Equal(t, StatusDiscontinued, got.Status)
	require.Contains(t, repo.items, p.ID)
}

func TestUpdateChecksSKUUniqueness(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	a := seedProduct(t, svc, "A", 1)
	seedProduct(t, svc, "B", 1)

	dup := "B"
	_, err := svc.Update(context.Background(), a.ID, UpdateInput{SKU: &dup})
	require.ErrorIs(t, err, ErrSKUExists)

	price := decimal.RequireFromString("3.333")
	got, err := svc.Update(context.Background(), a.ID, UpdateInput{Price: &price})
	require.NoError(t, err)
	require.Equal(t, "3.33", got.Price.StringFixed(2))
}
