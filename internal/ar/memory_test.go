package ar

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/customers"
)

type memProduct struct {
	Name     string
	SKU      string
	Category string
	Quantity int
	Active   bool
}

// memoryStore implements Repository and TxRepository with snapshot rollback.
type memoryStore struct {
	customers map[int64]customers.Customer
	products  map[int64]memProduct
	bills     map[int64]Bill
	payments  map[int64]Payment
	sequences map[string]int64

	nextBillID    int64
	nextPaymentID int64
	nextRowID     int64
	txCount       int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		customers: make(map[int64]customers.Customer),
		products:  make(map[int64]memProduct),
		bills:     make(map[int64]Bill),
		payments:  make(map[int64]Payment),
		sequences: make(map[string]int64),
	}
}

func (m *memoryStore) addCustomer(id int64, name string) {
	m.customers[id] = customers.Customer{ID: id, Name: name, Phone: "90000" + name, IsActive: true}
}

func (m *memoryStore) addProduct(id int64, name, category string, qty int) {
	m.products[id] = memProduct{Name: name, SKU: strings.ToUpper(name), Category: category, Quantity: qty, Active: true}
}

func cloneBill(b Bill) Bill {
	b.Items = slices.Clone(b.Items)
	b.Payments = slices.Clone(b.Payments)
	return b
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.txCount++
	custs := maps.Clone(m.customers)
	prods := maps.Clone(m.products)
	bills := make(map[int64]Bill, len(m.bills))
	for id, b := range m.bills {
		bills[id] = cloneBill(b)
	}
	pays := maps.Clone(m.payments)
	seqs := maps.Clone(m.sequences)
	if err := fn(ctx, m); err != nil {
		m.customers, m.products, m.bills, m.payments, m.sequences = custs, prods, bills, pays, seqs
		return err
	}
	return nil
}

func (m *memoryStore) populate(b Bill) Bill {
	b = cloneBill(b)
	c := m.customers[b.CustomerID]
	b.Customer = CustomerRef{ID: c.ID, Name: c.Name, Phone: c.Phone}
	for i, it := range b.Items {
		p := m.products[it.ProductID]
		b.Items[i].ProductName = p.Name
		b.Items[i].SKU = p.SKU
		b.Items[i].Category = p.Category
	}
	if b.Payments == nil {
		b.Payments = []BillPayment{}
	}
	return b
}

func (m *memoryStore) GetBill(ctx context.Context, id int64) (Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return Bill{}, ErrBillNotFound
	}
	return m.populate(b), nil
}

func (m *memoryStore) sortedBills(keep func(Bill) bool) []Bill {
	var out []Bill
	for _, b := range m.bills {
		if keep(b) {
			out = append(out, m.populate(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BillDate.Equal(out[j].BillDate) {
			return out[i].BillDate.Before(out[j].BillDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memoryStore) ListBills(ctx context.Context, f BillFilter) ([]Bill, int, error) {
	out := m.sortedBills(func(b Bill) bool {
		return (f.CustomerID == 0 || b.CustomerID == f.CustomerID) &&
			(f.PaymentStatus == "" || b.PaymentStatus == f.PaymentStatus) &&
			(f.Status == "" || b.Status == f.Status)
	})
	return out, len(out), nil
}

func (m *memoryStore) ListBillsBetween(ctx context.Context, from, to time.Time) ([]Bill, error) {
	return m.sortedBills(func(b Bill) bool {
		return !b.BillDate.Before(from) && b.BillDate.Before(to)
	}), nil
}

func (m *memoryStore) ListCustomerBills(ctx context.Context, customerID int64) ([]Bill, error) {
	return m.sortedBills(func(b Bill) bool { return b.CustomerID == customerID }), nil
}

func (m *memoryStore) ListOpenBillsForUpdate(ctx context.Context, customerID int64) ([]Bill, error) {
	return m.sortedBills(func(b Bill) bool { return b.CustomerID == customerID && b.DueAmount.IsPositive() }), nil
}

func (m *memoryStore) GetPayment(ctx context.Context, id int64) (Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return Payment{}, ErrPaymentNotFound
	}
	p.Allocations = nil
	for _, b := range m.sortedBills(func(Bill) bool { return true }) {
		for _, entry := range b.Payments {
			if entry.PaymentID != nil && *entry.PaymentID == id {
				p.Allocations = append(p.Allocations, Allocation{
					BillID: b.ID, BillNumber: b.BillNumber, Amount: entry.Amount, DueAfter: entry.DueAfter,
				})
			}
		}
	}
	return p, nil
}

func (m *memoryStore) ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, int, error) {
	out, _ := m.ListCustomerPayments(ctx, f.CustomerID)
	return out, len(out), nil
}

func (m *memoryStore) ListCustomerPayments(ctx context.Context, customerID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range m.payments {
		if customerID == 0 || p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) GetCustomer(ctx context.Context, id int64) (customers.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return customers.Customer{}, customers.ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) FindDrift(ctx context.Context) ([]Drift, error) {
	var out []Drift
	for _, c := range m.customers {
		sum, _ := m.SumCustomerBillsDue(ctx, c.ID)
		if !sum.Equal(c.TotalDue) {
			out = append(out, Drift{CustomerID: c.ID, Name: c.Name, TotalDue: c.TotalDue, BillsDue: sum})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}

func (m *memoryStore) NextSequence(ctx context.Context, name string) (int64, error) {
	m.sequences[name]++
	return m.sequences[name], nil
}

func (m *memoryStore) LockCustomer(ctx context.Context, id int64) (customers.Customer, error) {
	return m.GetCustomer(ctx, id)
}

func (m *memoryStore) LockBillCustomer(ctx context.Context, billID int64) (customers.Customer, error) {
	b, ok := m.bills[billID]
	if !ok {
		return customers.Customer{}, ErrBillNotFound
	}
	return m.GetCustomer(ctx, b.CustomerID)
}

func (m *memoryStore) AdjustCustomerDue(ctx context.Context, id int64, delta decimal.Decimal) error {
	c, ok := m.customers[id]
	if !ok {
		return customers.ErrNotFound
	}
	c.TotalDue = decimal.Max(c.TotalDue.Add(delta), decimal.Zero)
	m.customers[id] = c
	return nil
}

func (m *memoryStore) SetCustomerDue(ctx context.Context, id int64, due decimal.Decimal) error {
	c, ok := m.customers[id]
	if !ok {
		return customers.ErrNotFound
	}
	c.TotalDue = due
	m.customers[id] = c
	return nil
}

func (m *memoryStore) SumCustomerBillsDue(ctx context.Context, id int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, b := range m.bills {
		if b.CustomerID == id {
			sum = sum.Add(b.DueAmount)
		}
	}
	return sum, nil
}

func (m *memoryStore) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	p, ok := m.products[productID]
	if !ok || !p.Active || p.Quantity < qty {
		return false, nil
	}
	p.Quantity -= qty
	m.products[productID] = p
	return true, nil
}

func (m *memoryStore) RestoreStock(ctx context.Context, productID int64, qty int) error {
	p := m.products[productID]
	p.Quantity += qty
	m.products[productID] = p
	return nil
}

func (m *memoryStore) StockLevel(ctx context.Context, productID int64) (StockLevel, error) {
	p, ok := m.products[productID]
	if !ok {
		return StockLevel{}, errProductMissing
	}
	return StockLevel{ProductID: productID, Name: p.Name, Quantity: p.Quantity, IsActive: p.Active}, nil
}

func (m *memoryStore) InsertBill(ctx context.Context, b *Bill) error {
	for _, other := range m.bills {
		if other.BillNumber == b.BillNumber {
			return errDuplicateNumber
		}
	}
	m.nextBillID++
	b.ID = m.nextBillID
	b.CreatedAt = b.BillDate
	b.UpdatedAt = b.BillDate
	for i := range b.Items {
		m.nextRowID++
		b.Items[i].ID = m.nextRowID
	}
	m.bills[b.ID] = cloneBill(*b)
	return nil
}

func (m *memoryStore) GetBillForUpdate(ctx context.Context, id int64) (Bill, error) {
	return m.GetBill(ctx, id)
}

func (m *memoryStore) UpdateBillAmounts(ctx context.Context, b Bill) error {
	stored, ok := m.bills[b.ID]
	if !ok {
		return ErrBillNotFound
	}
	if b.DueAmount.IsNegative() || !b.DueAmount.Equal(b.Total.Sub(b.PaidAmount)) {
		return errBalanceCheck
	}
	stored.PaidAmount, stored.DueAmount = b.PaidAmount, b.DueAmount
	stored.PaymentStatus, stored.Status = b.PaymentStatus, b.Status
	m.bills[b.ID] = stored
	return nil
}

func (m *memoryStore) InsertBillPayment(ctx context.Context, billID int64, p *BillPayment) error {
	stored, ok := m.bills[billID]
	if !ok {
		return ErrBillNotFound
	}
	m.nextRowID++
	p.ID = m.nextRowID
	stored.Payments = append(slices.Clone(stored.Payments), *p)
	m.bills[billID] = stored
	return nil
}

func (m *memoryStore) UpdateBillDetails(ctx context.Context, id int64, updates map[string]any) error {
	b, ok := m.bills[id]
	if !ok {
		return ErrBillNotFound
	}
	for col, v := range updates {
		switch col {
		case "status":
			b.Status = v.(BillStatus)
		case "type":
			b.Type = v.(BillType)
		case "payment_method":
			b.PaymentMethod = v.(PaymentMethod)
		case "notes":
			b.Notes = v.(string)
		case "bill_date":
			b.BillDate = v.(time.Time)
		case "due_date":
			d := v.(time.Time)
			b.DueDate = &d
		case "metadata":
			b.Metadata = v.(Metadata)
		}
	}
	m.bills[id] = b
	return nil
}

func (m *memoryStore) DeleteBill(ctx context.Context, id int64) error {
	if _, ok := m.bills[id]; !ok {
		return ErrBillNotFound
	}
	delete(m.bills, id)
	return nil
}

func (m *memoryStore) InsertPayment(ctx context.Context, p *Payment) error {
	m.nextPaymentID++
	p.ID = m.nextPaymentID
	p.CreatedAt = p.PaidAt
	m.payments[p.ID] = *p
	return nil
}
