package ar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/customers"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
)

// Repository abstracts bill and payment persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBill(ctx context.Context, id int64) (Bill, error)
	ListBills(ctx context.Context, filter BillFilter) ([]Bill, int, error)
	ListBillsBetween(ctx context.Context, from, to time.Time) ([]Bill, error)
	GetPayment(ctx context.Context, id int64) (Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, int, error)
	GetCustomer(ctx context.Context, id int64) (customers.Customer, error)
	ListCustomerBills(ctx context.Context, customerID int64) ([]Bill, error)
	ListCustomerPayments(ctx context.Context, customerID int64) ([]Payment, error)
	FindDrift(ctx context.Context) ([]Drift, error)
}

// TxRepository exposes the row-locked operations of the ledger unit of work.
type TxRepository interface {
	NextSequence(ctx context.Context, name string) (int64, error)
	LockCustomer(ctx context.Context, id int64) (customers.Customer, error)
	LockBillCustomer(ctx context.Context, billID int64) (customers.Customer, error)
	AdjustCustomerDue(ctx context.Context, id int64, delta decimal.Decimal) error
	SetCustomerDue(ctx context.Context, id int64, due decimal.Decimal) error
	SumCustomerBillsDue(ctx context.Context, id int64) (decimal.Decimal, error)
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
	RestoreStock(ctx context.Context, productID int64, qty int) error
	StockLevel(ctx context.Context, productID int64) (StockLevel, error)
	InsertBill(ctx context.Context, b *Bill) error
	GetBillForUpdate(ctx context.Context, id int64) (Bill, error)
	UpdateBillAmounts(ctx context.Context, b Bill) error
	InsertBillPayment(ctx context.Context, billID int64, p *BillPayment) error
	UpdateBillDetails(ctx context.Context, id int64, updates map[string]any) error
	DeleteBill(ctx context.Context, id int64) error
	ListOpenBillsForUpdate(ctx context.Context, customerID int64) ([]Bill, error)
	InsertPayment(ctx context.Context, p *Payment) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const billColumns = `b.id, b.bill_number, b.reference, b.customer_id, c.name, c.phone,
	b.subtotal, b.tax, b.discount, b.total, b.paid_amount, b.due_amount,
	b.payment_method, b.payment_status, b.status, b.type, b.bill_date, b.due_date,
	b.notes, b.metadata, b.created_by, b.created_at, b.updated_at`

const billFrom = ` FROM bills b JOIN customers c ON c.id = b.customer_id`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.BillNumber, &b.Reference, &b.CustomerID, &b.Customer.Name, &b.Customer.Phone,
		&b.Subtotal, &b.Tax, &b.Discount, &b.Total, &b.PaidAmount, &b.DueAmount,
		&b.PaymentMethod, &b.PaymentStatus, &b.Status, &b.Type, &b.BillDate, &b.DueDate,
		&b.Notes, &b.Metadata, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, ErrBillNotFound
		}
		return Bill{}, err
	}
	b.Customer.ID = b.CustomerID
	b.Items = []BillItem{}
	b.Payments = []BillPayment{}
	return b, nil
}

func (r *repository) queryBills(ctx context.Context, sql string, args ...any) ([]Bill, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// attachItems loads line items and payment history for bills in place.
func (r *repository) attachItems(ctx context.Context, bills []Bill, withHistory bool) error {
	if len(bills) == 0 {
		return nil
	}
	ids := make([]int64, len(bills))
	index := make(map[int64]int, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
		index[b.ID] = i
	}

	rows, err := r.db.Query(ctx, `SELECT i.bill_id, i.id, i.line_no, i.product_id, p.name, p.sku, p.category,
		i.quantity, i.price, i.discount, i.tax, i.total
		FROM bill_items i JOIN products p ON p.id = i.product_id
		WHERE i.bill_id = ANY($1) ORDER BY i.bill_id, i.line_no`, ids)
	if err != nil {
		return fmt.Errorf("ar: load items: %w", err)
	}
	for rows.Next() {
		var billID int64
		var it BillItem
		if err := rows.Scan(&billID, &it.ID, &it.LineNo, &it.ProductID, &it.ProductName, &it.SKU, &it.Category,
			&it.Quantity, &it.Price, &it.Discount, &it.Tax, &it.Total); err != nil {
			rows.Close()
			return err
		}
		b := &bills[index[billID]]
		b.Items = append(b.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if !withHistory {
		return nil
	}

	rows, err = r.db.Query(ctx, `SELECT bill_id, id, amount, payment_method, paid_at, payment_id, recorded_by, due_after
		FROM bill_payments WHERE bill_id = ANY($1) ORDER BY bill_id, paid_at, id`, ids)
	if err != nil {
		return fmt.Errorf("ar: load bill payments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var billID int64
		var p BillPayment
		if err := rows.Scan(&billID, &p.ID, &p.Amount, &p.Method, &p.PaidAt, &p.PaymentID, &p.RecordedBy, &p.DueAfter); err != nil {
			return err
		}
		b := &bills[index[billID]]
		b.Payments = append(b.Payments, p)
	}
	return rows.Err()
}

func (r *repository) GetBill(ctx context.Context, id int64) (Bill, error) {
	b, err := scanBill(r.db.QueryRow(ctx, `SELECT `+billColumns+billFrom+` WHERE b.id = $1`, id))
	if err != nil {
		return Bill{}, err
	}
	bills := []Bill{b}
	if err := r.attachItems(ctx, bills, true); err != nil {
		return Bill{}, err
	}
	return bills[0], nil
}

func (r *repository) GetBillForUpdate(ctx context.Context, id int64) (Bill, error) {
	b, err := scanBill(r.db.QueryRow(ctx, `SELECT `+billColumns+billFrom+` WHERE b.id = $1 FOR UPDATE OF b`, id))
	if err != nil {
		return Bill{}, err
	}
	bills := []Bill{b}
	if err := r.attachItems(ctx, bills, false); err != nil {
		return Bill{}, err
	}
	return bills[0], nil
}

func (r *repository) ListBills(ctx context.Context, filter BillFilter) ([]Bill, int, error) {
	var conditions []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.CustomerID > 0 {
		add("b.customer_id = $%d", filter.CustomerID)
	}
	if filter.PaymentStatus != "" {
		add("b.payment_status = $%d", filter.PaymentStatus)
	}
	if filter.Status != "" {
		add("b.status = $%d", filter.Status)
	}
	if filter.Type != "" {
		add("b.type = $%d", filter.Type)
	}
	if filter.From != nil {
		add("b.bill_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("b.bill_date < $%d", *filter.To)
	}
	if filter.Search != "" {
		add("b.bill_number ILIKE $%d", "%"+filter.Search+"%")
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+billFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ar: count bills: %w", err)
	}

	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	query := fmt.Sprintf(`SELECT `+billColumns+billFrom+where+` ORDER BY b.bill_date DESC, b.id DESC LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args))
	bills, err := r.queryBills(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ar: list bills: %w", err)
	}
	if err := r.attachItems(ctx, bills, false); err != nil {
		return nil, 0, err
	}
	return bills, total, nil
}

func (r *repository) ListBillsBetween(ctx context.Context, from, to time.Time) ([]Bill, error) {
	bills, err := r.queryBills(ctx, `SELECT `+billColumns+billFrom+`
		WHERE b.bill_date >= $1 AND b.bill_date < $2 ORDER BY b.bill_date, b.id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("ar: bills between: %w", err)
	}
	if err := r.attachItems(ctx, bills, false); err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repository) ListCustomerBills(ctx context.Context, customerID int64) ([]Bill, error) {
	bills, err := r.queryBills(ctx, `SELECT `+billColumns+billFrom+`
		WHERE b.customer_id = $1 ORDER BY b.bill_date, b.id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("ar: customer bills: %w", err)
	}
	if err := r.attachItems(ctx, bills, true); err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repository) ListOpenBillsForUpdate(ctx context.Context, customerID int64) ([]Bill, error) {
	bills, err := r.queryBills(ctx, `SELECT `+billColumns+billFrom+`
		WHERE b.customer_id = $1 AND b.due_amount > 0
		ORDER BY b.bill_date, b.id FOR UPDATE OF b`, customerID)
	if err != nil {
		return nil, fmt.Errorf("ar: open bills: %w", err)
	}
	return bills, nil
}

func (r *repository) InsertBill(ctx context.Context, b *Bill) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bills (bill_number, reference, customer_id, subtotal, tax, discount, total,
		paid_amount, due_amount, payment_method, payment_status, status, type, bill_date, due_date, notes, metadata, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at`,
		b.BillNumber, b.Reference, b.CustomerID, b.Subtotal, b.Tax, b.Discount, b.Total,
		b.PaidAmount, b.DueAmount, b.PaymentMethod, b.PaymentStatus, b.Status, b.Type, b.BillDate, b.DueDate,
		b.Notes, b.Metadata, b.CreatedBy,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ar: insert bill: %w", err)
	}

	batch := &pgx.Batch{}
	for _, it := range b.Items {
		batch.Queue(`INSERT INTO bill_items (bill_id, line_no, product_id, quantity, price, discount, tax, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			b.ID, it.LineNo, it.ProductID, it.Quantity, it.Price, it.Discount, it.Tax, it.Total)
	}
	results := r.db.SendBatch(ctx, batch)
	for i := range b.Items {
		if err := results.QueryRow().Scan(&b.Items[i].ID); err != nil {
			_ = results.Close()
			return fmt.Errorf("ar: insert bill item %d: %w", b.Items[i].LineNo, err)
		}
	}
	return results.Close()
}

func (r *repository) UpdateBillAmounts(ctx context.Context, b Bill) error {
	tag, err := r.db.Exec(ctx, `UPDATE bills SET paid_amount = $2, due_amount = $3, payment_status = $4, status = $5,
		updated_at = NOW() WHERE id = $1`, b.ID, b.PaidAmount, b.DueAmount, b.PaymentStatus, b.Status)
	if err != nil {
		return fmt.Errorf("ar: update bill amounts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

func (r *repository) InsertBillPayment(ctx context.Context, billID int64, p *BillPayment) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bill_payments (bill_id, payment_id, amount, payment_method, paid_at, recorded_by, due_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		billID, p.PaymentID, p.Amount, p.Method, p.PaidAt, p.RecordedBy, p.DueAfter).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("ar: insert bill payment: %w", err)
	}
	return nil
}

var billDetailColumns = map[string]struct{}{
	"status": {}, "type": {}, "payment_method": {}, "notes": {}, "bill_date": {}, "due_date": {}, "metadata": {},
}

func (r *repository) UpdateBillDetails(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	cols := make([]string, 0, len(updates))
	for col := range updates {
		if _, ok := billDetailColumns[col]; !ok {
			return fmt.Errorf("ar: column %q is not patchable", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, updates[col])
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE bills SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		return fmt.Errorf("ar: update bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

func (r *repository) DeleteBill(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ar: delete bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

func (r *repository) NextSequence(ctx context.Context, name string) (int64, error) {
	return db.NextSequence(ctx, r.db, name)
}

func (r *repository) GetCustomer(ctx context.Context, id int64) (customers.Customer, error) {
	return customers.ScanCustomer(r.db.QueryRow(ctx, `SELECT `+customers.CustomerColumns+` FROM customers WHERE id = $1`, id))
}

func (r *repository) LockCustomer(ctx context.Context, id int64) (customers.Customer, error) {
	return customers.ScanCustomer(r.db.QueryRow(ctx, `SELECT `+customers.CustomerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id))
}

func (r *repository) LockBillCustomer(ctx context.Context, billID int64) (customers.Customer, error) {
	var customerID int64
	if err := r.db.QueryRow(ctx, `SELECT customer_id FROM bills WHERE id = $1`, billID).Scan(&customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return customers.Customer{}, ErrBillNotFound
		}
		return customers.Customer{}, err
	}
	return r.LockCustomer(ctx, customerID)
}

func (r *repository) AdjustCustomerDue(ctx context.Context, id int64, delta decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET total_due = GREATEST(total_due + $2, 0), updated_at = NOW()
		WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("ar: adjust customer due: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return customers.ErrNotFound
	}
	return nil
}

func (r *repository) SetCustomerDue(ctx context.Context, id int64, due decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET total_due = $2, updated_at = NOW() WHERE id = $1`, id, due)
	if err != nil {
		return fmt.Errorf("ar: set customer due: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return customers.ErrNotFound
	}
	return nil
}

func (r *repository) SumCustomerBillsDue(ctx context.Context, id int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(due_amount), 0) FROM bills WHERE customer_id = $1`, id).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ar: sum bills due: %w", err)
	}
	return sum, nil
}

func (r *repository) FindDrift(ctx context.Context) ([]Drift, error) {
	rows, err := r.db.Query(ctx, `SELECT c.id, c.name, c.total_due, COALESCE(SUM(b.due_amount), 0) AS bills_due
		FROM customers c LEFT JOIN bills b ON b.customer_id = c.id
		GROUP BY c.id, c.name, c.total_due
		HAVING c.total_due <> COALESCE(SUM(b.due_amount), 0)
		ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("ar: find drift: %w", err)
	}
	defer rows.Close()
	var out []Drift
	for rows.Next() {
		var d Drift
		if err := rows.Scan(&d.CustomerID, &d.Name, &d.TotalDue, &d.BillsDue); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repository) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE products SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND is_active AND quantity >= $2`, productID, qty)
	if err != nil {
		return false, fmt.Errorf("ar: decrement stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) RestoreStock(ctx context.Context, productID int64, qty int) error {
	_, err := r.db.Exec(ctx, `UPDATE products SET quantity = quantity + $2, updated_at = NOW() WHERE id = $1`, productID, qty)
	if err != nil {
		return fmt.Errorf("ar: restore stock: %w", err)
	}
	return nil
}

func (r *repository) StockLevel(ctx context.Context, productID int64) (StockLevel, error) {
	lvl := StockLevel{ProductID: productID}
	err := r.db.QueryRow(ctx, `SELECT name, quantity, is_active FROM products WHERE id = $1`, productID).
		Scan(&lvl.Name, &lvl.Quantity, &lvl.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockLevel{}, errProductMissing
		}
		return StockLevel{}, err
	}
	return lvl, nil
}

const paymentColumns = `id, payment_number, customer_id, amount, payment_method, balance_after, unallocated_amount,
	notes, recorded_by, paid_at, created_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.PaymentNumber, &p.CustomerID, &p.Amount, &p.PaymentMethod, &p.BalanceAfter,
		&p.UnallocatedAmount, &p.Notes, &p.RecordedBy, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) queryPayments(ctx context.Context, sql string, args ...any) ([]Payment, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) InsertPayment(ctx context.Context, p *Payment) error {
	err := r.db.QueryRow(ctx, `INSERT INTO payments (payment_number, customer_id, amount, payment_method, balance_after,
		unallocated_amount, notes, recorded_by, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`,
		p.PaymentNumber, p.CustomerID, p.Amount, p.PaymentMethod, p.BalanceAfter, p.UnallocatedAmount,
		p.Notes, p.RecordedBy, p.PaidAt).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("ar: insert payment: %w", err)
	}
	return nil
}

func (r *repository) GetPayment(ctx context.Context, id int64) (Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return Payment{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT bp.bill_id, b.bill_number, bp.amount, bp.due_after
		FROM bill_payments bp JOIN bills b ON b.id = bp.bill_id
		WHERE bp.payment_id = $1 ORDER BY bp.id`, id)
	if err != nil {
		return Payment{}, fmt.Errorf("ar: load allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a Allocation
		if err := rows.Scan(&a.BillID, &a.BillNumber, &a.Amount, &a.DueAfter); err != nil {
			return Payment{}, err
		}
		p.Allocations = append(p.Allocations, a)
	}
	return p, rows.Err()
}

func (r *repository) ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, int, error) {
	var conditions []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.CustomerID > 0 {
		add("customer_id = $%d", filter.CustomerID)
	}
	if filter.From != nil {
		add("paid_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("paid_at < $%d", *filter.To)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ar: count payments: %w", err)
	}
	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	query := fmt.Sprintf(`SELECT `+paymentColumns+` FROM payments`+where+` ORDER BY paid_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args))
	out, err := r.queryPayments(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ar: list payments: %w", err)
	}
	return out, total, nil
}

func (r *repository) ListCustomerPayments(ctx context.Context, customerID int64) ([]Payment, error) {
	out, err := r.queryPayments(ctx, `SELECT `+paymentColumns+` FROM payments WHERE customer_id = $1 ORDER BY paid_at, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("ar: customer payments: %w", err)
	}
	return out, nil
}
