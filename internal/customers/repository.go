package customers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
)

const phoneConstraint = "customers_phone_key"

// Repository abstracts customer persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Customer, error)
	GetByPhone(ctx context.Context, phone string) (Customer, error)
	List(ctx context.Context, filter ListFilter) ([]Customer, int, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
}

// TxRepository holds the operations of the cascade delete unit of work.
type TxRepository interface {
	LockCustomer(ctx context.Context, id int64) (Customer, error)
	ListUnpaidBills(ctx context.Context, customerID int64) ([]BlockingBill, error)
	DeleteCascade(ctx context.Context, customerID int64) (DeleteSummary, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
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

// CustomerColumns is the select list understood by ScanCustomer.
const CustomerColumns = `id, name, phone, email, address, notes, total_due, credit_limit, is_active, created_at, updated_at`

// ScanCustomer reads one customer row, mapping no rows to ErrNotFound.
func ScanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.TotalDue, &c.CreditLimit,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	return ScanCustomer(r.db.QueryRow(ctx, `SELECT `+CustomerColumns+` FROM customers WHERE id = $1`, id))
}

func (r *repository) GetByPhone(ctx context.Context, phone string) (Customer, error) {
	return ScanCustomer(r.db.QueryRow(ctx, `SELECT `+CustomerColumns+` FROM customers WHERE phone = $1`, phone))
}

func (r *repository) LockCustomer(ctx context.Context, id int64) (Customer, error) {
	return ScanCustomer(r.db.QueryRow(ctx, `SELECT `+CustomerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id))
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filter.Active)
		argPos++
	}
	if filter.HasDue != nil {
		if *filter.HasDue {
			conditions = append(conditions, "total_due > 0")
		} else {
			conditions = append(conditions, "total_due = 0")
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		CustomerColumns, whereClause, argPos, argPos+1)
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := ScanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) (Customer, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO customers (name, phone, email, address, notes, credit_limit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+CustomerColumns,
		c.Name, c.Phone, c.Email, c.Address, c.Notes, c.CreditLimit, c.IsActive)
	created, err := ScanCustomer(row)
	if err != nil {
		if db.IsUniqueViolation(err, phoneConstraint) {
			return Customer{}, ErrPhoneExists
		}
		return Customer{}, fmt.Errorf("customers: create: %w", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	columns := make([]string, 0, len(updates))
	for col := range updates {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	setParts := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, updates[col])
	}
	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE customers SET %s WHERE id = $%d", strings.Join(setParts, ", "), len(args))
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err, phoneConstraint) {
			return ErrPhoneExists
		}
		return fmt.Errorf("customers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListUnpaidBills(ctx context.Context, customerID int64) ([]BlockingBill, error) {
	rows, err := r.db.Query(ctx, `SELECT id, bill_number, due_amount FROM bills
		WHERE customer_id = $1 AND due_amount > 0 ORDER BY bill_date, id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BlockingBill
	for rows.Next() {
		var b BlockingBill
		if err := rows.Scan(&b.ID, &b.BillNumber, &b.DueAmount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) DeleteCascade(ctx context.Context, customerID int64) (DeleteSummary, error) {
	var summary DeleteSummary
	tag, err := r.db.Exec(ctx, `DELETE FROM payments WHERE customer_id = $1`, customerID)
	if err != nil {
		return summary, fmt.Errorf("customers: delete payments: %w", err)
	}
	summary.Payments = tag.RowsAffected()

	tag, err = r.db.Exec(ctx, `DELETE FROM bills WHERE customer_id = $1`, customerID)
	if err != nil {
		return summary, fmt.Errorf("customers: delete bills: %w", err)
	}
	summary.Bills = tag.RowsAffected()

	tag, err = r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, customerID)
	if err != nil {
		return summary, fmt.Errorf("customers: delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return summary, ErrNotFound
	}
	return summary, nil
}
