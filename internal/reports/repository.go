package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the read-only aggregation queries.
type Repository interface {
	SalesByDay(ctx context.Context, from, to time.Time, tz string) ([]DailySales, error)
	InventoryRows(ctx context.Context) ([]ProductValuation, error)
	ExpensesByCategory(ctx context.Context, from, to time.Time) ([]CategoryAmount, error)
	MonthlyFigures(ctx context.Context, year int, tz string) ([]MonthFigures, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error)
	Outstanding(ctx context.Context) ([]OutstandingCustomer, error)
	LowStockCount(ctx context.Context) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) SalesByDay(ctx context.Context, from, to time.Time, tz string) ([]DailySales, error) {
	rows, err := r.pool.Query(ctx, `SELECT to_char(bill_date AT TIME ZONE $3, 'YYYY-MM-DD') AS day,
		COUNT(*), COALESCE(SUM(total), 0), COALESCE(SUM(paid_amount), 0), COALESCE(SUM(due_amount), 0)
		FROM bills
		WHERE type = 'sale' AND bill_date >= $1 AND bill_date < $2
		GROUP BY day ORDER BY day`, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("reports: sales by day: %w", err)
	}
	defer rows.Close()
	var out []DailySales
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Date, &d.Count, &d.Total, &d.PaidAmount, &d.DueAmount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repository) InventoryRows(ctx context.Context) ([]ProductValuation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sku, name, category, quantity, cost_price, price
		FROM products WHERE is_active ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("reports: inventory: %w", err)
	}
	defer rows.Close()
	var out []ProductValuation
	for rows.Next() {
		var p ProductValuation
		if err := rows.Scan(&p.ProductID, &p.SKU, &p.Name, &p.Category, &p.Quantity, &p.CostPrice, &p.Price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ExpensesByCategory(ctx context.Context, from, to time.Time) ([]CategoryAmount, error) {
	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*), SUM(amount) AS amount
		FROM expenses WHERE expense_date >= $1 AND expense_date <= $2
		GROUP BY category ORDER BY amount DESC, category`, from, to)
	if err != nil {
		return nil, fmt.Errorf("reports: expenses by category: %w", err)
	}
	defer rows.Close()
	var out []CategoryAmount
	for rows.Next() {
		var c CategoryAmount
		if err := rows.Scan(&c.Category, &c.Count, &c.Amount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) MonthlyFigures(ctx context.Context, year int, tz string) ([]MonthFigures, error) {
	rows, err := r.pool.Query(ctx, `WITH months AS (SELECT generate_series(1, 12) AS month),
	sales AS (
		SELECT EXTRACT(MONTH FROM bill_date AT TIME ZONE $2)::int AS month, SUM(total) AS amount
		FROM bills
		WHERE type = 'sale' AND EXTRACT(YEAR FROM bill_date AT TIME ZONE $2)::int = $1
		GROUP BY 1
	),
	cogs AS (
		SELECT EXTRACT(MONTH FROM b.bill_date AT TIME ZONE $2)::int AS month, SUM(i.quantity * p.cost_price) AS amount
		FROM bill_items i
		JOIN bills b ON b.id = i.bill_id
		JOIN products p ON p.id = i.product_id
		WHERE b.type = 'sale' AND EXTRACT(YEAR FROM b.bill_date AT TIME ZONE $2)::int = $1
		GROUP BY 1
	),
	spend AS (
		SELECT EXTRACT(MONTH FROM expense_date)::int AS month, SUM(amount) AS amount
		FROM expenses
		WHERE EXTRACT(YEAR FROM expense_date)::int = $1
		GROUP BY 1
	)
	SELECT m.month, COALESCE(s.amount, 0), COALESCE(c.amount, 0), COALESCE(e.amount, 0)
	FROM months m
	LEFT JOIN sales s ON s.month = m.month
	LEFT JOIN cogs c ON c.month = m.month
	LEFT JOIN spend e ON e.month = m.month
	ORDER BY m.month`, year, tz)
	if err != nil {
		return nil, fmt.Errorf("reports: monthly figures: %w", err)
	}
	defer rows.Close()
	var out []MonthFigures
	for rows.Next() {
		var m MonthFigures
		if err := rows.Scan(&m.Month, &m.Sales, &m.CostOfGoods, &m.Expenses); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.sku, p.name, p.category, SUM(i.quantity)::bigint, SUM(i.total) AS revenue
		FROM bill_items i
		JOIN bills b ON b.id = i.bill_id
		JOIN products p ON p.id = i.product_id
		WHERE b.type = 'sale' AND b.bill_date >= $1 AND b.bill_date < $2
		GROUP BY p.id, p.sku, p.name, p.category
		ORDER BY revenue DESC, p.id
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("reports: top products: %w", err)
	}
	defer rows.Close()
	var out []TopProduct
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.SKU, &p.Name, &p.Category, &p.Quantity, &p.Revenue); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Outstanding(ctx context.Context) ([]OutstandingCustomer, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.name, c.phone, c.total_due,
		(SELECT MAX(b.bill_date) FROM bills b WHERE b.customer_id = c.id),
		(SELECT MAX(p.paid_at) FROM payments p WHERE p.customer_id = c.id)
		FROM customers c
		WHERE c.total_due > 0
		ORDER BY c.total_due DESC, c.id`)
	if err != nil {
		return nil, fmt.Errorf("reports: outstanding: %w", err)
	}
	defer rows.Close()
	var out []OutstandingCustomer
	for rows.Next() {
		var c OutstandingCustomer
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.Phone, &c.TotalDue, &c.LastBillDate, &c.LastPaymentDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) LowStockCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE is_active AND quantity <= low_stock_alert`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("reports: low stock count: %w", err)
	}
	return n, nil
}
