package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RowQuerier is satisfied by pgx.Tx, *pgxpool.Pool and *pgx.Conn.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NextSequence atomically increments the named counter and returns the new value.
// Called inside a transaction the increment is rolled back with it.
func NextSequence(ctx context.Context, q RowQuerier, name string) (int64, error) {
	const stmt = `INSERT INTO document_sequences (name, value) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET value = document_sequences.value + 1
RETURNING value`
	var value int64
	if err := q.QueryRow(ctx, stmt, name).Scan(&value); err != nil {
		return 0, fmt.Errorf("platform/db: next sequence %s: %w", name, err)
	}
	return value, nil
}
