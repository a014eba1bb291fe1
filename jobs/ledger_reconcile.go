package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/ar"
	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
)

// ReconcileRepository is the slice of the ledger repository the reconcile job needs.
type ReconcileRepository interface {
	FindDrift(ctx context.Context) ([]ar.Drift, error)
	WithTx(ctx context.Context, fn func(context.Context, ar.TxRepository) error) error
}

// DriftCounter counts customers found out of balance.
type DriftCounter interface {
	AddLedgerDrift(n int)
}

// ReportInvalidator drops cached reports after balances are rewritten.
type ReportInvalidator interface {
	Bump(ctx context.Context) error
}

// ReconcileResult summarises a run.
type ReconcileResult struct {
	Drifted  int
	Repaired int
}

// LedgerReconcileJob checks that every customer's total due equals the sum of their bill dues.
type LedgerReconcileJob struct {
	Repo    ReconcileRepository
	Drift   DriftCounter
	Reports ReportInvalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle executes the reconcile task.
func (j *LedgerReconcileJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload LedgerReconcilePayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}
	tracker := j.Metrics.Track(TaskLedgerReconcile)
	defer func() { err = tracker.End(err) }()
	_, err = j.Run(ctx, payload.Repair)
	return err
}

// Run reports drifted customers and, when repair is set, rewrites their total due.
func (j *LedgerReconcileJob) Run(ctx context.Context, repair bool) (ReconcileResult, error) {
	if j == nil || j.Repo == nil {
		return ReconcileResult{}, errors.New("ledger reconcile: handler not configured")
	}
	logger := loggerOrDefault(j.Logger).With(slog.String("job", TaskLedgerReconcile), slog.Bool("repair", repair))

	drifts, err := j.Repo.FindDrift(ctx)
	if err != nil {
		logger.Error("find drift failed", slog.Any("error", err))
		return ReconcileResult{}, err
	}
	res := ReconcileResult{Drifted: len(drifts)}
	for _, d := range drifts {
		logger.Warn("customer ledger drift",
			slog.Int64("customer_id", d.CustomerID),
			slog.String("name", d.Name),
			slog.String("total_due", d.TotalDue.StringFixed(2)),
			slog.String("bills_due", d.BillsDue.StringFixed(2)),
			slog.String("difference", d.Difference().StringFixed(2)),
		)
	}
	if j.Drift != nil {
		j.Drift.AddLedgerDrift(len(drifts))
	}
	if !repair {
		logger.Info("ledger reconcile completed", slog.Int("drifted", res.Drifted))
		return res, nil
	}

	for _, d := range drifts {
		var fixed decimal.Decimal
		err := j.Repo.WithTx(ctx, func(ctx context.Context, tx ar.TxRepository) error {
			if _, err := tx.LockCustomer(ctx, d.CustomerID); err != nil {
				return err
			}
			sum, err := tx.SumCustomerBillsDue(ctx, d.CustomerID)
			if err != nil {
				return err
			}
			fixed = sum
			return tx.SetCustomerDue(ctx, d.CustomerID, sum)
		})
		if err != nil {
			j.invalidateReports(ctx, logger, res.Repaired)
			return res, fmt.Errorf("repair customer %d: %w", d.CustomerID, err)
		}
		res.Repaired++
		logger.Info("customer balance repaired",
			slog.Int64("customer_id", d.CustomerID),
			slog.String("total_due", fixed.StringFixed(2)),
		)
	}
	j.invalidateReports(ctx, logger, res.Repaired)
	logger.Info("ledger reconcile completed", slog.Int("drifted", res.Drifted), slog.Int("repaired", res.Repaired))
	return res, nil
}

func (j *LedgerReconcileJob) invalidateReports(ctx context.Context, logger *slog.Logger, repaired int) {
	if repaired == 0 || j.Reports == nil {
		return
	}
	if err := j.Reports.Bump(ctx); err != nil {
		logger.Warn("report cache bump failed", slog.Any("error", err))
	}
}
