package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
	"github.com/odyssey-erp/odyssey-pos/internal/products"
)

// LowStockLister lists active products at or below their threshold.
type LowStockLister interface {
	LowStock(ctx context.Context) ([]products.Product, error)
}

// LowStockGauge publishes the number of low stock products.
type LowStockGauge interface {
	SetLowStock(n int)
}

// LowStockJob logs products that need restocking.
type LowStockJob struct {
	Products LowStockLister
	Gauge    LowStockGauge
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle executes the scan.
func (j *LowStockJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Products == nil {
		return errors.New("low stock scan: handler not configured")
	}
	tracker := j.Metrics.Track(TaskLowStockScan)
	defer func() { err = tracker.End(err) }()

	logger := loggerOrDefault(j.Logger).With(slog.String("job", TaskLowStockScan))
	items, err := j.Products.LowStock(ctx)
	if err != nil {
		logger.Error("low stock scan failed", slog.Any("error", err))
		return err
	}
	for _, p := range items {
		logger.Warn("product low on stock",
			slog.Int64("product_id", p.ID),
			slog.String("sku", p.SKU),
			slog.String("name", p.Name),
			slog.Int("quantity", p.Quantity),
			slog.Int("threshold", p.LowStockAlert),
		)
	}
	if j.Gauge != nil {
		j.Gauge.SetLowStock(len(items))
	}
	logger.Info("low stock scan completed", slog.Int("products", len(items)))
	return nil
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
