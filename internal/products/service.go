package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator drops derived read models after catalog changes.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service coordinates catalog operations.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	cache  Invalidator
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, cache: cache, logger: logger}
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	input.SKU = strings.TrimSpace(input.SKU)
	input.Name = strings.TrimSpace(input.Name)
	details := map[string]string{}
	if input.SKU == "" {
		details["sku"] = "is required"
	}
	if input.Name == "" {
		details["name"] = "is required"
	}
	if input.Price.IsNegative() {
		details["price"] = "must not be negative"
	}
	if input.CostPrice.IsNegative() {
		details["costPrice"] = "must not be negative"
	}
	if input.Quantity < 0 {
		details["quantity"] = "must not be negative"
	}
	if input.LowStockAlert < 0 {
		details["lowStockAlert"] = "must not be negative"
	}
	if len(details) > 0 {
		return Product{}, shared.NewValidationError("invalid product", details)
	}

	if _, err := s.repo.GetBySKU(ctx, input.SKU); err == nil {
		return Product{}, ErrSKUExists
	} else if !errors.Is(err, ErrProductNotFound) {
		return Product{}, fmt.Errorf("check existing sku: %w", err)
	}

	unit := input.Unit
	if unit == "" {
		unit = "pcs"
	}
	created, err := s.repo.Create(ctx, Product{
		SKU:           input.SKU,
		Name:          input.Name,
		Category:      strings.TrimSpace(input.Category),
		Description:   input.Description,
		Unit:          unit,
		Price:         shared.RoundMoney(input.Price),
		CostPrice:     shared.RoundMoney(input.CostPrice),
		Quantity:      input.Quantity,
		LowStockAlert: input.LowStockAlert,
		IsActive:      true,
		Supplier:      input.Supplier,
	})
	if err != nil {
		return Product{}, err
	}
	s.afterChange(ctx, "product.created", created.ID, map[string]any{"sku": created.SKU})
	return created, nil
}

// Update patches product attributes. Quantity changes go through AdjustStock.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Product, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}

	updates := make(map[string]any)
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return Product{}, shared.NewValidationError("invalid product", map[string]string{"sku": "is required"})
		}
		if sku != existing.SKU {
			if _, err := s.repo.GetBySKU(ctx, sku); err == nil {
				return Product{}, ErrSKUExists
			} else if !errors.Is(err, ErrProductNotFound) {
				return Product{}, fmt.Errorf("check existing sku: %w", err)
			}
			updates["sku"] = sku
		}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Product{}, shared.NewValidationError("invalid product", map[string]string{"name": "is required"})
		}
		updates["name"] = name
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Unit != nil {
		updates["unit"] = *input.Unit
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return Product{}, shared.NewValidationError("invalid product", map[string]string{"price": "must not be negative"})
		}
		updates["price"] = shared.RoundMoney(*input.Price)
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return Product{}, shared.NewValidationError("invalid product", map[string]string{"costPrice": "must not be negative"})
		}
		updates["cost_price"] = shared.RoundMoney(*input.CostPrice)
	}
	if input.LowStockAlert != nil {
		if *input.LowStockAlert < 0 {
			return Product{}, shared.NewValidationError("invalid product", map[string]string{"lowStockAlert": "must not be negative"})
		}
		updates["low_stock_alert"] = *input.LowStockAlert
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.Supplier != nil {
		updates["supplier"] = *input.Supplier
	}
	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return Product{}, err
	}
	s.afterChange(ctx, "product.updated", id, nil)
	return s.repo.Get(ctx, id)
}

// Deactivate marks a product discontinued; products are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, id int64) (Product, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Product{}, err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return Product{}, err
	}
	s.afterChange(ctx, "product.deactivated", id, nil)
	return s.repo.Get(ctx, id)
}

// AdjustStock applies a signed quantity delta under a row lock.
func (s *Service) AdjustStock(ctx context.Context, adj StockAdjustment) (Product, error) {
	if adj.Delta == 0 {
		return Product{}, shared.Validationf("delta must not be zero")
	}
	var before int
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetForUpdate(ctx, adj.ProductID)
		if err != nil {
			return err
		}
		before = p.Quantity
		next := p.Quantity + adj.Delta
		if next < 0 {
			return shared.NewValidationError("insufficient stock", map[string]int{"available": p.Quantity, "requested": -adj.Delta})
		}
		return tx.SetQuantity(ctx, adj.ProductID, next)
	})
	if err != nil {
		return Product{}, err
	}
	s.afterChange(ctx, "product.stock_adjusted", adj.ProductID, map[string]any{
		"before": before,
		"delta":  adj.Delta,
		"reason": adj.Reason,
	})
	return s.repo.Get(ctx, adj.ProductID)
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of products.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	return s.repo.List(ctx, filter)
}

// LowStock lists active products at or below their alert threshold.
func (s *Service) LowStock(ctx context.Context) ([]Product, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *Service) afterChange(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  shared.ActorID(ctx),
			Action:   action,
			Entity:   "product",
			EntityID: shared.EntityKey(id),
			Meta:     meta,
		}); err != nil {
			s.logger.Warn("audit product change", slog.String("action", action), slog.Any("error", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump report cache", slog.Any("error", err))
		}
	}
}
