package products

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/rbac"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Handler exposes catalog endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, validator: httpx.NewValidator()}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/low-stock", h.lowStock)
	r.Get("/{id}", h.show)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.SuperAdmin())
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/stock", h.adjustStock)
	})
}

type createProductRequest struct {
	SKU           string           `json:"sku" validate:"required,max=64"`
	Name          string           `json:"name" validate:"required,max=200"`
	Category      string           `json:"category" validate:"max=100"`
	Description   string           `json:"description"`
	Unit          string           `json:"unit" validate:"max=20"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
	CostPrice     decimal.Decimal  `json:"costPrice"`
	Quantity      int              `json:"quantity" validate:"gte=0"`
	LowStockAlert *int             `json:"lowStockAlert" validate:"omitempty,gte=0"`
	Supplier      Supplier         `json:"supplier"`
}

type updateProductRequest struct {
	SKU           *string          `json:"sku" validate:"omitempty,max=64"`
	Name          *string          `json:"name" validate:"omitempty,max=200"`
	Category      *string          `json:"category" validate:"omitempty,max=100"`
	Description   *string          `json:"description"`
	Unit          *string          `json:"unit" validate:"omitempty,max=20"`
	Price         *decimal.Decimal `json:"price"`
	CostPrice     *decimal.Decimal `json:"costPrice"`
	LowStockAlert *int             `json:"lowStockAlert" validate:"omitempty,gte=0"`
	IsActive      *bool            `json:"isActive"`
	Supplier      *Supplier        `json:"supplier"`
}

type stockRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"max=255"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := ParseStatus(q.Get("status"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	active, err := httpx.QueryBool(r, "active")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	page := shared.PageFromQuery(q)
	items, total, err := h.service.List(r.Context(), ListFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Status:   status,
		Active:   active,
		Page:     page,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(items, page, total))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []Product{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	lowStock := 10
	if req.LowStockAlert != nil {
		lowStock = *req.LowStockAlert
	}
	p, err := h.service.Create(r.Context(), CreateInput{
		SKU:           req.SKU,
		Name:          req.Name,
		Category:      req.Category,
		Description:   req.Description,
		Unit:          req.Unit,
		Price:         *req.Price,
		CostPrice:     req.CostPrice,
		Quantity:      req.Quantity,
		LowStockAlert: lowStock,
		Supplier:      req.Supplier,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req updateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	p, err := h.service.Update(r.Context(), id, UpdateInput{
		SKU:           req.SKU,
		Name:          req.Name,
		Category:      req.Category,
		Description:   req.Description,
		Unit:          req.Unit,
		Price:         req.Price,
		CostPrice:     req.CostPrice,
		LowStockAlert: req.LowStockAlert,
		IsActive:      req.IsActive,
		Supplier:      req.Supplier,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	p, err := h.service.Deactivate(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "product discontinued", "product": p})
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req stockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	p, err := h.service.AdjustStock(r.Context(), StockAdjustment{ProductID: id, Delta: req.Delta, Reason: req.Reason})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
