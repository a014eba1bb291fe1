package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler serves the /reports endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Get("/sales-by-day", h.salesByDay)
	r.Get("/inventory-valuation", h.inventoryValuation)
	r.Get("/expenses-by-category", h.expensesByCategory)
	r.Get("/profit-loss", h.profitLoss)
	r.Get("/top-products", h.topProducts)
	r.Get("/outstanding", h.outstanding)
}

func (h *Handler) rangeParams(r *http.Request) (*time.Time, *time.Time, error) {
	from, err := httpx.QueryDate(r, "from", h.service.Location())
	if err != nil {
		return nil, nil, err
	}
	to, err := httpx.QueryDate(r, "to", h.service.Location())
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func (h *Handler) respond(w http.ResponseWriter, data any, err error) {
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Dashboard(r.Context())
	h.respond(w, data, err)
}

func (h *Handler) salesByDay(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.rangeParams(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	data, err := h.service.SalesByDay(r.Context(), from, to)
	h.respond(w, data, err)
}

func (h *Handler) inventoryValuation(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.InventoryValuation(r.Context())
	h.respond(w, data, err)
}

func (h *Handler) expensesByCategory(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.rangeParams(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	data, err := h.service.ExpensesByCategory(r.Context(), from, to)
	h.respond(w, data, err)
}

func (h *Handler) profitLoss(w http.ResponseWriter, r *http.Request) {
	year, err := httpx.QueryInt64(r, "year")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	data, err := h.service.ProfitLoss(r.Context(), int(year))
	h.respond(w, data, err)
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := httpx.QueryInt64(r, "limit")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	from, to, err := h.rangeParams(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	data, err := h.service.TopProducts(r.Context(), int(limit), from, to)
	h.respond(w, data, err)
}

func (h *Handler) outstanding(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Outstanding(r.Context())
	h.respond(w, data, err)
}
