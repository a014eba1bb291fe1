package ar

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Handler exposes bills, payments and customer ledgers.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountBillRoutes registers /bills routes.
func (h *Handler) MountBillRoutes(r chi.Router) {
	r.Get("/", h.listBills)
	r.Post("/", h.createBill)
	r.Get("/summary/{period}", h.summary)
	r.Get("/{id}", h.showBill)
	r.Put("/{id}", h.updateBill)
	r.Put("/{id}/payment", h.updateBillPayment)
	r.Delete("/{id}", h.deleteBill)
}

// MountPaymentRoutes registers /payments routes.
func (h *Handler) MountPaymentRoutes(r chi.Router) {
	r.Get("/", h.listPayments)
	r.Get("/{id}", h.showPayment)
}

// MountCustomerRoutes registers the ledger endpoints nested under /customers.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	r.Post("/{id}/payment", h.recordPayment)
	r.Get("/{id}/ledger", h.ledger)
}

func (h *Handler) dateRange(r *http.Request) (*time.Time, *time.Time, error) {
	loc := h.service.Location()
	from, err := httpx.QueryDate(r, "from", loc)
	if err != nil {
		return nil, nil, err
	}
	to, err := httpx.QueryDate(r, "to", loc)
	if err != nil {
		return nil, nil, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	return from, to, nil
}

func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customerID, err := httpx.QueryInt64(r, "customerId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	payStatus, err := ParsePaymentStatus(q.Get("paymentStatus"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	status, err := ParseBillStatus(q.Get("status"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	billType, err := ParseBillType(q.Get("type"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	from, to, err := h.dateRange(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	page := shared.PageFromQuery(q)
	bills, total, err := h.service.ListBills(r.Context(), BillFilter{
		CustomerID:    customerID,
		PaymentStatus: payStatus,
		Status:        status,
		Type:          billType,
		From:          from,
		To:            to,
		Search:        q.Get("search"),
		Page:          page,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(bills, page, total))
}

func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	in := req.input()
	in.IdempotencyKey = r.Header.Get(shared.IdempotencyHeader)
	bill, err := h.service.CreateBill(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bill)
}

func (h *Handler) showBill(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	bill, err := h.service.GetBill(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) updateBill(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req updateBillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	bill, err := h.service.UpdateBill(r.Context(), id, UpdateBillInput(req))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) updateBillPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req billPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	bill, err := h.service.UpdateBillPayment(r.Context(), id, BillPaymentInput{
		Amount:        *req.PaidAmount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) deleteBill(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	bill, err := h.service.DeleteBill(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "bill deleted", "bill": bill})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	from, err := httpx.QueryDate(r, "from", h.service.Location())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	to, err := httpx.QueryDate(r, "to", h.service.Location())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	out, err := h.service.Summary(r.Context(), chi.URLParam(r, "period"), from, to)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	customerID, err := httpx.QueryInt64(r, "customerId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	from, to, err := h.dateRange(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	page := shared.PageFromQuery(r.URL.Query())
	payments, total, err := h.service.ListPayments(r.Context(), PaymentFilter{
		CustomerID: customerID,
		From:       from,
		To:         to,
		Page:       page,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(payments, page, total))
}

func (h *Handler) showPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	p, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	customerID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	receipt, err := h.service.RecordPayment(r.Context(), customerID, PaymentInput{
		Amount:         *req.Amount,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		RecordedBy:     req.RecordedBy,
		IdempotencyKey: r.Header.Get(shared.IdempotencyHeader),
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	customerID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	ledger, err := h.service.CustomerLedger(r.Context(), customerID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}
