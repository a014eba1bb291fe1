package ar

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func newTestRouter(f *fixture) http.Handler {
	h := NewHandler(nil, f.svc)
	r := chi.NewRouter()
	r.Route("/bills", h.MountBillRoutes)
	r.Route("/payments", h.MountPaymentRoutes)
	r.Route("/customers", h.MountCustomerRoutes)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: 5, Role: shared.RoleCashier}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestBillEndpoints(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)

	body := map[string]any{
		"customerId":    1,
		"items":         []map[string]any{{"productId": 10, "quantity": 2, "price": 50}},
		"subtotal":      100,
		"total":         100,
		"paymentMethod": "Cash",
		"paymentStatus": "pending",
	}
	rr := doRequest(t, h, http.MethodPost, "/bills", body, shared.IdempotencyHeader, "abc")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var bill map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bill))
	require.Equal(t, "BILL-1001", bill["billNumber"])
	require.Equal(t, float64(100), bill["dueAmount"])
	require.Equal(t, float64(5), bill["createdBy"])

	rr = doRequest(t, h, http.MethodPost, "/bills", body, shared.IdempotencyHeader, "abc")
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = doRequest(t, h, http.MethodPost, "/bills", map[string]any{"items": []any{}})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "missing required fields")
	require.Contains(t, rr.Body.String(), "customerId")

	rr = doRequest(t, h, http.MethodGet, "/bills/1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	first := rr.Body.String()
	rr = doRequest(t, h, http.MethodGet, "/bills/1", nil)
	require.Equal(t, first, rr.Body.String())

	rr = doRequest(t, h, http.MethodPut, "/bills/1/payment", map[string]any{"paidAmount": 100})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"paymentStatus":"paid"`)

	rr = doRequest(t, h, http.MethodPut, "/bills/9/payment", map[string]any{"paidAmount": 1})
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, h, http.MethodDelete, "/bills/abc", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid id format")

	rr = doRequest(t, h, http.MethodDelete, "/bills/1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"message":"bill deleted"`)

	rr = doRequest(t, h, http.MethodDelete, "/bills/1", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, h, http.MethodGet, "/bills/summary/today", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doRequest(t, h, http.MethodGet, "/bills/summary/fortnight", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	rr = doRequest(t, h, http.MethodGet, "/bills/summary/category?from=2024-10-12&to=2024-10-10", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCustomerPaymentEndpoints(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)
	_, err := f.svc.CreateBill(t.Context(), sale(1, 10, 1, "80", "pending"))
	require.NoError(t, err)

	rr := doRequest(t, h, http.MethodPost, "/customers/1/payment", map[string]any{"amount": 100, "paymentMethod": "cash"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, f.store.payments)

	rr = doRequest(t, h, http.MethodPost, "/customers/1/payment", map[string]any{"paymentMethod": "cash"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "amount")

	rr = doRequest(t, h, http.MethodPost, "/customers/1/payment", map[string]any{"amount": 80, "paymentMethod": "upi"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var receipt struct {
		Payment  map[string]any `json:"payment"`
		Customer map[string]any `json:"customer"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &receipt))
	require.Equal(t, "PAY2410150001", receipt.Payment["paymentNumber"])
	require.Equal(t, float64(0), receipt.Customer["totalDue"])

	rr = doRequest(t, h, http.MethodPost, "/customers/77/payment", map[string]any{"amount": 1, "paymentMethod": "cash"})
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, h, http.MethodGet, "/customers/1/ledger", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var ledger Ledger
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ledger))
	require.Len(t, ledger.Transactions, 2)
	require.True(t, ledger.Transactions[0].Balance.IsZero())

	rr = doRequest(t, h, http.MethodGet, "/payments/1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doRequest(t, h, http.MethodGet, "/payments/2", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	rr = doRequest(t, h, http.MethodGet, "/payments?customerId=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"total":1`)
}
