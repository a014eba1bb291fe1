// Package observability holds the Prometheus registry and the POS business collectors.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the HTTP and business metrics of the service.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	billsCreated    *prometheus.CounterVec
	paymentsTotal   *prometheus.CounterVec
	paymentAmount   prometheus.Histogram
	lowStock        prometheus.Gauge
	ledgerDrift     prometheus.Counter
}

// NewMetrics initialises the registry with every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "odyssey_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		billsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_pos_bills_created_total",
			Help: "Bills created, by initial payment status.",
		}, []string{"payment_status"}),
		paymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_pos_payments_recorded_total",
			Help: "Customer payments recorded, by payment method.",
		}, []string{"method"}),
		paymentAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "odyssey_pos_payment_amount",
			Help:    "Amount of recorded customer payments.",
			Buckets: prometheus.ExponentialBuckets(100, 4, 8),
		}),
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "odyssey_pos_low_stock_products",
			Help: "Active products at or below their low stock threshold at the last scan.",
		}),
		ledgerDrift: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "odyssey_pos_ledger_drift_total",
			Help: "Customers whose total due disagreed with their open bills.",
		}),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration, m.billsCreated, m.paymentsTotal,
		m.paymentAmount, m.lowStock, m.ledgerDrift)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for other collectors such as job metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// BillCreated counts a new bill.
func (m *Metrics) BillCreated(paymentStatus string) {
	if m == nil {
		return
	}
	m.billsCreated.WithLabelValues(paymentStatus).Inc()
}

// PaymentRecorded counts a customer payment and observes its amount.
func (m *Metrics) PaymentRecorded(method string, amount float64) {
	if m == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(method).Inc()
	m.paymentAmount.Observe(amount)
}

// SetLowStock publishes the result of a low stock scan.
func (m *Metrics) SetLowStock(n int) {
	if m == nil {
		return
	}
	m.lowStock.Set(float64(n))
}

// AddLedgerDrift counts customers found out of balance.
func (m *Metrics) AddLedgerDrift(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ledgerDrift.Add(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
