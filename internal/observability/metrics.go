package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	payrollsComputed     *prometheus.CounterVec
	payrollsDeduplicated *prometheus.CounterVec
	vouchersTotal        *prometheus.CounterVec
}

// NewMetrics initializes the registry and the base metric set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "austral_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "austral_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	payrolls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "austral_payrolls_computed_total",
		Help: "Payroll drafts computed, by company.",
	}, []string{"company"})
	deduplicated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "austral_payrolls_deduplicated_total",
		Help: "Duplicate payroll records removed, by company.",
	}, []string{"company"})
	vouchers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "austral_vouchers_total",
		Help: "Voucher lifecycle events, by company and event.",
	}, []string{"company", "event"})
	registry.MustRegister(requests, duration, payrolls, deduplicated, vouchers)
	return &Metrics{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:        requests,
		requestDuration:      duration,
		payrollsComputed:     payrolls,
		payrollsDeduplicated: deduplicated,
		vouchersTotal:        vouchers,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
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

// PayrollComputed counts payroll drafts produced for a company.
func (m *Metrics) PayrollComputed(company int64, n int) {
	if m == nil {
		return
	}
	m.payrollsComputed.WithLabelValues(strconv.FormatInt(company, 10)).Add(float64(n))
}

// PayrollsDeduplicated counts duplicate payroll records removed for a company.
func (m *Metrics) PayrollsDeduplicated(company int64, n int) {
	if m == nil {
		return
	}
	m.payrollsDeduplicated.WithLabelValues(strconv.FormatInt(company, 10)).Add(float64(n))
}

// VoucherCommitted counts committed payroll batches.
func (m *Metrics) VoucherCommitted(company int64) { m.voucherEvent(company, "committed") }

// VoucherPosted counts draft vouchers promoted to Posted.
func (m *Metrics) VoucherPosted(company int64) { m.voucherEvent(company, "posted") }

// VoucherReversed counts posted vouchers reversed.
func (m *Metrics) VoucherReversed(company int64) { m.voucherEvent(company, "reversed") }

func (m *Metrics) voucherEvent(company int64, event string) {
	if m == nil {
		return
	}
	m.vouchersTotal.WithLabelValues(strconv.FormatInt(company, 10), event).Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
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
