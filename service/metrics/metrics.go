package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the relayer.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Upstream API Metrics
	upstreamCallsTotal   *prometheus.CounterVec
	upstreamCallDuration *prometheus.HistogramVec

	// Payment Composition Metrics
	paymentsBuiltTotal *prometheus.CounterVec
	instructionsMerged *prometheus.HistogramVec

	// Status Check Metrics
	statusChecksTotal *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		upstreamCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_calls_total",
				Help: "Total number of upstream API calls by service, operation and status",
			},
			[]string{"service", "operation", "status"},
		),
		upstreamCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_call_duration_seconds",
				Help:    "Duration of upstream API calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"service", "operation"},
		),

		paymentsBuiltTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_built_total",
				Help: "Total number of bill-payment transactions built, by path (direct or swap) and status",
			},
			[]string{"path", "status"},
		),
		instructionsMerged: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_instructions_per_transaction",
				Help:    "Number of instructions in each returned payment transaction",
				Buckets: []float64{1, 2, 4, 8, 12, 16, 24, 32},
			},
			[]string{"path"},
		),

		statusChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transaction_status_checks_total",
				Help: "Total number of transaction status checks by result",
			},
			[]string{"result"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
	}
}

// Upstream metric helpers

// RecordUpstreamCall records one call to an upstream API with its duration.
func (m *Metrics) RecordUpstreamCall(service, operation, status string, duration float64) {
	m.upstreamCallsTotal.WithLabelValues(service, operation, status).Inc()
	m.upstreamCallDuration.WithLabelValues(service, operation).Observe(duration)
}

// Payment metric helpers

// RecordPaymentBuilt records a payment build attempt and, on success, the
// size of the resulting instruction list.
func (m *Metrics) RecordPaymentBuilt(path string, instructions int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.paymentsBuiltTotal.WithLabelValues(path, status).Inc()
	if err == nil {
		m.instructionsMerged.WithLabelValues(path).Observe(float64(instructions))
	}
}

// RecordStatusCheck records the outcome of a transaction status check.
func (m *Metrics) RecordStatusCheck(result string) {
	m.statusChecksTotal.WithLabelValues(result).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
