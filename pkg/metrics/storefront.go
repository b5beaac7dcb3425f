package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records the client's traffic against the commerce platform.
type StorefrontMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
	submitted       prometheus.Counter
	checkoutFailed  *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "Duration of commerce platform API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	requestErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_request_errors_total",
		Help: "Failed commerce platform API calls.",
	}, []string{"operation", "code"})
	submitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_submitted_total",
		Help: "Orders submitted successfully.",
	})
	checkoutFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Checkout attempts aborted, by failing step.",
	}, []string{"step"})
	reg.MustRegister(requestDuration, requestErrors, submitted, checkoutFailed)
	return &StorefrontMetrics{
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
		submitted:       submitted,
		checkoutFailed:  checkoutFailed,
	}
}

// ObserveRequest records the duration for the named API operation.
func (m *StorefrontMetrics) ObserveRequest(operation string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncRequestError increments the error counter for the named operation and code.
func (m *StorefrontMetrics) IncRequestError(operation, code string) {
	if m == nil || m.requestErrors == nil {
		return
	}
	m.requestErrors.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

// IncSubmitted increments the submitted-order counter.
func (m *StorefrontMetrics) IncSubmitted() {
	if m == nil || m.submitted == nil {
		return
	}
	m.submitted.Inc()
}

// IncCheckoutFailed increments the failed-checkout counter for the given step.
func (m *StorefrontMetrics) IncCheckoutFailed(step string) {
	if m == nil || m.checkoutFailed == nil {
		return
	}
	m.checkoutFailed.WithLabelValues(normalizeLabel(step)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
