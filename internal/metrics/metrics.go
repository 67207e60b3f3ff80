package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "avtoservis",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "avtoservis",
			Name:      "booking_status_transitions_total",
			Help:      "Booking status transitions by target status.",
		},
		[]string{"status"},
	)

	authFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "avtoservis",
			Name:      "auth_failures_total",
			Help:      "Rejected authentication attempts.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingTransitions, authFailures)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncBookingTransition increments the transition counter for a target status.
func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

// IncAuthFailure increments the rejected-authentication counter.
func IncAuthFailure() {
	authFailures.Inc()
}
