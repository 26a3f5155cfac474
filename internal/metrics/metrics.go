package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slotbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotbook_bookings_created_total",
			Help: "Total number of bookings admitted",
		},
	)

	AdmissionRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbook_admission_rejections_total",
			Help: "Booking admissions rejected, by reason",
		},
		[]string{"reason"},
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbook_booking_transitions_total",
			Help: "Booking status transitions attempted, by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	CapacityReleasedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotbook_capacity_released_total",
			Help: "Capacity units freed by cancellations",
		},
	)

	SignedLinksGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotbook_signed_links_generated_total",
			Help: "Signed booking links generated",
		},
	)

	SignedLinkVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbook_signed_link_verifications_total",
			Help: "Signed link verifications, by outcome",
		},
		[]string{"outcome"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbook_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBookingCreated() {
	BookingsCreatedTotal.Inc()
}

func RecordAdmissionRejected(reason string) {
	AdmissionRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordTransition(action, outcome string) {
	TransitionsTotal.WithLabelValues(action, outcome).Inc()
}

func RecordCapacityReleased() {
	CapacityReleasedTotal.Inc()
}

func RecordSignedLinkGenerated() {
	SignedLinksGeneratedTotal.Inc()
}

func RecordSignedLinkVerification(outcome string) {
	SignedLinkVerificationsTotal.WithLabelValues(outcome).Inc()
}

func RecordRateLimited(scope string) {
	RateLimitedTotal.WithLabelValues(scope).Inc()
}
