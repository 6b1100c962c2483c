package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetlease_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetlease_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	lesseesRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetlease_lessees_registered_total",
		Help: "Count of lessee registration attempts by result",
	}, []string{"result"})

	paymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetlease_payments_recorded_total",
		Help: "Count of payment recording attempts by result",
	}, []string{"result"})

	overdueLessees = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleetlease_overdue_lessees",
		Help: "Number of lessees currently past the overdue boundary",
	})

	dashboardComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleetlease_dashboard_compute_duration_seconds",
		Help:    "Duration of dashboard metric computation",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveRegistration increments the registration counter with a result label.
func ObserveRegistration(result string) {
	lesseesRegistered.WithLabelValues(result).Inc()
}

// ObservePayment increments the payment counter with a result label.
func ObservePayment(result string) {
	paymentsRecorded.WithLabelValues(result).Inc()
}

// SetOverdue sets the overdue lessee gauge.
func SetOverdue(count int) {
	if count < 0 {
		count = 0
	}
	overdueLessees.Set(float64(count))
}

// ObserveDashboardCompute records how long a dashboard snapshot took to build.
func ObserveDashboardCompute(duration time.Duration) {
	dashboardComputeDuration.Observe(duration.Seconds())
}
