package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "exercise_tracker",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exercise_tracker",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "exercise_tracker",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	userRegistrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exercise_tracker",
			Subsystem: "users",
			Name:      "registrations_total",
			Help:      "Registration requests by outcome (created or existing).",
		},
		[]string{"outcome"},
	)

	exercisesLogged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exercise_tracker",
			Subsystem: "exercises",
			Name:      "logged_total",
			Help:      "Total number of exercise records appended.",
		},
	)

	logQueryEntries = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "exercise_tracker",
			Subsystem: "exercises",
			Name:      "log_query_entries",
			Help:      "Number of entries returned per log query.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		userRegistrations,
		exercisesLogged,
		logQueryEntries,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// TrackInFlight increments the in-flight gauge and returns its release func.
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// RecordHTTPRequest records one served request against its route template.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUserRegistration counts a registration request.
func RecordUserRegistration(created bool) {
	outcome := "existing"
	if created {
		outcome = "created"
	}
	userRegistrations.WithLabelValues(outcome).Inc()
}

// RecordExerciseLogged counts an appended exercise record.
func RecordExerciseLogged() {
	exercisesLogged.Inc()
}

// RecordLogQuery observes the size of a returned log.
func RecordLogQuery(entries int) {
	logQueryEntries.Observe(float64(entries))
}
