package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Removal reasons reported on SessionsRemoved.
const (
	ReasonInvalidated    = "invalidated"
	ReasonExpired        = "expired"
	ReasonEvicted        = "evicted"
	ReasonRefreshExpired = "refresh_expired"
	ReasonShutdown       = "shutdown"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionkit_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// PermissionChecks counts permission evaluations by outcome (allowed|denied).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionkit_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks live sessions held in memory, summed over every
	// session manager in the process.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessionkit_active_sessions",
			Help: "Number of live sessions",
		},
	)

	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessionkit_sessions_created_total",
			Help: "Total number of sessions issued",
		},
	)

	SessionsRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionkit_sessions_removed_total",
			Help: "Total number of sessions removed, by reason",
		},
		[]string{"reason"},
	)

	// SessionValidations counts access token checks (valid|missing|expired).
	SessionValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionkit_session_validations_total",
			Help: "Total number of access token validations",
		},
		[]string{"result"},
	)

	// SessionRefreshes counts refresh attempts (rotated|missing|expired|error).
	SessionRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionkit_session_refreshes_total",
			Help: "Total number of refresh token exchanges",
		},
		[]string{"result"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sessionkit_sweep_duration_seconds",
			Help:    "Duration of expired session sweeps",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sessionkit_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
