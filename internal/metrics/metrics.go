package metrics

import (
	"database/sql"
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthFailuresTotal counts rejected protected requests by reason (missing, invalid).
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of requests rejected by the auth gate",
		},
		[]string{"reason"},
	)

	// TodoOpsTotal counts todo mutations by action (create, update).
	TodoOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_ops_total",
			Help: "Total number of todo create/update operations",
		},
		[]string{"action"},
	)

	// DBPoolOpen is the current number of open database connections.
	DBPoolOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_open_connections",
			Help: "Open connections in the database pool",
		},
	)

	// DBPoolInUse is the number of connections currently in use.
	DBPoolInUse = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_in_use_connections",
			Help: "Database connections currently in use",
		},
	)

	// DBPoolIdle is the number of idle connections.
	DBPoolIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_idle_connections",
			Help: "Idle connections in the database pool",
		},
	)

	// DBPoolWaitCount is the total number of connections waited for.
	DBPoolWaitCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_wait_count",
			Help: "Total number of connections waited for",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration, RequestTotal,
			AuthFailuresTotal, TodoOpsTotal,
			DBPoolOpen, DBPoolInUse, DBPoolIdle, DBPoolWaitCount,
		)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /api/todos/123 -> /api/todos/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncAuthFailure increments the auth failure counter for the given reason (missing, invalid).
func IncAuthFailure(reason string) {
	AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// IncTodoOp increments the todo operation counter for the given action (create, update).
func IncTodoOp(action string) {
	TodoOpsTotal.WithLabelValues(action).Inc()
}

// RecordDBStats publishes connection pool statistics. Called by the background sampler.
func RecordDBStats(s sql.DBStats) {
	DBPoolOpen.Set(float64(s.OpenConnections))
	DBPoolInUse.Set(float64(s.InUse))
	DBPoolIdle.Set(float64(s.Idle))
	DBPoolWaitCount.Set(float64(s.WaitCount))
}
