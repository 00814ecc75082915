package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// BulkLookupRows counts rows merged from bulk count lookups.
	BulkLookupRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_bulk_lookup_rows_total",
		Help: "Rows returned by bulk count lookups",
	}, []string{"lookup"})

	// PageRenders counts assembled pages by page name and outcome.
	PageRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_page_renders_total",
		Help: "Pages assembled by name and outcome",
	}, []string{"page", "outcome"})
)

// DatabaseMetrics records query latency for one table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance for table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}

// RecordBulkLookup adds the number of rows a bulk lookup returned.
func RecordBulkLookup(lookup string, rows int) {
	BulkLookupRows.WithLabelValues(lookup).Add(float64(rows))
}
