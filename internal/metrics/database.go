package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	// DBConnectionsOpen is the total number of open connections to the database
	DBConnectionsOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Total number of open database connections",
		},
	)

	// DBConnectionsInUse is the number of database connections currently in use
	DBConnectionsInUse = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Number of database connections currently in use",
		},
	)

	// DBConnectionsIdle is the number of idle database connections
	DBConnectionsIdle = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
	)

	// DBConnectionsMaxOpen is the maximum number of open database connections
	DBConnectionsMaxOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_max_open",
			Help:      "Maximum number of open database connections allowed",
		},
	)

	// DBQueryDuration records database query latency
	DBQueryDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			// Buckets: 1ms, 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	// DBErrors counts database errors by type
	DBErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_errors_total",
			Help:      "Total number of database errors",
		},
		[]string{"operation", "error_type"},
	)
)

// PoolStats is a driver-neutral snapshot of connection pool usage.
type PoolStats struct {
	Open    int
	InUse   int
	Idle    int
	MaxOpen int
}

// StatsSource reports the current pool usage of a store.
type StatsSource interface {
	Stats() PoolStats
}

// DBCollector periodically collects database pool statistics
type DBCollector struct {
	source   StatsSource
	stopChan chan struct{}
}

// NewDBCollector creates a new database metrics collector
func NewDBCollector(source StatsSource) *DBCollector {
	return &DBCollector{
		source:   source,
		stopChan: make(chan struct{}),
	}
}

// Start collects at the given interval until Stop is called or ctx is done.
func (c *DBCollector) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector
func (c *DBCollector) Stop() {
	close(c.stopChan)
}

func (c *DBCollector) collect() {
	if c.source == nil {
		return
	}

	stat := c.source.Stats()
	DBConnectionsOpen.Set(float64(stat.Open))
	DBConnectionsInUse.Set(float64(stat.InUse))
	DBConnectionsIdle.Set(float64(stat.Idle))
	DBConnectionsMaxOpen.Set(float64(stat.MaxOpen))
}

// RecordQuery records metrics for a database query. Use it with defer:
//
//	defer func(start time.Time) { metrics.RecordQuery("list_events", start, err) }(time.Now())
func RecordQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		errorType := "query_error"
		if errors.Is(err, context.Canceled) {
			errorType = "canceled"
		} else if errors.Is(err, context.DeadlineExceeded) {
			errorType = "timeout"
		}
		DBErrors.WithLabelValues(operation, errorType).Inc()
	}
}
