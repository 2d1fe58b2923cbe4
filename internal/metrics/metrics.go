// Package metrics provides Prometheus metrics for the ELD logbook service.
package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// Generation run outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Log generation metrics
	LogRunsTotal     *prometheus.CounterVec
	LogSegmentsTotal *prometheus.CounterVec

	// Database pool metrics
	DBConnectionsTotal    prometheus.Gauge
	DBConnectionsAcquired prometheus.Gauge
	DBConnectionsIdle     prometheus.Gauge
	DBAcquireSecondsTotal prometheus.Counter

	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool
	cancel           context.CancelFunc
	wg               sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eld_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eld_http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LogRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eld_log_generation_runs_total",
				Help: "Log generation runs by outcome",
			},
			[]string{"outcome"},
		),
		LogSegmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eld_log_segments_generated_total",
				Help: "Generated log segments by activity type",
			},
			[]string{"activity_type"},
		),
		DBConnectionsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eld_db_connections_total",
			Help: "Number of connections in the database pool",
		}),
		DBConnectionsAcquired: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eld_db_connections_acquired",
			Help: "Number of database connections currently in use",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eld_db_connections_idle",
			Help: "Number of idle database connections",
		}),
		DBAcquireSecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eld_db_acquire_seconds_total",
			Help: "Total time spent acquiring database connections",
		}),
		logger: logger,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LogRunsTotal,
		m.LogSegmentsTotal,
		m.DBConnectionsTotal,
		m.DBConnectionsAcquired,
		m.DBConnectionsIdle,
		m.DBAcquireSecondsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// ObserveRun records a generation run and, on success, its segments.
func (m *Metrics) ObserveRun(outcome string, segments []domain.ActivitySegment) {
	if m == nil {
		return
	}
	m.LogRunsTotal.WithLabelValues(outcome).Inc()
	for _, s := range segments {
		m.LogSegmentsTotal.WithLabelValues(string(s.ActivityType)).Inc()
	}
}

// PoolStats is a snapshot of connection pool counters.
type PoolStats struct {
	Total           int32
	Acquired        int32
	Idle            int32
	AcquireDuration time.Duration // cumulative
}

// StartPoolStatsCollector periodically samples the pool and updates the DB
// metrics. Calling it again after the first call has no effect.
// Call Shutdown to stop the collector.
func (m *Metrics) StartPoolStatsCollector(stats func() PoolStats, interval time.Duration) {
	if m == nil || stats == nil {
		return
	}
	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Add to WaitGroup before exposing cancel to avoid racing Shutdown.
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil && m.logger != nil {
				m.logger.Error("panic in pool stats collector", "error", r)
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var lastAcquire time.Duration
		for {
			select {
			case <-ticker.C:
				s := stats()
				m.DBConnectionsTotal.Set(float64(s.Total))
				m.DBConnectionsAcquired.Set(float64(s.Acquired))
				m.DBConnectionsIdle.Set(float64(s.Idle))
				if delta := s.AcquireDuration - lastAcquire; delta > 0 {
					m.DBAcquireSecondsTotal.Add(delta.Seconds())
				}
				lastAcquire = s.AcquireDuration
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the pool stats collector and waits for it to exit.
// It is safe to call more than once.
func (m *Metrics) Shutdown() {
	if m == nil {
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
