// Package prometheus implements the metrics collector on Prometheus.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus.
type Collector struct {
	sessionsInitiated *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	sessionDuration   *prometheus.HistogramVec
	fulfillments      *prometheus.CounterVec
	fulfillmentTime   *prometheus.HistogramVec
	proofsComputed    *prometheus.CounterVec
	proofDuration     *prometheus.HistogramVec
	uploadAttempts    *prometheus.HistogramVec
	sessionsSwept     prometheus.Counter
	activeSessions    prometheus.Gauge
	workerPoolIdle    prometheus.Gauge
	workerPoolBusy    prometheus.Gauge
	workerPoolStopped prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector() *Collector {
	return &Collector{
		sessionsInitiated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairdeal_sessions_initiated_total",
				Help: "Total number of deal sessions initiated",
			},
			[]string{"status"},
		),
		sessionsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairdeal_sessions_completed_total",
				Help: "Total number of deal sessions reaching a terminal status",
			},
			[]string{"status"},
		),
		sessionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fairdeal_session_duration_seconds",
				Help:    "Time from session initiation to terminal status",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),
		fulfillments: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairdeal_fulfillments_total",
				Help: "Total number of randomness fulfillments by retrieval path",
			},
			[]string{"path"},
		),
		fulfillmentTime: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fairdeal_fulfillment_duration_seconds",
				Help:    "Time spent waiting for randomness within one attempt",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"path"},
		),
		proofsComputed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairdeal_proofs_computed_total",
				Help: "Total number of proof computations",
			},
			[]string{"status"},
		),
		proofDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fairdeal_proof_duration_seconds",
				Help:    "Proof computation duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		uploadAttempts: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fairdeal_upload_attempts",
				Help:    "Attempts used per artifact upload",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
			[]string{"status"},
		),
		sessionsSwept: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fairdeal_sessions_swept_total",
				Help: "Total number of expired sessions removed by the sweeper",
			},
		),
		activeSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fairdeal_active_sessions",
				Help: "Number of sessions currently tracked by the registry",
			},
		),
		workerPoolIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fairdeal_worker_pool_idle",
				Help: "Number of idle proof workers",
			},
		),
		workerPoolBusy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fairdeal_worker_pool_busy",
				Help: "Number of busy proof workers",
			},
		),
		workerPoolStopped: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fairdeal_worker_pool_stopped",
				Help: "Number of stopped proof workers",
			},
		),
	}
}

// RecordSessionInitiated records a session initiation attempt.
func (c *Collector) RecordSessionInitiated(status string) {
	c.sessionsInitiated.WithLabelValues(status).Inc()
}

// RecordSessionCompleted records a session reaching a terminal status.
func (c *Collector) RecordSessionCompleted(status string, duration time.Duration) {
	c.sessionsCompleted.WithLabelValues(status).Inc()
	c.sessionDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordFulfillment records a successful randomness retrieval by path.
func (c *Collector) RecordFulfillment(path string, duration time.Duration) {
	c.fulfillments.WithLabelValues(path).Inc()
	c.fulfillmentTime.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordProofComputed records a proof computation.
func (c *Collector) RecordProofComputed(status string, duration time.Duration) {
	c.proofsComputed.WithLabelValues(status).Inc()
	c.proofDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordUploadAttempts records how many attempts an artifact upload took.
func (c *Collector) RecordUploadAttempts(attempts int, status string) {
	c.uploadAttempts.WithLabelValues(status).Observe(float64(attempts))
}

// RecordSessionsSwept records expired sessions removed by the sweeper.
func (c *Collector) RecordSessionsSwept(count int) {
	c.sessionsSwept.Add(float64(count))
}

// SetActiveSessions sets the current registry size.
func (c *Collector) SetActiveSessions(count int) {
	c.activeSessions.Set(float64(count))
}

// RecordWorkerPoolStatus records the proof worker pool composition.
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}
