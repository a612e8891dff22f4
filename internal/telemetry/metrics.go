/*-------------------------------------------------------------------------
 *
 * metrics.go
 *    Prometheus metrics for the coupling runtime
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/telemetry/metrics.go
 *
 *-------------------------------------------------------------------------
 */

package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	windowsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "precice_time_windows_completed_total",
			Help: "Total number of time windows completed",
		},
		[]string{"participant"},
	)

	iterationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "precice_implicit_iterations_total",
			Help: "Total number of implicit coupling iterations run",
		},
		[]string{"participant"},
	)

	advanceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "precice_advance_duration_seconds",
			Help:    "Duration of scheme.advance() calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"participant"},
	)

	m2nBytesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "precice_m2n_bytes_sent_total",
			Help: "Total bytes sent over an M2N channel",
		},
		[]string{"participant", "peer"},
	)

	m2nBytesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "precice_m2n_bytes_received_total",
			Help: "Total bytes received over an M2N channel",
		},
		[]string{"participant", "peer"},
	)

	mappingsComputedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "precice_mappings_computed_total",
			Help: "Total number of mapping computeMapping() invocations",
		},
		[]string{"participant"},
	)
)

/* RecordWindowCompleted records a completed time window */
func RecordWindowCompleted(participant string) {
	windowsCompletedTotal.WithLabelValues(participant).Inc()
}

/* RecordIteration records one implicit coupling iteration */
func RecordIteration(participant string) {
	iterationsTotal.WithLabelValues(participant).Inc()
}

/* RecordAdvance records the wall-clock duration of one advance() call */
func RecordAdvance(participant string, d time.Duration) {
	advanceDuration.WithLabelValues(participant).Observe(d.Seconds())
}

/* RecordM2NSend records bytes sent to a peer over an M2N channel */
func RecordM2NSend(participant, peer string, n int) {
	m2nBytesSent.WithLabelValues(participant, peer).Add(float64(n))
}

/* RecordM2NReceive records bytes received from a peer over an M2N channel */
func RecordM2NReceive(participant, peer string, n int) {
	m2nBytesReceived.WithLabelValues(participant, peer).Add(float64(n))
}

/* RecordMappingComputed records a computeMapping() invocation */
func RecordMappingComputed(participant string) {
	mappingsComputedTotal.WithLabelValues(participant).Inc()
}

/* Handler returns the Prometheus metrics HTTP handler */
func Handler() http.Handler {
	return promhttp.Handler()
}
