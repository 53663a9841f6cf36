// Package telemetry carries the Prometheus metrics and the observability HTTP
// server used by long-running watch mode.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"biosync/internal/domain"
)

type Metrics struct {
	syncOutcomes     *prometheus.CounterVec
	registryRequests *prometheus.CounterVec
	syncDuration     prometheus.Histogram
	syncRuns         prometheus.Counter
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		syncOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biosync_sync_outcomes_total",
				Help: "Total reconciled records by outcome",
			},
			[]string{"outcome"},
		),
		registryRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biosync_registry_requests_total",
				Help: "Total registry API requests by method and status code",
			},
			[]string{"method", "code"},
		),
		syncDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "biosync_sync_duration_seconds",
				Help:    "Duration of one full sync run in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		syncRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "biosync_sync_runs_total",
				Help: "Total sync runs",
			},
		),
	}
}

func (m *Metrics) ObserveOutcome(outcome domain.Outcome) {
	if m == nil {
		return
	}
	m.syncOutcomes.WithLabelValues(string(outcome)).Inc()
}

// ObserveRegistryRequest implements registry.Observer. A zero status means
// the request never produced a response.
func (m *Metrics) ObserveRegistryRequest(method string, status int) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.registryRequests.WithLabelValues(method, code).Inc()
}

func (m *Metrics) ObserveSyncRun(duration time.Duration) {
	if m == nil {
		return
	}
	m.syncRuns.Inc()
	m.syncDuration.Observe(duration.Seconds())
}
