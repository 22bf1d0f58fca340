// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package selftelemetry exposes the collector's own health and metrics.
package selftelemetry

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// DefaultNamespace prefixes every self metric.
const DefaultNamespace = "sfcollector"

var states = []string{"idle", "connecting", "polling", "stopped"}

// Metrics holds all self-telemetry metrics for the collector
type Metrics struct {
	namespace string
	registry  *prometheus.Registry
	ready     atomic.Bool

	// Lifecycle metrics
	Ready prometheus.Gauge
	State *prometheus.GaugeVec

	// Cycle metrics
	CyclesTotal    *prometheus.CounterVec
	CycleErrors    *prometheus.CounterVec
	CycleDuration  *prometheus.HistogramVec
	SamplesEmitted *prometheus.CounterVec

	// Element API metrics
	APICalls        *prometheus.CounterVec
	APICallDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance registered on its own registry
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		namespace: namespace,
		registry:  reg,
	}

	m.Ready = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ready",
		Help:      "Whether the collector is polling the cluster (1 = ready)",
	})
	m.State = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "state",
		Help:      "Current lifecycle state (1 for the active state)",
	}, []string{"state"})

	m.CyclesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Total number of collection cycles by result",
	}, []string{"collector", "result"})

	m.CycleErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycle_errors_total",
		Help:      "Total number of abandoned cycles by error kind",
	}, []string{"kind"})

	m.CycleDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Collection cycle duration in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"collector"})

	m.SamplesEmitted = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "samples_emitted_total",
		Help:      "Total number of samples handed to the sink",
	}, []string{"collector"})

	m.APICalls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_calls_total",
		Help:      "Total number of Element API calls by method and result",
	}, []string{"method", "result"})

	m.APICallDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_call_duration_seconds",
		Help:      "Element API call latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	for _, s := range states {
		m.State.WithLabelValues(s).Set(0)
	}

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetReady sets the readiness state
func (m *Metrics) SetReady(ready bool) {
	m.ready.Store(ready)
	if ready {
		m.Ready.Set(1)
	} else {
		m.Ready.Set(0)
	}
}

// IsReady returns the current readiness state
func (m *Metrics) IsReady() bool {
	return m.ready.Load()
}

// StateChanged records a manager state transition. The collector is ready
// only while polling.
func (m *Metrics) StateChanged(state string) {
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1
		}
		m.State.WithLabelValues(s).Set(v)
	}
	m.SetReady(state == "polling")
}

func (m *Metrics) CycleCompleted(collector string, samples int, elapsed time.Duration) {
	m.CyclesTotal.WithLabelValues(collector, "success").Inc()
	m.SamplesEmitted.WithLabelValues(collector).Add(float64(samples))
	m.CycleDuration.WithLabelValues(collector).Observe(elapsed.Seconds())
}

// CycleFailed records an abandoned cycle. samples counts what was flushed
// before the failing rule.
func (m *Metrics) CycleFailed(collector string, kind storagedef.ErrorKind, samples int, elapsed time.Duration) {
	m.CyclesTotal.WithLabelValues(collector, "failure").Inc()
	m.CycleErrors.WithLabelValues(string(kind)).Inc()
	m.SamplesEmitted.WithLabelValues(collector).Add(float64(samples))
	m.CycleDuration.WithLabelValues(collector).Observe(elapsed.Seconds())
}

// APICall records one Element API round trip.
func (m *Metrics) APICall(method string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.APICalls.WithLabelValues(method, result).Inc()
	m.APICallDuration.WithLabelValues(method).Observe(d.Seconds())
}

// InstallHandler installs the Prometheus metrics handler
func (m *Metrics) InstallHandler(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
}
