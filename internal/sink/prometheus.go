// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// PrometheusConfig configures the scrape endpoint sink.
type PrometheusConfig struct {
	ListenAddress string `yaml:"listen_address"`
	Path          string `yaml:"path"`
}

// PrometheusSink exposes the samples of the latest completed cycle on a
// scrape endpoint. Samples become visible on Flush.
type PrometheusSink struct {
	config   PrometheusConfig
	log      *slog.Logger
	registry *prometheus.Registry
	server   *http.Server

	mu      sync.RWMutex
	claims  nameClaims
	pending map[string]float64
	current map[string]float64
}

// NewPrometheusSink creates the sink and starts its HTTP listener when a
// listen address is configured.
func NewPrometheusSink(cfg PrometheusConfig, log *slog.Logger) (*PrometheusSink, error) {
	if log == nil {
		log = slog.Default()
	}
	p := &PrometheusSink{
		config:   cfg,
		log:      log.With("component", "prometheus-sink"),
		registry: prometheus.NewRegistry(),
		claims:   make(nameClaims),
		pending:  make(map[string]float64),
		current:  make(map[string]float64),
	}
	if err := p.registry.Register(p); err != nil {
		return nil, fmt.Errorf("failed to register collector: %w", err)
	}
	if cfg.ListenAddress != "" {
		p.start()
	}
	return p, nil
}

// Handler serves the exposition format for the latest cycle.
func (p *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusSink) start() {
	path := p.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, p.Handler())

	p.server = &http.Server{Addr: p.config.ListenAddress, Handler: mux}
	p.log.Info("starting Prometheus endpoint", "address", p.config.ListenAddress, "path", path)
	go func() {
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Error("HTTP server error", "error", err)
		}
	}()
}

func (p *PrometheusSink) Emit(_ context.Context, s storagedef.Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	name, ok := p.claims.claim(s.Name)
	if !ok {
		p.log.Warn("metric name collision, dropping sample",
			"metric", name, "sample", s.Name, "kept", p.claims[name])
		return nil
	}
	p.pending[name] = s.Value
	return nil
}

// Flush publishes the pending samples, replacing the previous cycle.
func (p *PrometheusSink) Flush(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return nil
	}
	clear(p.claims)
	p.current = p.pending
	p.pending = make(map[string]float64, len(p.current))
	return nil
}

func (p *PrometheusSink) Close(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	p.log.Info("stopping Prometheus endpoint")
	if err := p.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// Describe sends no descriptors; the metric set changes with the cluster.
func (p *PrometheusSink) Describe(chan<- *prometheus.Desc) {}

func (p *PrometheusSink) Collect(ch chan<- prometheus.Metric) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for name, v := range p.current {
		desc := prometheus.NewDesc(name, "SolidFire cluster metric", nil, nil)
		m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v)
		if err != nil {
			p.log.Debug("skipping metric", "name", name, "error", err)
			continue
		}
		ch <- m
	}
}
