// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink delivers collected samples to a metrics backend or to the log.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// Sink receives samples. Emit may buffer; Flush is called once at the end
// of every poll cycle.
type Sink interface {
	Emit(ctx context.Context, s storagedef.Sample) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// Mode selects the sink backend.
type Mode string

const (
	ModeDebug       Mode = "debug"
	ModeGraphite    Mode = "graphite"
	ModeOTLP        Mode = "otlp"
	ModeRemoteWrite Mode = "remote_write"
	ModePrometheus  Mode = "prometheus"
)

// DefaultMetricRoot is prepended to every sample name in metrics modes.
const DefaultMetricRoot = "netapp.solidfire.cluster"

// Config selects and configures the sink.
type Config struct {
	Mode        Mode                  `yaml:"mode"`
	MetricRoot  string                `yaml:"metric_root"`
	Graphite    GraphiteConfig        `yaml:"graphite"`
	OTLP        storagedef.OTLPConfig `yaml:"otlp"`
	RemoteWrite RemoteWriteConfig     `yaml:"remote_write"`
	Prometheus  PrometheusConfig      `yaml:"prometheus"`
}

// Validate checks the settings of the selected mode.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeDebug:
		return nil
	case ModeGraphite:
		if c.Graphite.Host == "" {
			return fmt.Errorf("sink.graphite.host is required")
		}
		if c.Graphite.Port <= 0 || c.Graphite.Port > 65535 {
			return fmt.Errorf("sink.graphite.port %d is out of range", c.Graphite.Port)
		}
	case ModeOTLP:
		if c.OTLP.Endpoint == "" {
			return fmt.Errorf("sink.otlp.endpoint is required")
		}
	case ModeRemoteWrite:
		if c.RemoteWrite.URL == "" {
			return fmt.Errorf("sink.remote_write.url is required")
		}
	case ModePrometheus:
		if c.Prometheus.ListenAddress == "" {
			return fmt.Errorf("sink.prometheus.listen_address is required")
		}
	default:
		return fmt.Errorf("unknown sink mode %q", c.Mode)
	}
	return nil
}

// New builds the sink for cfg.Mode. Every mode except debug prefixes
// sample names with the metric root.
func New(ctx context.Context, cfg Config, log *slog.Logger) (Sink, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		s   Sink
		err error
	)
	switch cfg.Mode {
	case ModeDebug:
		log.Warn("Starting collector in debug mode. All the metrics will be shipped to the log")
		return NewLogSink(log), nil
	case ModeGraphite:
		s = NewGraphiteSink(cfg.Graphite, log)
	case ModeOTLP:
		s, err = NewOTLPSink(ctx, cfg.OTLP, log)
	case ModeRemoteWrite:
		s, err = NewRemoteWriteSink(cfg.RemoteWrite, log)
	case ModePrometheus:
		s, err = NewPrometheusSink(cfg.Prometheus, log)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s sink: %w", cfg.Mode, err)
	}
	return WithRoot(s, cfg.MetricRoot), nil
}

type rootedSink struct {
	next Sink
	root string
}

// WithRoot prefixes every sample name with root. An empty root returns
// next unchanged.
func WithRoot(next Sink, root string) Sink {
	root = strings.TrimSuffix(root, ".")
	if root == "" {
		return next
	}
	return &rootedSink{next: next, root: root}
}

func (r *rootedSink) Emit(ctx context.Context, s storagedef.Sample) error {
	s.Name = r.root + "." + s.Name
	return r.next.Emit(ctx, s)
}

func (r *rootedSink) Flush(ctx context.Context) error { return r.next.Flush(ctx) }
func (r *rootedSink) Close(ctx context.Context) error { return r.next.Close(ctx) }

// sampleTime falls back to now for samples without a timestamp.
func sampleTime(s storagedef.Sample) time.Time {
	if s.Timestamp.IsZero() {
		return time.Now()
	}
	return s.Timestamp
}
