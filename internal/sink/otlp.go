// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
	"github.com/platformbuilds/sfcollector/internal/version"
)

// OTLPSink records every sample on a Float64Gauge named after it and lets
// a periodic reader push them over OTLP.
type OTLPSink struct {
	log      *slog.Logger
	provider *sdkmetric.MeterProvider
	meter    metric.Meter

	gauges map[string]metric.Float64Gauge
	mu     sync.Mutex

	pending []storagedef.Sample
	queue   chan []storagedef.Sample
	stopCh  chan struct{}
	wg      sync.WaitGroup
	stopped bool
}

// NewOTLPSink creates an OTLP metrics sink exporting over gRPC or HTTP.
func NewOTLPSink(ctx context.Context, cfg storagedef.OTLPConfig, log *slog.Logger) (*OTLPSink, error) {
	if log == nil {
		log = slog.Default()
	}

	var (
		exporter sdkmetric.Exporter
		err      error
	)
	switch cfg.Protocol {
	case "http":
		exporter, err = newHTTPMetricExporter(ctx, cfg)
	default:
		exporter, err = newGRPCMetricExporter(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	log.Info("starting OTLP metric sink", "endpoint", cfg.Endpoint, "protocol", cfg.Protocol)
	return newOTLPSink(ctx, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second)), log)
}

func newOTLPSink(ctx context.Context, reader sdkmetric.Reader, log *slog.Logger) (*OTLPSink, error) {
	if log == nil {
		log = slog.Default()
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("sfcollector"),
			semconv.ServiceVersion(version.Version()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	s := &OTLPSink{
		log:      log.With("component", "otlp-sink"),
		provider: provider,
		meter:    provider.Meter("sfcollector.solidfire"),
		gauges:   make(map[string]metric.Float64Gauge),
		queue:    make(chan []storagedef.Sample, 16),
		stopCh:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.worker(ctx)
	return s, nil
}

func newGRPCMetricExporter(ctx context.Context, cfg storagedef.OTLPConfig) (sdkmetric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure || !cfg.TLS.Enabled {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	if cfg.Compression == "gzip" {
		opts = append(opts, otlpmetricgrpc.WithCompressor("gzip"))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlpmetricgrpc.WithTimeout(cfg.Timeout))
	}
	return otlpmetricgrpc.New(ctx, opts...)
}

func newHTTPMetricExporter(ctx context.Context, cfg storagedef.OTLPConfig) (sdkmetric.Exporter, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure || !cfg.TLS.Enabled {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if cfg.Compression == "gzip" {
		opts = append(opts, otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlpmetrichttp.WithTimeout(cfg.Timeout))
	}
	return otlpmetrichttp.New(ctx, opts...)
}

func (s *OTLPSink) Emit(_ context.Context, sample storagedef.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, sample)
	return nil
}

// Flush hands the pending batch to the recording worker.
func (s *OTLPSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	select {
	case s.queue <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("OTLP sink queue full, dropped %d samples", len(batch))
	}
}

// Close drains the queue, pushes the last values and shuts the provider down.
func (s *OTLPSink) Close(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		s.log.Warn("final flush failed", "error", err)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	if err := s.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down meter provider: %w", err)
	}
	return nil
}

func (s *OTLPSink) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			for {
				select {
				case batch := <-s.queue:
					s.record(ctx, batch)
				default:
					return
				}
			}
		case batch := <-s.queue:
			s.record(ctx, batch)
		}
	}
}

func (s *OTLPSink) record(ctx context.Context, batch []storagedef.Sample) {
	for _, sample := range batch {
		gauge, err := s.gauge(sample.Name)
		if err != nil {
			s.log.Debug("failed to record sample", "name", sample.Name, "error", err)
			continue
		}
		gauge.Record(context.WithoutCancel(ctx), sample.Value)
	}
}

func (s *OTLPSink) gauge(name string) (metric.Float64Gauge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.gauges[name]; ok {
		return g, nil
	}
	g, err := s.meter.Float64Gauge(otelName(name), metric.WithDescription("SolidFire cluster metric"))
	if err != nil {
		return nil, err
	}
	s.gauges[name] = g
	return g, nil
}
