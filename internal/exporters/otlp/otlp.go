// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package otlp builds the OTLP trace and log providers used for the
// collector's own instrumentation.
package otlp

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc/credentials"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// Options selects what New builds.
type Options struct {
	ServiceName    string
	ServiceVersion string
	OTLP           storagedef.OTLPConfig
	// Logs also builds a LoggerProvider on the same endpoint.
	Logs bool
}

// Providers contains the SDK providers. Log is nil unless Options.Logs is set.
type Providers struct {
	Trace *sdktrace.TracerProvider
	Log   *sdklog.LoggerProvider
	close func(context.Context) error
}

// New builds the providers for o.OTLP.Protocol ("grpc" or "http").
func New(ctx context.Context, o Options) (*Providers, error) {
	if o.OTLP.Endpoint == "" {
		return nil, errors.New("no OTLP endpoint configured")
	}
	res, err := Resource(ctx, o.ServiceName, o.ServiceVersion)
	if err != nil {
		return nil, err
	}

	var texp sdktrace.SpanExporter
	switch o.OTLP.Protocol {
	case "", "grpc":
		texp, err = newGRPCTraceExporter(ctx, o.OTLP)
	case "http":
		texp, err = newHTTPTraceExporter(ctx, o.OTLP)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", o.OTLP.Protocol)
	}
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(texp), sdktrace.WithResource(res))

	var lp *sdklog.LoggerProvider
	if o.Logs {
		var lexp sdklog.Exporter
		if o.OTLP.Protocol == "http" {
			lexp, err = newHTTPLogExporter(ctx, o.OTLP)
		} else {
			lexp, err = newGRPCLogExporter(ctx, o.OTLP)
		}
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("create log exporter: %w", err)
		}
		lp = sdklog.NewLoggerProvider(sdklog.WithResource(res), sdklog.WithProcessor(sdklog.NewBatchProcessor(lexp)))
	}

	return &Providers{
		Trace: tp,
		Log:   lp,
		close: func(ctx context.Context) error {
			var errs []error
			if lp != nil {
				if err := lp.Shutdown(ctx); err != nil {
					errs = append(errs, err)
				}
			}
			if err := tp.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		},
	}, nil
}

// Shutdown flushes and stops every provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil || p.close == nil {
		return nil
	}
	return p.close(ctx)
}

// Resource describes this process.
func Resource(ctx context.Context, serviceName, serviceVersion string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = "sfcollector"
	}
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
		resource.WithHost(),
		resource.WithProcessPID(),
	)
}

func newGRPCTraceExporter(ctx context.Context, cfg storagedef.OTLPConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.TLS.Enabled && !cfg.Insecure {
		creds, err := buildTLS(cfg.TLS)
		if err != nil {
			return nil, err
		}
		opts = append(opts, otlptracegrpc.WithTLSCredentials(creds))
	} else {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	if cfg.Compression == "gzip" {
		opts = append(opts, otlptracegrpc.WithCompressor("gzip"))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(cfg.Timeout))
	}
	return otlptracegrpc.New(ctx, opts...)
}

func newHTTPTraceExporter(ctx context.Context, cfg storagedef.OTLPConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if !cfg.TLS.Enabled || cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if cfg.Compression == "gzip" {
		opts = append(opts, otlptracehttp.WithCompression(otlptracehttp.GzipCompression))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlptracehttp.WithTimeout(cfg.Timeout))
	}
	return otlptracehttp.New(ctx, opts...)
}

func newGRPCLogExporter(ctx context.Context, cfg storagedef.OTLPConfig) (sdklog.Exporter, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.TLS.Enabled && !cfg.Insecure {
		creds, err := buildTLS(cfg.TLS)
		if err != nil {
			return nil, err
		}
		opts = append(opts, otlploggrpc.WithTLSCredentials(creds))
	} else {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	if cfg.Compression == "gzip" {
		opts = append(opts, otlploggrpc.WithCompressor("gzip"))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(cfg.Headers))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlploggrpc.WithTimeout(cfg.Timeout))
	}
	return otlploggrpc.New(ctx, opts...)
}

func newHTTPLogExporter(ctx context.Context, cfg storagedef.OTLPConfig) (sdklog.Exporter, error) {
	opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
	if !cfg.TLS.Enabled || cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	if cfg.Compression == "gzip" {
		opts = append(opts, otlploghttp.WithCompression(otlploghttp.GzipCompression))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.Headers))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(cfg.Timeout))
	}
	return otlploghttp.New(ctx, opts...)
}

func buildTLS(c storagedef.TLSConfig) (credentials.TransportCredentials, error) {
	cfg := &tls.Config{InsecureSkipVerify: c.InsecureSkipVerify}
	if c.CAFile != "" {
		b, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(b) {
			return nil, errors.New("bad ca")
		}
		cfg.RootCAs = pool
	}
	if c.CertFile != "" && c.KeyFile != "" {
		crt, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{crt}
	}
	return credentials.NewTLS(cfg), nil
}
