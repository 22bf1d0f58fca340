// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package storagedef provides shared type definitions for the storage
// cluster collector and the sinks it feeds.
package storagedef

import (
	"context"
	"time"
)

// Sample is a single flat time-series point. Value is always a finite
// float64 or NaN.
type Sample struct {
	Name      string
	Value     float64
	Timestamp time.Time
}

// HealthStatus represents the health status of a collector
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// CollectorHealth contains health information for a collector
type CollectorHealth struct {
	Status       HealthStatus
	LastCheck    time.Time
	LastSuccess  time.Time
	LastError    error
	ErrorCount   int
	ResponseTime time.Duration
	Samples      int
}

// Collector is implemented by cluster collectors driven by the poll loop.
type Collector interface {
	// Name returns the unique name of this collector instance
	Name() string

	// Connect builds and verifies the API session.
	Connect(ctx context.Context) error

	// CollectCycle runs one full extraction pass and returns the number of
	// samples emitted. A non-nil error means the cycle was abandoned.
	CollectCycle(ctx context.Context) (int, error)

	// Close releases the session and the sink.
	Close(ctx context.Context) error
}

// TLSConfig contains TLS configuration for API clients and exporters
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	CAFile             string `yaml:"ca_file"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Endpoint    string            `yaml:"endpoint"`
	Protocol    string            `yaml:"protocol"`
	Insecure    bool              `yaml:"insecure"`
	Headers     map[string]string `yaml:"headers"`
	Compression string            `yaml:"compression"`
	Timeout     time.Duration     `yaml:"timeout"`
	TLS         TLSConfig         `yaml:"tls"`
}
