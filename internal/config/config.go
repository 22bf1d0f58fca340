// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the collector configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platformbuilds/sfcollector/internal/selftelemetry"
	"github.com/platformbuilds/sfcollector/internal/sink"
	"github.com/platformbuilds/sfcollector/internal/storage"
	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// PasswordEnv overrides solidfire.password when set.
const PasswordEnv = "SFCOLLECTOR_PASSWORD"

// Defaults shared by the config file and the command line flags.
const (
	DefaultUsername     = "admin"
	DefaultPassword     = "password"
	DefaultTimeout      = 15 * time.Second
	DefaultGraphiteHost = "localhost"
	DefaultGraphitePort = 2003
)

type Config struct {
	SolidFire     SolidFire     `yaml:"solidfire"`
	Collector     Collector     `yaml:"collector"`
	Sink          sink.Config   `yaml:"sink"`
	Log           Log           `yaml:"log"`
	SelfTelemetry SelfTelemetry `yaml:"self_telemetry"`
	Tracing       Tracing       `yaml:"tracing"`
}

// SolidFire addresses the cluster management VIP.
type SolidFire struct {
	Address    string               `yaml:"address"`
	Username   string               `yaml:"username"`
	Password   string               `yaml:"password"`
	APIVersion string               `yaml:"api_version"`
	Timeout    time.Duration        `yaml:"timeout"`
	VerifySSL  bool                 `yaml:"verify_ssl"`
	TLS        storagedef.TLSConfig `yaml:"tls"`
}

type Collector struct {
	Name            string        `yaml:"name"`
	Interval        time.Duration `yaml:"interval"`
	AccountCacheTTL time.Duration `yaml:"account_cache_ttl"`
	ParallelFetch   bool          `yaml:"parallel_fetch"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File mirrors --logfile: when set, logs go there instead of stderr.
	File string `yaml:"file"`
}

type SelfTelemetry struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	Namespace string `yaml:"prometheus_namespace"`
}

// Tracing configures span and log export over OTLP.
type Tracing struct {
	Enabled     bool                  `yaml:"enabled"`
	ServiceName string                `yaml:"service_name"`
	ExportLogs  bool                  `yaml:"export_logs"`
	OTLP        storagedef.OTLPConfig `yaml:"otlp"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.SolidFire.Username == "" {
		c.SolidFire.Username = DefaultUsername
	}
	if c.SolidFire.Password == "" {
		c.SolidFire.Password = DefaultPassword
	}
	if c.SolidFire.Timeout <= 0 {
		c.SolidFire.Timeout = DefaultTimeout
	}
	if c.Collector.Interval <= 0 {
		c.Collector.Interval = storage.DefaultCollectInterval
	}
	if c.Sink.Mode == "" {
		c.Sink.Mode = sink.ModeGraphite
	}
	if c.Sink.MetricRoot == "" {
		c.Sink.MetricRoot = sink.DefaultMetricRoot
	}
	if c.Sink.Graphite.Host == "" {
		c.Sink.Graphite.Host = DefaultGraphiteHost
	}
	if c.Sink.Graphite.Port == 0 {
		c.Sink.Graphite.Port = DefaultGraphitePort
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.SelfTelemetry.Listen == "" {
		c.SelfTelemetry.Listen = selftelemetry.DefaultListen
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "sfcollector"
	}
	if c.Tracing.OTLP.Protocol == "" {
		c.Tracing.OTLP.Protocol = "grpc"
	}
}

// ApplyEnv applies environment overrides.
func (c *Config) ApplyEnv() {
	if pw, ok := os.LookupEnv(PasswordEnv); ok && pw != "" {
		c.SolidFire.Password = pw
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.SolidFire.Address == "" {
		errs = append(errs, errors.New("solidfire.address is required"))
	}
	if c.SolidFire.Timeout < 0 {
		errs = append(errs, errors.New("solidfire.timeout must not be negative"))
	}
	if c.Collector.AccountCacheTTL < 0 {
		errs = append(errs, errors.New("collector.account_cache_ttl must not be negative"))
	}
	if err := c.Sink.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if c.Tracing.Enabled && c.Tracing.OTLP.Endpoint == "" {
		errs = append(errs, errors.New("tracing.otlp.endpoint is required when tracing is enabled"))
	}
	switch c.Tracing.OTLP.Protocol {
	case "grpc", "http":
	default:
		errs = append(errs, fmt.Errorf("tracing.otlp.protocol %q must be grpc or http", c.Tracing.OTLP.Protocol))
	}
	return errors.Join(errs...)
}
