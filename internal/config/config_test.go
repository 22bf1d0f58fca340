// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/sfcollector/internal/sink"
)

// writeTempYAML creates a temp YAML file and returns its path.
func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp yaml: %v", err)
	}
	return p
}

func TestLoad_MinimalWithDefaults(t *testing.T) {
	p := writeTempYAML(t, `
solidfire:
  address: "10.0.0.1"
`)

	got, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	assert.Equal(t, "10.0.0.1", got.SolidFire.Address)
	assert.Equal(t, "admin", got.SolidFire.Username)
	assert.Equal(t, "password", got.SolidFire.Password)
	assert.Equal(t, 15*time.Second, got.SolidFire.Timeout)
	assert.Equal(t, 60*time.Second, got.Collector.Interval)
	assert.Zero(t, got.Collector.AccountCacheTTL)
	assert.Equal(t, sink.ModeGraphite, got.Sink.Mode)
	assert.Equal(t, "netapp.solidfire.cluster", got.Sink.MetricRoot)
	assert.Equal(t, "localhost", got.Sink.Graphite.Host)
	assert.Equal(t, 2003, got.Sink.Graphite.Port)
	assert.Equal(t, ":19090", got.SelfTelemetry.Listen)
	assert.Equal(t, "info", got.Log.Level)
}

func TestLoad_FullConfigDecode(t *testing.T) {
	p := writeTempYAML(t, `
solidfire:
  address: "https://mvip.example"
  username: "monitor"
  password: "s3cret"
  api_version: "9.0"
  timeout: "30s"
  verify_ssl: true
  tls:
    ca_file: "/etc/ssl/ca.pem"

collector:
  name: "lab"
  interval: "2m"
  account_cache_ttl: "10m"
  parallel_fetch: true

sink:
  mode: "remote_write"
  metric_root: "storage.sf"
  remote_write:
    url: "https://rw.example/api/v1/write"
    timeout: "5s"
    headers:
      X-Scope-OrgID: "team-a"
    labels:
      job: "sfcollector"

log:
  level: "debug"
  format: "json"
  file: "/var/log/sfcollector.log"

self_telemetry:
  enabled: true
  listen: "0.0.0.0:19091"

tracing:
  enabled: true
  export_logs: true
  otlp:
    endpoint: "otel.example:4317"
    protocol: "grpc"
    insecure: true
`)

	got, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	assert.Equal(t, "monitor", got.SolidFire.Username)
	assert.Equal(t, "9.0", got.SolidFire.APIVersion)
	assert.Equal(t, 30*time.Second, got.SolidFire.Timeout)
	assert.True(t, got.SolidFire.VerifySSL)
	assert.Equal(t, "/etc/ssl/ca.pem", got.SolidFire.TLS.CAFile)

	assert.Equal(t, "lab", got.Collector.Name)
	assert.Equal(t, 2*time.Minute, got.Collector.Interval)
	assert.Equal(t, 10*time.Minute, got.Collector.AccountCacheTTL)
	assert.True(t, got.Collector.ParallelFetch)

	assert.Equal(t, sink.ModeRemoteWrite, got.Sink.Mode)
	assert.Equal(t, "storage.sf", got.Sink.MetricRoot)
	assert.Equal(t, "https://rw.example/api/v1/write", got.Sink.RemoteWrite.URL)
	assert.Equal(t, 5*time.Second, got.Sink.RemoteWrite.Timeout)
	assert.Equal(t, "team-a", got.Sink.RemoteWrite.Headers["X-Scope-OrgID"])
	assert.Equal(t, "sfcollector", got.Sink.RemoteWrite.Labels["job"])

	assert.Equal(t, "json", got.Log.Format)
	assert.Equal(t, "/var/log/sfcollector.log", got.Log.File)
	assert.Equal(t, "0.0.0.0:19091", got.SelfTelemetry.Listen)
	assert.True(t, got.Tracing.ExportLogs)
	assert.Equal(t, "otel.example:4317", got.Tracing.OTLP.Endpoint)
	assert.True(t, got.Tracing.OTLP.Insecure)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeTempYAML(t, "solidfire: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no address", func(c *Config) { c.SolidFire.Address = "" }, "solidfire.address is required"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative ttl", func(c *Config) { c.Collector.AccountCacheTTL = -time.Second }, "account_cache_ttl"},
		{"unknown sink", func(c *Config) { c.Sink.Mode = "statsd" }, "unknown sink mode"},
		{"debug sink", func(c *Config) { c.Sink.Mode = sink.ModeDebug }, ""},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true }, "tracing.otlp.endpoint"},
		{"bad tracing protocol", func(c *Config) { c.Tracing.OTLP.Protocol = "udp" }, "tracing.otlp.protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.SolidFire.Address = "10.0.0.1"
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	c := Default()
	c.Log.Format = "xml"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solidfire.address")
	assert.Contains(t, err.Error(), "log.format")
}

func TestApplyEnv_Password(t *testing.T) {
	c := Default()
	t.Setenv(PasswordEnv, "from-env")
	c.ApplyEnv()
	assert.Equal(t, "from-env", c.SolidFire.Password)
}

func TestApplyEnv_EmptyKeepsFileValue(t *testing.T) {
	c := Default()
	c.SolidFire.Password = "from-file"
	t.Setenv(PasswordEnv, "")
	c.ApplyEnv()
	assert.Equal(t, "from-file", c.SolidFire.Password)
}

func TestLoad_ExampleConfig(t *testing.T) {
	got, err := Load(filepath.Join("..", "..", "configs", "sfcollector.yaml"))
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	assert.Equal(t, "mvip.example.com", got.SolidFire.Address)
	assert.Equal(t, ":9108", got.Sink.Prometheus.ListenAddress)
}
