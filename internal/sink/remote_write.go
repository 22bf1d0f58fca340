// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/common/model"
	"github.com/prometheus/prometheus/prompb"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// BasicAuth holds basic auth credentials
type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// RemoteWriteConfig configures the Prometheus remote write sink.
type RemoteWriteConfig struct {
	URL       string            `yaml:"url"`
	Timeout   time.Duration     `yaml:"timeout"`
	Headers   map[string]string `yaml:"headers"`
	BasicAuth *BasicAuth        `yaml:"basic_auth"`
	// Labels are added to every series, e.g. a job label.
	Labels map[string]string `yaml:"labels"`
}

// RemoteWriteSink sends one write request per cycle.
type RemoteWriteSink struct {
	config RemoteWriteConfig
	client *http.Client
	log    *slog.Logger

	mu      sync.Mutex
	pending []storagedef.Sample
}

// NewRemoteWriteSink creates a remote write sink.
func NewRemoteWriteSink(cfg RemoteWriteConfig, log *slog.Logger) (*RemoteWriteSink, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote write URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &RemoteWriteSink{
		config: cfg,
		client: &http.Client{Timeout: timeout},
		log:    log.With("component", "remote-write", "endpoint", cfg.URL),
	}, nil
}

func (r *RemoteWriteSink) Emit(_ context.Context, s storagedef.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, s)
	return nil
}

func (r *RemoteWriteSink) Flush(ctx context.Context) error {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	req := r.buildWriteRequest(batch)
	if err := r.send(ctx, req); err != nil {
		return err
	}
	r.log.Debug("sent write request", "series", len(req.Timeseries))
	return nil
}

func (r *RemoteWriteSink) Close(ctx context.Context) error {
	return r.Flush(ctx)
}

// buildWriteRequest converts samples to a Prometheus WriteRequest with one
// series per metric name. A repeated sample keeps its latest value; a
// sample whose name collides with another one is dropped.
func (r *RemoteWriteSink) buildWriteRequest(samples []storagedef.Sample) *prompb.WriteRequest {
	claims := make(nameClaims, len(samples))
	index := make(map[string]int, len(samples))
	timeseries := make([]prompb.TimeSeries, 0, len(samples))
	for _, s := range samples {
		name, ok := claims.claim(s.Name)
		if !ok {
			r.log.Warn("metric name collision, dropping sample",
				"metric", name, "sample", s.Name, "kept", claims[name])
			continue
		}
		point := prompb.Sample{
			Value:     s.Value,
			Timestamp: sampleTime(s).UnixMilli(),
		}
		if i, dup := index[name]; dup {
			timeseries[i].Samples[0] = point
			continue
		}

		labels := make([]prompb.Label, 0, len(r.config.Labels)+1)
		labels = append(labels, prompb.Label{
			Name:  model.MetricNameLabel,
			Value: name,
		})
		for k, v := range r.config.Labels {
			labels = append(labels, prompb.Label{Name: k, Value: v})
		}
		// receivers require labels sorted by name
		slices.SortFunc(labels, func(a, b prompb.Label) int {
			return strings.Compare(a.Name, b.Name)
		})

		index[name] = len(timeseries)
		timeseries = append(timeseries, prompb.TimeSeries{
			Labels:  labels,
			Samples: []prompb.Sample{point},
		})
	}
	return &prompb.WriteRequest{Timeseries: timeseries}
}

// send sends a write request to the endpoint
func (r *RemoteWriteSink) send(ctx context.Context, req *prompb.WriteRequest) error {
	data, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal write request: %w", err)
	}

	compressed := snappy.Encode(nil, data)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.URL, bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	for k, v := range r.config.Headers {
		httpReq.Header.Set(k, v)
	}

	if r.config.BasicAuth != nil {
		httpReq.SetBasicAuth(r.config.BasicAuth.Username, r.config.BasicAuth.Password)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("remote write failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
