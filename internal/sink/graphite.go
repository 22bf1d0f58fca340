// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marpaia/graphite-golang"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// GraphiteConfig configures the carbon plaintext sink.
type GraphiteConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// GraphiteSink batches samples per cycle and ships them to carbon over a
// persistent TCP connection, reconnecting after a failed send.
type GraphiteSink struct {
	cfg GraphiteConfig
	log *slog.Logger

	mu      sync.Mutex
	carbon  *graphite.Graphite
	pending []graphite.Metric
}

// NewGraphiteSink creates a GraphiteSink. The connection is opened on the
// first flush.
func NewGraphiteSink(cfg GraphiteConfig, log *slog.Logger) *GraphiteSink {
	if log == nil {
		log = slog.Default()
	}
	return &GraphiteSink{
		cfg: cfg,
		log: log.With("component", "graphite-sink", "host", cfg.Host, "port", cfg.Port),
	}
}

func (g *GraphiteSink) Emit(_ context.Context, s storagedef.Sample) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = append(g.pending, graphite.Metric{
		Name:      s.Name,
		Value:     formatValue(s.Value),
		Timestamp: sampleTime(s).Unix(),
	})
	return nil
}

// Flush sends the pending batch. The batch is dropped when sending fails.
func (g *GraphiteSink) Flush(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.pending) == 0 {
		return nil
	}
	batch := g.pending
	g.pending = nil

	if g.carbon == nil {
		carbon, err := graphite.NewGraphite(g.cfg.Host, g.cfg.Port)
		if err != nil {
			return fmt.Errorf("could not connect to graphite: %w", err)
		}
		if g.cfg.Timeout > 0 {
			carbon.Timeout = g.cfg.Timeout
		}
		g.carbon = carbon
		g.log.Info("connected to graphite")
	}

	if err := g.carbon.SendMetrics(batch); err != nil {
		g.log.Warn("error sending metrics, trying to reconnect", "error", err, "dropped", len(batch))
		if cerr := g.carbon.Connect(); cerr != nil {
			g.log.Warn("could not reconnect to graphite", "error", cerr)
		}
		return fmt.Errorf("failed to send %d metrics to graphite: %w", len(batch), err)
	}
	return nil
}

func (g *GraphiteSink) Close(ctx context.Context) error {
	if err := g.Flush(ctx); err != nil {
		g.log.Warn("final flush failed", "error", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.carbon == nil {
		return nil
	}
	g.log.Info("disconnecting from graphite")
	err := g.carbon.Disconnect()
	g.carbon = nil
	return err
}
