// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage drives storage cluster collectors through their
// connect and poll lifecycle.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// State is the lifecycle state of the manager.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StatePolling    State = "polling"
	StateStopped    State = "stopped"
)

// DefaultCollectInterval is used when no interval is configured.
const DefaultCollectInterval = 60 * time.Second

// Observer receives lifecycle and cycle events, typically self metrics.
type Observer interface {
	StateChanged(state string)
	CycleCompleted(collector string, samples int, elapsed time.Duration)
	CycleFailed(collector string, kind storagedef.ErrorKind, samples int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) StateChanged(string)                                           {}
func (nopObserver) CycleCompleted(string, int, time.Duration)                     {}
func (nopObserver) CycleFailed(string, storagedef.ErrorKind, int, time.Duration) {}

// Config holds the poll loop settings
type Config struct {
	CollectInterval time.Duration
}

// Manager connects every collector once and then polls them on a fixed
// interval until the context is cancelled.
type Manager struct {
	config     Config
	collectors []storagedef.Collector
	observer   Observer
	log        *slog.Logger

	mu      sync.RWMutex
	state   State
	lastRun time.Time

	health   map[string]*storagedef.CollectorHealth
	healthMu sync.RWMutex
}

// NewManager creates a new manager. observer may be nil.
func NewManager(cfg Config, collectors []storagedef.Collector, observer Observer, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "storage-manager")

	if cfg.CollectInterval <= 0 {
		cfg.CollectInterval = DefaultCollectInterval
	}
	if observer == nil {
		observer = nopObserver{}
	}

	return &Manager{
		config:     cfg,
		collectors: collectors,
		observer:   observer,
		log:        log,
		state:      StateIdle,
		health:     make(map[string]*storagedef.CollectorHealth),
	}
}

// Run connects all collectors and polls them until ctx is done. A connect
// failure is fatal and returned; cycle failures are logged and the loop
// carries on.
func (m *Manager) Run(ctx context.Context) error {
	m.setState(StateConnecting)
	m.log.Info("starting storage metrics manager",
		"collect_interval", m.config.CollectInterval,
		"collectors", len(m.collectors),
	)

	for _, c := range m.collectors {
		if err := c.Connect(ctx); err != nil {
			m.log.Error(storagedef.Describe(err), "collector", c.Name())
			m.setState(StateStopped)
			return fmt.Errorf("failed to connect collector %q: %w", c.Name(), err)
		}
	}

	m.setState(StatePolling)
	m.collectLoop(ctx)
	m.setState(StateStopped)
	return nil
}

// Close releases every collector.
func (m *Manager) Close(ctx context.Context) error {
	var firstErr error
	for _, c := range m.collectors {
		if err := c.Close(ctx); err != nil {
			m.log.Warn("error stopping collector", "name", c.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	m.log.Info("storage metrics manager stopped")
	return firstErr
}

// collectLoop runs the periodic metric collection
func (m *Manager) collectLoop(ctx context.Context) {
	ticker := time.NewTicker(m.config.CollectInterval)
	defer ticker.Stop()

	// Collect immediately on start
	m.collectAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectAll(ctx)
		}
	}
}

// collectAll runs one cycle on every collector
func (m *Manager) collectAll(ctx context.Context) {
	start := time.Now()
	var total int

	for _, c := range m.collectors {
		name := c.Name()
		collectStart := time.Now()

		n, err := c.CollectCycle(ctx)
		elapsed := time.Since(collectStart)
		total += n

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.log.Warn(storagedef.Describe(err), "collector", name, "samples", n)
			m.observer.CycleFailed(name, storagedef.KindOf(err), n, elapsed)
			m.updateHealth(name, &storagedef.CollectorHealth{
				Status:       storagedef.HealthStatusUnhealthy,
				LastCheck:    time.Now(),
				LastError:    err,
				ResponseTime: elapsed,
				Samples:      n,
			})
			continue
		}

		m.observer.CycleCompleted(name, n, elapsed)
		m.updateHealth(name, &storagedef.CollectorHealth{
			Status:       storagedef.HealthStatusHealthy,
			LastCheck:    time.Now(),
			LastSuccess:  time.Now(),
			ResponseTime: elapsed,
			Samples:      n,
		})
		m.log.Debug("collected metrics",
			"collector", name,
			"count", n,
			"duration", elapsed,
		)
	}

	m.mu.Lock()
	m.lastRun = time.Now()
	m.mu.Unlock()

	m.log.Info("collection cycle completed",
		"collectors", len(m.collectors),
		"metrics", total,
		"duration", time.Since(start),
	)
}

// updateHealth updates the health status for a collector
func (m *Manager) updateHealth(name string, health *storagedef.CollectorHealth) {
	m.healthMu.Lock()
	defer m.healthMu.Unlock()

	existing, ok := m.health[name]
	if ok {
		if health.LastError != nil {
			health.ErrorCount = existing.ErrorCount + 1
		}
		if health.LastSuccess.IsZero() {
			health.LastSuccess = existing.LastSuccess
		}
	} else if health.LastError != nil {
		health.ErrorCount = 1
	}
	m.health[name] = health
}

// GetHealth returns a copy of the health status of all collectors.
func (m *Manager) GetHealth() map[string]*storagedef.CollectorHealth {
	m.healthMu.RLock()
	defer m.healthMu.RUnlock()

	result := make(map[string]*storagedef.CollectorHealth, len(m.health))
	for k, v := range m.health {
		h := *v
		result[k] = &h
	}
	return result
}

// GetCollectorHealth returns the health status of a specific collector
func (m *Manager) GetCollectorHealth(name string) (*storagedef.CollectorHealth, bool) {
	m.healthMu.RLock()
	defer m.healthMu.RUnlock()

	h, ok := m.health[name]
	return h, ok
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.observer.StateChanged(string(s))
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastCollectionTime returns the time of the last collection cycle
func (m *Manager) LastCollectionTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun
}
