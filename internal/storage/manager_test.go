// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

type fakeCollector struct {
	mu         sync.Mutex
	connectErr error
	cycleErrs  []error
	cycles     int
	closed     bool
}

func (f *fakeCollector) Name() string { return "fake" }

func (f *fakeCollector) Connect(context.Context) error { return f.connectErr }

func (f *fakeCollector) CollectCycle(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if f.cycles < len(f.cycleErrs) {
		err = f.cycleErrs[f.cycles]
	}
	f.cycles++
	if err != nil {
		return 1, err
	}
	return 10, nil
}

func (f *fakeCollector) Close(context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeCollector) cycleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cycles
}

type recordingObserver struct {
	mu            sync.Mutex
	states        []string
	completed     int
	failed        map[storagedef.ErrorKind]int
	failedSamples int
}

func (r *recordingObserver) StateChanged(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recordingObserver) CycleCompleted(string, int, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *recordingObserver) CycleFailed(_ string, kind storagedef.ErrorKind, samples int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedSamples += samples
	if r.failed == nil {
		r.failed = make(map[storagedef.ErrorKind]int)
	}
	r.failed[kind]++
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestManager_ConnectFailureIsFatal(t *testing.T) {
	c := &fakeCollector{connectErr: storagedef.Transport("GetClusterInfo", errors.New("connection refused"))}
	obs := &recordingObserver{}
	m := NewManager(Config{CollectInterval: time.Second}, []storagedef.Collector{c}, obs, nil)

	err := m.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, storagedef.TransportError, storagedef.KindOf(err))
	assert.Zero(t, c.cycleCount())
	assert.Equal(t, StateStopped, m.State())
	assert.Equal(t, []string{"connecting", "stopped"}, obs.states)
}

func TestManager_PollsOnInterval(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := &fakeCollector{}
		obs := &recordingObserver{}
		m := NewManager(Config{CollectInterval: time.Minute}, []storagedef.Collector{c}, obs, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- m.Run(ctx) }()

		synctest.Wait()
		assert.Equal(t, 1, c.cycleCount(), "first cycle runs immediately")
		assert.Equal(t, StatePolling, m.State())

		time.Sleep(2*time.Minute + time.Second)
		synctest.Wait()
		assert.Equal(t, 3, c.cycleCount())

		cancel()
		require.NoError(t, <-done)
		assert.Equal(t, StateStopped, m.State())
		assert.Equal(t, 3, obs.completed)

		h, ok := m.GetCollectorHealth("fake")
		require.True(t, ok)
		assert.Equal(t, storagedef.HealthStatusHealthy, h.Status)
		assert.Equal(t, 10, h.Samples)
	})
}

func TestManager_CycleFailureIsLoggedAndLoopContinues(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var logs syncBuffer
		log := slog.New(slog.NewTextHandler(&logs, nil))

		c := &fakeCollector{cycleErrs: []error{
			storagedef.Transport("ListVolumeStatsByVolume", errors.New("connection reset")),
			storagedef.Generalf("ListNodeStats", "node 9 is not in the node list"),
		}}
		obs := &recordingObserver{}
		m := NewManager(Config{CollectInterval: time.Minute}, []storagedef.Collector{c}, obs, log)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- m.Run(ctx) }()

		synctest.Wait()
		h, _ := m.GetCollectorHealth("fake")
		assert.Equal(t, storagedef.HealthStatusUnhealthy, h.Status)
		assert.Equal(t, 1, h.ErrorCount)

		time.Sleep(2*time.Minute + time.Second)
		synctest.Wait()
		cancel()
		require.NoError(t, <-done)

		assert.Equal(t, 3, c.cycleCount())
		assert.Equal(t, 1, obs.failed[storagedef.TransportError])
		assert.Equal(t, 1, obs.failed[storagedef.GeneralError])
		assert.Equal(t, 1, obs.completed)
		assert.Equal(t, 2, obs.failedSamples, "samples flushed before the failing rule are reported")

		out := logs.String()
		assert.Contains(t, out, "TransportError: ListVolumeStatsByVolume: connection reset")
		assert.Contains(t, out, "GeneralError: ListNodeStats: node 9 is not in the node list")

		h, _ = m.GetCollectorHealth("fake")
		assert.Equal(t, storagedef.HealthStatusHealthy, h.Status)
		assert.False(t, h.LastSuccess.IsZero())
	})
}

func TestManager_HealthSnapshot(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := &fakeCollector{cycleErrs: []error{
			nil,
			storagedef.Transport("ListDrives", errors.New("connection reset")),
		}}
		m := NewManager(Config{CollectInterval: time.Minute}, []storagedef.Collector{c}, nil, nil)
		assert.True(t, m.LastCollectionTime().IsZero())
		assert.Empty(t, m.GetHealth())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- m.Run(ctx) }()

		synctest.Wait()
		firstRun := m.LastCollectionTime()
		assert.False(t, firstRun.IsZero())

		time.Sleep(time.Minute + time.Second)
		synctest.Wait()
		cancel()
		require.NoError(t, <-done)

		assert.Equal(t, firstRun.Add(time.Minute), m.LastCollectionTime())
		health := m.GetHealth()
		require.Contains(t, health, "fake")
		h := health["fake"]
		assert.Equal(t, storagedef.HealthStatusUnhealthy, h.Status)
		assert.Equal(t, 1, h.ErrorCount)
		assert.Equal(t, firstRun, h.LastSuccess, "last success survives a failed cycle")
		assert.Equal(t, storagedef.TransportError, storagedef.KindOf(h.LastError))

		h.ErrorCount = 99
		again, _ := m.GetCollectorHealth("fake")
		assert.Equal(t, 1, again.ErrorCount, "snapshot is a copy")
	})
}

func TestManager_Close(t *testing.T) {
	c := &fakeCollector{}
	m := NewManager(Config{}, []storagedef.Collector{c}, nil, nil)
	require.NoError(t, m.Close(context.Background()))
	assert.True(t, c.closed)
	assert.Equal(t, DefaultCollectInterval, m.config.CollectInterval)
}
