// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package solidfire extracts cluster, node, volume and drive metrics from
// the SolidFire Element API and turns them into flat dotted samples.
package solidfire

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/platformbuilds/sfcollector/internal/helpers/cache"
	"github.com/platformbuilds/sfcollector/internal/sink"
	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// CollectorConfig tunes a Collector.
type CollectorConfig struct {
	// Name identifies the collector in logs and health reports.
	Name string
	// AccountCacheTTL keeps account usernames across cycles. Zero caches
	// them for a single cycle only.
	AccountCacheTTL time.Duration
	// ParallelFetch runs the independent list calls of a rule concurrently.
	ParallelFetch bool
}

type ruleFunc func(ctx context.Context, prefix string, ts time.Time) ([]storagedef.Sample, error)

type rule struct {
	name string
	run  ruleFunc
}

// Collector runs the extraction rules against a Session and emits the
// resulting samples to a Sink.
type Collector struct {
	cfg      CollectorConfig
	session  Session
	sink     sink.Sink
	accounts *cache.ExpirableLRU[int64, string]
	rules    []rule
	tracer   trace.Tracer
	log      *slog.Logger

	mu          sync.RWMutex
	clusterName string
}

var _ storagedef.Collector = (*Collector)(nil)

// NewCollector creates a Collector. The session is not contacted until Connect.
func NewCollector(cfg CollectorConfig, session Session, s sink.Sink, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "solidfire"
	}
	c := &Collector{
		cfg:     cfg,
		session: session,
		sink:    s,
		tracer:  otel.Tracer("github.com/platformbuilds/sfcollector/internal/storage/solidfire"),
		log:     log.With("component", "solidfire-collector", "name", cfg.Name),
	}
	c.accounts = cache.NewExpirableLRU[int64, string](cfg.AccountCacheTTL,
		cache.WithEvictCallBack(func(id int64, name string) {
			c.log.Debug("account cache entry expired", "account_id", id, "username", name)
		}))
	c.rules = []rule{
		{name: "cluster_stats", run: c.collectClusterStats},
		{name: "faults", run: c.collectFaults},
		{name: "capacity", run: c.collectCapacity},
		{name: "volume_stats", run: c.collectVolumes},
		{name: "drive_stats", run: c.collectDrives},
		{name: "node_stats", run: c.collectNodes},
	}
	return c
}

// Name returns the configured collector name.
func (c *Collector) Name() string { return c.cfg.Name }

// ClusterName returns the cluster name seen by the latest successful
// GetClusterInfo call.
func (c *Collector) ClusterName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clusterName
}

func (c *Collector) setClusterName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clusterName = name
}

// Connect verifies the session by reading the cluster info.
func (c *Collector) Connect(ctx context.Context) error {
	info, err := c.session.GetClusterInfo(ctx)
	if err != nil {
		return err
	}
	c.setClusterName(info.Name)
	c.log.Info("connected to cluster", "cluster", info.Name, "mvip", info.MVIP)
	return nil
}

// CollectCycle runs every rule in order. The first failing rule abandons
// the rest of the cycle; samples of earlier rules are still flushed.
func (c *Collector) CollectCycle(ctx context.Context) (int, error) {
	ctx, span := c.tracer.Start(ctx, "solidfire.cycle", trace.WithAttributes(attribute.String("collector", c.cfg.Name)))
	defer span.End()

	c.expireAccounts()
	ts := time.Now()

	info, err := c.session.GetClusterInfo(ctx)
	if err != nil {
		recordSpanError(span, err)
		return 0, err
	}
	c.setClusterName(info.Name)
	span.SetAttributes(attribute.String("cluster", info.Name))

	emitted, cycleErr := c.runRules(ctx, info.Name, ts)
	if err := c.sink.Flush(ctx); err != nil && cycleErr == nil {
		cycleErr = storagedef.General("flush", err)
	}

	span.SetAttributes(attribute.Int("samples", emitted))
	if cycleErr != nil {
		recordSpanError(span, cycleErr)
	}
	return emitted, cycleErr
}

func (c *Collector) runRules(ctx context.Context, prefix string, ts time.Time) (int, error) {
	emitted := 0
	for _, r := range c.rules {
		samples, err := c.runRule(ctx, r, prefix, ts)
		if err != nil {
			return emitted, err
		}
		for _, s := range samples {
			if err := c.sink.Emit(ctx, s); err != nil {
				return emitted, storagedef.General("emit", err)
			}
			emitted++
		}
	}
	return emitted, nil
}

func (c *Collector) runRule(ctx context.Context, r rule, prefix string, ts time.Time) ([]storagedef.Sample, error) {
	ctx, span := c.tracer.Start(ctx, "solidfire.rule."+r.name)
	defer span.End()

	start := time.Now()
	samples, err := r.run(ctx, prefix, ts)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("samples", len(samples)))
	c.log.Debug("rule completed", "rule", r.name, "samples", len(samples), "duration", time.Since(start))
	return samples, nil
}

// expireAccounts drops account usernames that are too old to trust.
func (c *Collector) expireAccounts() {
	if c.cfg.AccountCacheTTL <= 0 {
		c.accounts.Purge()
		return
	}
	if n := c.accounts.ExpireAll(); n > 0 {
		c.log.Debug("expired cached accounts", "count", n)
	}
}

// fetch runs independent API calls, concurrently when enabled.
func (c *Collector) fetch(ctx context.Context, calls ...func(context.Context) error) error {
	if !c.cfg.ParallelFetch {
		for _, call := range calls {
			if err := call(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, call := range calls {
		g.Go(func() error { return call(gctx) })
	}
	return g.Wait()
}

// Close closes the sink and releases the session.
func (c *Collector) Close(ctx context.Context) error {
	if closer, ok := c.session.(interface{ Close() }); ok {
		closer.Close()
	}
	return c.sink.Close(ctx)
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.kind", string(storagedef.KindOf(err))))
}
