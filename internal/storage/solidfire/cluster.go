// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"context"
	"time"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// ClusterStatsSamples emits clusterUtilizationScaled followed by the
// cluster performance counters.
func ClusterStatsSamples(prefix string, stats ClusterStats, ts time.Time) []storagedef.Sample {
	fields := stats.fields()
	b := newBuilder(prefix, ts, len(fields)+1)
	b.add(stats.ClusterUtilization.Value, "clusterUtilizationScaled")
	b.addFields(fields)
	return b.samples()
}

// CapacitySamples emits the capacity counters followed by the derived
// efficiency factors.
func CapacitySamples(prefix string, capacity ClusterCapacity, ts time.Time) []storagedef.Sample {
	fields := capacity.fields()
	b := newBuilder(prefix, ts, len(fields)+4)
	b.addFields(fields)

	eff := ComputeEfficiency(
		capacity.NonZeroBlocks.Value,
		capacity.ZeroBlocks.Value,
		capacity.UniqueBlocks.Value,
		capacity.UniqueBlocksUsedSpace.Value,
	)
	b.add(eff.Thin, "thin_factor")
	b.add(eff.Dedupe, "dedupe_factor")
	b.add(eff.Compression, "compression_factor")
	b.add(eff.Efficiency, "efficiency_factor")
	return b.samples()
}

func (c *Collector) collectClusterStats(ctx context.Context, prefix string, ts time.Time) ([]storagedef.Sample, error) {
	stats, err := c.session.GetClusterStats(ctx)
	if err != nil {
		return nil, err
	}
	return ClusterStatsSamples(prefix, stats, ts), nil
}

func (c *Collector) collectCapacity(ctx context.Context, prefix string, ts time.Time) ([]storagedef.Sample, error) {
	capacity, err := c.session.GetClusterCapacity(ctx)
	if err != nil {
		return nil, err
	}
	return CapacitySamples(prefix, capacity, ts), nil
}
