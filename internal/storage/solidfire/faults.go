// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"context"
	"time"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// FaultSamples counts faults per severity. critical, error and warning are
// always reported; other severities follow in the order first seen.
func FaultSamples(prefix string, faults []Fault, ts time.Time) []storagedef.Sample {
	order := append([]string(nil), seedSeverity...)
	counts := make(map[string]int, len(order))
	for _, s := range order {
		counts[s] = 0
	}
	for _, f := range faults {
		if _, ok := counts[f.Severity]; !ok {
			order = append(order, f.Severity)
		}
		counts[f.Severity]++
	}

	b := newBuilder(prefix, ts, len(order))
	for _, s := range order {
		b.add(float64(counts[s]), "fault", s)
	}
	return b.samples()
}

func (c *Collector) collectFaults(ctx context.Context, prefix string, ts time.Time) ([]storagedef.Sample, error) {
	faults, err := c.session.ListClusterFaults(ctx, false, "current")
	if err != nil {
		return nil, err
	}
	return FaultSamples(prefix, faults, ts), nil
}
