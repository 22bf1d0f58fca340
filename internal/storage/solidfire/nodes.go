// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"context"
	"time"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

func nodeID(n Node) int64 { return n.NodeID }

// NodeSamples emits per-node counters named after the node. Every stats
// record must reference a listed node.
func NodeSamples(prefix string, nodes []Node, stats []NodeStats, ts time.Time) ([]storagedef.Sample, error) {
	byID := IndexBy(nodes, nodeID)
	b := newBuilder(prefix, ts, len(stats)*12)
	for i := range stats {
		node, ok := byID[stats[i].NodeID]
		if !ok {
			return nil, storagedef.Generalf("ListNodeStats", "node %d is not in the node list", stats[i].NodeID)
		}
		b.addFields(stats[i].fields(), "node", node.Record.Name)
	}
	return b.samples(), nil
}

func (c *Collector) collectNodes(ctx context.Context, prefix string, ts time.Time) ([]storagedef.Sample, error) {
	var (
		nodes []Node
		stats []NodeStats
	)
	err := c.fetch(ctx,
		func(ctx context.Context) (err error) {
			nodes, err = c.session.ListAllNodes(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			stats, err = c.session.ListNodeStats(ctx)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return NodeSamples(prefix, nodes, stats, ts)
}
