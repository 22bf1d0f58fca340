// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"context"
	"time"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

func driveStatus(d Drive) string { return d.Status }
func driveType(d Drive) string   { return d.Type }
func driveNode(d Drive) int64    { return d.NodeID }

// DriveSamples counts drives by status and type across the cluster and
// then for every known node, in node list order.
func DriveSamples(prefix string, drives []Drive, nodes []Node, ts time.Time) []storagedef.Sample {
	perNode := len(driveStatuses) + len(driveTypes)
	b := newBuilder(prefix, ts, perNode*(len(nodes)+1))

	for _, s := range driveStatuses {
		b.add(float64(CountIf(drives, Equals(driveStatus, s))), "drives", "status", s)
	}
	for _, t := range driveTypes {
		b.add(float64(CountIf(drives, Equals(driveType, t))), "drives", "type", t)
	}

	for _, node := range Ordered(IndexBy(nodes, nodeID)) {
		onNode := Equals(driveNode, node.NodeID)
		for _, s := range driveStatuses {
			b.add(float64(CountIf(drives, Equals(driveStatus, s), onNode)), "node", node.Name, "drives", "status", s)
		}
		for _, t := range driveTypes {
			b.add(float64(CountIf(drives, Equals(driveType, t), onNode)), "node", node.Name, "drives", "type", t)
		}
	}
	return b.samples()
}

func (c *Collector) collectDrives(ctx context.Context, prefix string, ts time.Time) ([]storagedef.Sample, error) {
	var (
		drives []Drive
		nodes  []Node
	)
	err := c.fetch(ctx,
		func(ctx context.Context) (err error) {
			drives, err = c.session.ListDrives(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			nodes, err = c.session.ListAllNodes(ctx)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return DriveSamples(prefix, drives, nodes, ts), nil
}
