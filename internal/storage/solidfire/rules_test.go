// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

var testTS = time.Unix(1700000000, 0)

// filled returns a record with every Number field set to v.
func filled[T any](v float64) T {
	var out T
	rv := reflect.ValueOf(&out).Elem()
	numType := reflect.TypeOf(Number{})
	for i := 0; i < rv.NumField(); i++ {
		if rv.Field(i).Type() == numType {
			rv.Field(i).Set(reflect.ValueOf(Num(v)))
		}
	}
	return out
}

func names(samples []storagedef.Sample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.Name
	}
	return out
}

func valueOf(t *testing.T, samples []storagedef.Sample, name string) float64 {
	t.Helper()
	for _, s := range samples {
		if s.Name == name {
			return s.Value
		}
	}
	t.Fatalf("sample %q not found in %v", name, names(samples))
	return 0
}

func TestFaultSamples_Grouping(t *testing.T) {
	faults := []Fault{
		{Severity: "warning"},
		{Severity: "error"},
		{Severity: "error"},
	}
	got := FaultSamples("mycluster", faults, testTS)

	assert.Equal(t, []string{"mycluster.fault.critical", "mycluster.fault.error", "mycluster.fault.warning"}, names(got))
	assert.Equal(t, 0.0, valueOf(t, got, "mycluster.fault.critical"))
	assert.Equal(t, 2.0, valueOf(t, got, "mycluster.fault.error"))
	assert.Equal(t, 1.0, valueOf(t, got, "mycluster.fault.warning"))
	for _, s := range got {
		assert.Equal(t, testTS, s.Timestamp)
	}
}

func TestFaultSamples_NoFaultsAndExtraSeverities(t *testing.T) {
	got := FaultSamples("c", nil, testTS)
	require.Len(t, got, 3)
	for _, s := range got {
		assert.Zero(t, s.Value)
	}

	got = FaultSamples("c", []Fault{{Severity: "bestPractice"}, {Severity: "critical"}, {Severity: "info"}, {Severity: "bestPractice"}}, testTS)
	assert.Equal(t, []string{"c.fault.critical", "c.fault.error", "c.fault.warning", "c.fault.bestPractice", "c.fault.info"}, names(got))
	assert.Equal(t, 2.0, valueOf(t, got, "c.fault.bestPractice"))
	assert.Equal(t, 1.0, valueOf(t, got, "c.fault.critical"))
}

func TestClusterStatsSamples(t *testing.T) {
	stats := filled[ClusterStats](3)
	stats.ClusterUtilization = Num(0.42)

	got := ClusterStatsSamples("c", stats, testTS)
	require.Len(t, got, 18)
	assert.Equal(t, "c.clusterUtilizationScaled", got[0].Name)
	assert.Equal(t, 0.42, got[0].Value)
	assert.Equal(t, "c.clientQueueDepth", got[1].Name)
	assert.Equal(t, "c.writeBytes", got[17].Name)
	assert.Equal(t, 0.42, valueOf(t, got, "c.clusterUtilization"))
	assert.Equal(t, 3.0, valueOf(t, got, "c.normalizedIOPS"))
}

func TestCapacitySamples(t *testing.T) {
	capacity := filled[ClusterCapacity](1)
	capacity.NonZeroBlocks = Num(100)
	capacity.ZeroBlocks = Num(50)
	capacity.UniqueBlocks = Num(40)
	capacity.UniqueBlocksUsedSpace = Num(2000)
	capacity.Timestamp = Num(math.NaN())

	got := CapacitySamples("c", capacity, testTS)
	require.Len(t, got, 27)
	assert.Equal(t, "c.activeBlockSpace", got[0].Name)
	assert.Equal(t, []string{"c.thin_factor", "c.dedupe_factor", "c.compression_factor", "c.efficiency_factor"}, names(got[23:]))
	assert.True(t, math.IsNaN(valueOf(t, got, "c.timestamp")))
	assert.Equal(t, 1.5, valueOf(t, got, "c.thin_factor"))
	assert.Equal(t, 2.5, valueOf(t, got, "c.dedupe_factor"))
	assert.InDelta(t, 88.086, valueOf(t, got, "c.compression_factor"), 0.001)
	assert.InDelta(t, 330.32, valueOf(t, got, "c.efficiency_factor"), 0.01)
}

func TestCapacitySamples_ZeroBlocksFallBack(t *testing.T) {
	got := CapacitySamples("c", filled[ClusterCapacity](0), testTS)
	for _, n := range []string{"c.thin_factor", "c.dedupe_factor", "c.compression_factor", "c.efficiency_factor"} {
		assert.Equal(t, 1.0, valueOf(t, got, n), n)
	}
}

func TestNodeSamples(t *testing.T) {
	nodes := []Node{{NodeID: 1, Name: "sf-n1"}, {NodeID: 2, Name: "sf-n2"}}
	s1 := filled[NodeStats](1)
	s1.NodeID = 1
	s1.CPU = Num(37)
	s2 := filled[NodeStats](2)
	s2.NodeID = 2

	got, err := NodeSamples("c", nodes, []NodeStats{s1, s2}, testTS)
	require.NoError(t, err)
	require.Len(t, got, 24)
	assert.Equal(t, "c.node.sf-n1.cpu", got[0].Name)
	assert.Equal(t, 37.0, got[0].Value)
	assert.Equal(t, "c.node.sf-n1.writeOps", got[11].Name)
	assert.Equal(t, "c.node.sf-n2.cpu", got[12].Name)
}

func TestNodeSamples_UnknownNode(t *testing.T) {
	s := filled[NodeStats](1)
	s.NodeID = 9

	got, err := NodeSamples("c", []Node{{NodeID: 1, Name: "a"}}, []NodeStats{s}, testTS)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, storagedef.GeneralError, storagedef.KindOf(err))
}

func TestVolumeSamples_Naming(t *testing.T) {
	volumes := []Volume{{VolumeID: 10, Name: "vol1", AccountID: 5}}
	vs := filled[VolumeStats](4)
	vs.VolumeID = 10

	resolve := func(_ context.Context, id int64) (string, error) {
		assert.Equal(t, int64(5), id)
		return "alice", nil
	}

	got, err := VolumeSamples(context.Background(), "mycluster", volumes, []VolumeStats{vs}, resolve, testTS)
	require.NoError(t, err)
	require.Len(t, got, 22)
	assert.Equal(t, "mycluster.accountID.alice.volume.vol1.volumeSize", got[0].Name)
	assert.Equal(t, "mycluster.accountID.alice.volume.vol1.writeOpsLastSample", got[21].Name)
	for _, s := range got {
		assert.Equal(t, 4.0, s.Value)
	}
}

func TestVolumeSamples_Failures(t *testing.T) {
	vs := filled[VolumeStats](1)
	vs.VolumeID = 10
	ok := func(context.Context, int64) (string, error) { return "alice", nil }

	_, err := VolumeSamples(context.Background(), "c", nil, []VolumeStats{vs}, ok, testTS)
	require.Error(t, err)
	assert.Equal(t, storagedef.GeneralError, storagedef.KindOf(err))

	boom := storagedef.Transport("GetAccountByID", errors.New("xUnknownAccount"))
	failing := func(context.Context, int64) (string, error) { return "", boom }
	got, err := VolumeSamples(context.Background(), "c", []Volume{{VolumeID: 10, Name: "v", AccountID: 1}}, []VolumeStats{vs}, failing, testTS)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}

func TestDriveSamples(t *testing.T) {
	drives := []Drive{
		{NodeID: 1, Status: "active", Type: "volume"},
		{NodeID: 1, Status: "active", Type: "block"},
		{NodeID: 2, Status: "failed", Type: "block"},
		{NodeID: 2, Status: "available", Type: "unknown"},
	}
	nodes := []Node{{NodeID: 2, Name: "n2"}, {NodeID: 1, Name: "n1"}}

	got := DriveSamples("c", drives, nodes, testTS)
	require.Len(t, got, 8*3)

	assert.Equal(t, []string{
		"c.drives.status.active", "c.drives.status.available", "c.drives.status.erasing",
		"c.drives.status.failed", "c.drives.status.removing",
		"c.drives.type.volume", "c.drives.type.block", "c.drives.type.unknown",
	}, names(got[:8]))
	assert.Equal(t, "c.node.n2.drives.status.active", got[8].Name)
	assert.Equal(t, "c.node.n1.drives.status.active", got[16].Name)

	assert.Equal(t, 2.0, valueOf(t, got, "c.drives.status.active"))
	assert.Equal(t, 2.0, valueOf(t, got, "c.drives.type.block"))
	assert.Equal(t, 1.0, valueOf(t, got, "c.node.n2.drives.status.failed"))
	assert.Equal(t, 0.0, valueOf(t, got, "c.node.n1.drives.status.failed"))
	assert.Equal(t, 1.0, valueOf(t, got, "c.node.n1.drives.type.volume"))
	assert.Equal(t, 1.0, valueOf(t, got, "c.node.n2.drives.type.unknown"))
}

func TestDriveSamples_NoNodes(t *testing.T) {
	got := DriveSamples("c", nil, nil, testTS)
	require.Len(t, got, 8)
	for _, s := range got {
		assert.Zero(t, s.Value)
	}
}
