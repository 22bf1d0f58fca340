// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexBy_LastWriteWins(t *testing.T) {
	nodes := []Node{
		{NodeID: 1, Name: "a"},
		{NodeID: 2, Name: "b"},
		{NodeID: 1, Name: "c"},
	}
	idx := IndexBy(nodes, nodeID)

	require.Len(t, idx, 2)
	assert.Equal(t, "c", idx[1].Record.Name)
	assert.Equal(t, 0, idx[1].Position, "a repeated key keeps its first position")
	assert.Equal(t, "b", idx[2].Record.Name)
	assert.Equal(t, 1, idx[2].Position)
}

func TestOrdered_RepeatedKeyKeepsFirstPosition(t *testing.T) {
	nodes := []Node{
		{NodeID: 1, Name: "a"},
		{NodeID: 2, Name: "b"},
		{NodeID: 1, Name: "c"},
	}
	var names []string
	for _, n := range Ordered(IndexBy(nodes, nodeID)) {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"c", "b"}, names)
}

func TestIndexBy_Empty(t *testing.T) {
	assert.Empty(t, IndexBy([]Node(nil), nodeID))
	assert.Empty(t, Ordered(IndexBy([]Node(nil), nodeID)))
}

func TestOrdered_FollowsPosition(t *testing.T) {
	nodes := []Node{
		{NodeID: 3, Name: "n3"},
		{NodeID: 1, Name: "n1"},
		{NodeID: 2, Name: "n2"},
	}
	var names []string
	for _, n := range Ordered(IndexBy(nodes, nodeID)) {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"n3", "n1", "n2"}, names)
}

func TestCountIf(t *testing.T) {
	drives := []Drive{
		{Status: "active", NodeID: 1},
		{Status: "active", NodeID: 1},
		{Status: "failed", NodeID: 2},
	}

	assert.Equal(t, 2, CountIf(drives, Equals(driveStatus, "active")))
	assert.Equal(t, 1, CountIf(drives, Equals(driveStatus, "failed"), Equals(driveNode, int64(2))))
	assert.Equal(t, 0, CountIf(drives, Equals(driveStatus, "failed"), Equals(driveNode, int64(1))))
	assert.Equal(t, 0, CountIf(drives, Equals(driveStatus, "erasing")))
	assert.Equal(t, 3, CountIf(drives))
}
