// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNum(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		nan  bool
	}{
		{name: "numeric string", in: "12.5", want: 12.5},
		{name: "padded string", in: " 42 ", want: 42},
		{name: "exponent", in: "1e3", want: 1000},
		{name: "float", in: 3.25, want: 3.25},
		{name: "int", in: 7, want: 7},
		{name: "int64", in: int64(-9), want: -9},
		{name: "uint32", in: uint32(4), want: 4},
		{name: "json number", in: json.Number("0.5"), want: 0.5},
		{name: "true", in: true, want: 1},
		{name: "false", in: false, want: 0},
		{name: "word", in: "abc", nan: true},
		{name: "empty", in: "", nan: true},
		{name: "date", in: "2016-10-04T19:50:00Z", nan: true},
		{name: "nil", in: nil, nan: true},
		{name: "inf string", in: "Inf", nan: true},
		{name: "inf float", in: math.Inf(1), nan: true},
		{name: "slice", in: []int{1}, nan: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNum(tt.in)
			if tt.nan {
				assert.True(t, math.IsNaN(got), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	var rec struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 10, "b": "2.5", "c": "n/a", "d": null}`), &rec))

	assert.Equal(t, Num(10), rec.A)
	assert.Equal(t, Num(2.5), rec.B)
	assert.True(t, rec.C.Present)
	assert.True(t, math.IsNaN(rec.C.Value))
	assert.True(t, rec.D.Present)
	assert.True(t, math.IsNaN(rec.D.Value))
	assert.False(t, rec.E.Present)
}

func TestNumber_ObjectValueIsNaN(t *testing.T) {
	var n Number
	require.NoError(t, json.Unmarshal([]byte(`{"nested": 1}`), &n))
	assert.True(t, n.Present)
	assert.True(t, math.IsNaN(n.Value))
}

func TestRequireFields(t *testing.T) {
	assert.NoError(t, requireFields("x", []field{{"a", Num(1)}, {"b", Num(math.NaN())}}))

	err := requireFields("clusterStats", []field{{"a", Num(1)}, {"latencyUSec", Number{}}})
	require.Error(t, err)
	assert.Equal(t, `missing field "latencyUSec" in clusterStats`, err.Error())
}

func TestNumber_MarshalJSON(t *testing.T) {
	b, err := json.Marshal([]Number{Num(1.5), Num(math.NaN())})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null]`, string(b))
}
