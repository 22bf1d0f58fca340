// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"math"
	"strings"
	"time"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// sampleBuilder accumulates samples under a cluster prefix.
type sampleBuilder struct {
	prefix string
	ts     time.Time
	out    []storagedef.Sample
}

func newBuilder(prefix string, ts time.Time, capacity int) *sampleBuilder {
	return &sampleBuilder{prefix: prefix, ts: ts, out: make([]storagedef.Sample, 0, capacity)}
}

func (b *sampleBuilder) add(value float64, path ...string) {
	if math.IsInf(value, 0) {
		value = math.NaN()
	}
	b.out = append(b.out, storagedef.Sample{
		Name:      metricName(b.prefix, path...),
		Value:     value,
		Timestamp: b.ts,
	})
}

func (b *sampleBuilder) addFields(fields []field, path ...string) {
	for _, f := range fields {
		b.add(f.value.Value, append(path, f.name)...)
	}
}

func (b *sampleBuilder) samples() []storagedef.Sample { return b.out }

func metricName(prefix string, path ...string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, p := range path {
		sb.WriteByte('.')
		sb.WriteString(p)
	}
	return sb.String()
}
