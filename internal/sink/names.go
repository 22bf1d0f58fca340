// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"strings"

	"github.com/prometheus/common/model"
)

// promName turns a dotted sample name into a valid Prometheus metric name.
// The mapping is lossy: "vol-1" and "vol_1" both become "vol_1", see
// nameClaims.
func promName(name string) string {
	// shortcut only, the rewrite below leaves a valid name unchanged
	if model.IsValidMetricName(model.LabelValue(name)) && !strings.Contains(name, ".") {
		return name
	}
	var b strings.Builder
	b.Grow(len(name) + 1)
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// nameClaims tracks which sample name owns each Prometheus name within one
// cycle so that two different samples cannot end up on the same series.
type nameClaims map[string]string

// claim returns the Prometheus name for sample and whether sample may use
// it. A repeat of the same sample name is allowed; a different sample
// mapping onto a name already taken is not.
func (c nameClaims) claim(sample string) (name string, ok bool) {
	name = promName(sample)
	if owner, taken := c[name]; taken && owner != sample {
		return name, false
	}
	c[name] = sample
	return name, true
}

// otelName makes a dotted sample name acceptable as an OTel instrument name.
func otelName(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 1)
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9', r == '_', r == '.', r == '-', r == '/':
			if i == 0 {
				b.WriteByte('m')
			}
			b.WriteRune(r)
		default:
			if i == 0 {
				b.WriteByte('m')
			}
			b.WriteByte('_')
		}
	}
	s := b.String()
	if len(s) > 255 {
		s = s[:255]
	}
	if s == "" {
		return "m"
	}
	return s
}
