// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import "sort"

// Indexed is a record together with its position in the source list.
type Indexed[T any] struct {
	Record   T
	Position int
}

// IndexBy maps records by key. When keys repeat the later record wins but
// the key keeps the position where it first appeared.
func IndexBy[T any, K comparable](records []T, key func(T) K) map[K]Indexed[T] {
	out := make(map[K]Indexed[T], len(records))
	for i, r := range records {
		k, pos := key(r), i
		if prev, ok := out[k]; ok {
			pos = prev.Position
		}
		out[k] = Indexed[T]{Record: r, Position: pos}
	}
	return out
}

// Ordered returns the indexed records sorted by position, that is in the
// order their keys were first seen.
func Ordered[T any, K comparable](index map[K]Indexed[T]) []T {
	entries := make([]Indexed[T], 0, len(index))
	for _, e := range index {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.Record
	}
	return out
}

// CountIf counts records satisfying every predicate.
func CountIf[T any](records []T, preds ...func(T) bool) int {
	n := 0
next:
	for _, r := range records {
		for _, p := range preds {
			if !p(r) {
				continue next
			}
		}
		n++
	}
	return n
}

// Equals builds a predicate comparing an extracted attribute with want.
func Equals[T any, V comparable](attr func(T) V, want V) func(T) bool {
	return func(r T) bool { return attr(r) == want }
}
