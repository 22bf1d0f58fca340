// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToNum converts numeric-looking strings and native numbers to float64.
// Anything that cannot be converted yields NaN, and so do infinities.
// It never fails.
func ToNum(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		return parseNum(string(x))
	case string:
		return parseNum(x)
	case Number:
		return x.Value
	default:
		return math.NaN()
	}
	if math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

func parseNum(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// Number is a JSON field that accepts a number, a numeric string, a boolean
// or null, coercing with ToNum at decode time. Present reports whether the
// field appeared in the document at all.
type Number struct {
	Value   float64
	Present bool
}

// Num returns a present Number holding v.
func Num(v float64) Number { return Number{Value: v, Present: true} }

func (n *Number) UnmarshalJSON(b []byte) error {
	n.Present = true
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		n.Value = math.NaN()
		return nil
	}
	n.Value = ToNum(v)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if math.IsNaN(n.Value) {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// field is one named value of a typed stats record, in emission order.
type field struct {
	name  string
	value Number
}

// requireFields reports the first field absent from the decoded record.
func requireFields(entity string, fields []field) error {
	for _, f := range fields {
		if !f.value.Present {
			return &missingFieldError{entity: entity, field: f.name}
		}
	}
	return nil
}

type missingFieldError struct {
	entity string
	field  string
}

func (e *missingFieldError) Error() string {
	return "missing field " + strconv.Quote(e.field) + " in " + e.entity
}
