// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package otlp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	otellog "go.opentelemetry.io/otel/log"
)

// ScopeName is the instrumentation scope of forwarded log records.
const ScopeName = "github.com/platformbuilds/sfcollector"

// FanoutHandler writes every record to a primary slog handler and also
// emits it through an OpenTelemetry logger.
type FanoutHandler struct {
	primary slog.Handler
	logger  otellog.Logger
	attrs   []otellog.KeyValue
	prefix  string
}

// NewFanoutHandler wraps primary. Records below primary's level are dropped
// for both destinations.
func NewFanoutHandler(primary slog.Handler, provider otellog.LoggerProvider) *FanoutHandler {
	return &FanoutHandler{
		primary: primary,
		logger:  provider.Logger(ScopeName),
	}
}

func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level)
}

func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var rec otellog.Record
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	rec.SetTimestamp(ts)
	rec.SetObservedTimestamp(time.Now())
	rec.SetBody(otellog.StringValue(r.Message))
	rec.SetSeverity(severity(r.Level))
	rec.SetSeverityText(r.Level.String())
	rec.AddAttributes(h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		rec.AddAttributes(convertAttr(h.prefix, a)...)
		return true
	})
	h.logger.Emit(ctx, rec)

	return h.primary.Handle(ctx, r)
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.primary = h.primary.WithAttrs(attrs)
	next.attrs = append([]otellog.KeyValue(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, convertAttr(h.prefix, a)...)
	}
	return &next
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.primary = h.primary.WithGroup(name)
	next.prefix = h.prefix + name + "."
	return &next
}

func severity(l slog.Level) otellog.Severity {
	switch {
	case l >= slog.LevelError:
		return otellog.SeverityError
	case l >= slog.LevelWarn:
		return otellog.SeverityWarn
	case l >= slog.LevelInfo:
		return otellog.SeverityInfo
	default:
		return otellog.SeverityDebug
	}
}

// convertAttr flattens groups into dotted keys.
func convertAttr(prefix string, a slog.Attr) []otellog.KeyValue {
	v := a.Value.Resolve()
	if a.Key == "" && v.Kind() != slog.KindGroup {
		return nil
	}
	key := prefix + a.Key
	switch v.Kind() {
	case slog.KindGroup:
		var out []otellog.KeyValue
		p := prefix
		if a.Key != "" {
			p = key + "."
		}
		for _, ga := range v.Group() {
			out = append(out, convertAttr(p, ga)...)
		}
		return out
	case slog.KindString:
		return []otellog.KeyValue{otellog.String(key, v.String())}
	case slog.KindInt64:
		return []otellog.KeyValue{otellog.Int64(key, v.Int64())}
	case slog.KindUint64:
		return []otellog.KeyValue{otellog.Int64(key, int64(v.Uint64()))}
	case slog.KindFloat64:
		return []otellog.KeyValue{otellog.Float64(key, v.Float64())}
	case slog.KindBool:
		return []otellog.KeyValue{otellog.Bool(key, v.Bool())}
	case slog.KindDuration:
		return []otellog.KeyValue{otellog.String(key, v.Duration().String())}
	case slog.KindTime:
		return []otellog.KeyValue{otellog.String(key, v.Time().Format(time.RFC3339Nano))}
	}
	if err, ok := v.Any().(error); ok {
		return []otellog.KeyValue{otellog.String(key, err.Error())}
	}
	return []otellog.KeyValue{otellog.String(key, strings.TrimSpace(fmt.Sprint(v.Any())))}
}
