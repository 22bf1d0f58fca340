// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// LogSink writes every sample to the logger as "<name> <value>".
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log.With("component", "log-sink")}
}

func (l *LogSink) Emit(ctx context.Context, s storagedef.Sample) error {
	l.log.InfoContext(ctx, s.Name+" "+formatValue(s.Value))
	return nil
}

func (l *LogSink) Flush(context.Context) error { return nil }
func (l *LogSink) Close(context.Context) error { return nil }

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
