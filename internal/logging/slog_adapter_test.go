// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Attributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf)))

	logger.With("service", "gc").WithGroup("supervisor").Warn("restarting",
		"attempt", 2,
		"backoff", 3*time.Second,
		"err", errors.New("boom"),
	)

	entry := decodeLine(t, &buf)
	tests := []struct {
		key  string
		want any
	}{
		{"message", "restarting"},
		{"level", "warn"},
		{"service", "gc"},
		{"supervisor.attempt", float64(2)},
		{"supervisor.err", "boom"},
	}
	for _, tt := range tests {
		if got := entry[tt.key]; got != tt.want {
			t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
		}
	}
	if _, ok := entry["supervisor.backoff"]; !ok {
		t.Error("supervisor.backoff missing")
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	h := NewSlogHandler(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	ctx := context.Background()

	if h.Enabled(ctx, slog.LevelInfo) {
		t.Error("Enabled(info) = true at warn level, want false")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Error("Enabled(error) = false at warn level, want true")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelError + 4, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogLevel(tt.in); got != tt.want {
			t.Errorf("slogLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
