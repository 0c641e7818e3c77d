// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tunegraph/internal/metrics"
)

// SignalStatus distinguishes "no data" from "call failed" for one
// collaborator call.
type SignalStatus string

const (
	// SignalOK means the call succeeded and returned data.
	SignalOK SignalStatus = "ok"
	// SignalEmpty means the call succeeded with no data.
	SignalEmpty SignalStatus = "empty"
	// SignalFailed means the call failed; the value is the zero value.
	SignalFailed SignalStatus = "failed"
	// SignalSkipped means the call was not made because an earlier
	// stage produced nothing to ask about.
	SignalSkipped SignalStatus = "skipped"
)

// Signal is the typed outcome of one collaborator call. A failed signal
// carries the zero value so downstream stages treat it as neutral.
type Signal[T any] struct {
	Name   string
	Value  T
	Status SignalStatus
	Err    error
}

// Usable reports whether the signal carries data.
func (s Signal[T]) Usable() bool {
	return s.Status == SignalOK
}

// fetch runs one collaborator call and classifies the outcome. Failures
// are logged and counted; they never propagate.
func fetch[T any](ctx context.Context, logger zerolog.Logger, name string, call func(context.Context) (T, error), size func(T) int) Signal[T] {
	sig := Signal[T]{Name: name}

	value, err := call(ctx)
	switch {
	case err != nil:
		sig.Status = SignalFailed
		sig.Err = err
		logger.Warn().Err(err).Str("signal", name).Msg("collaborator call failed, degrading to empty")
	case size(value) == 0:
		sig.Status = SignalEmpty
		sig.Value = value
	default:
		sig.Status = SignalOK
		sig.Value = value
	}

	metrics.RecordSignal(name, string(sig.Status))
	return sig
}

func skipped[T any](name string) Signal[T] {
	metrics.RecordSignal(name, string(SignalSkipped))
	return Signal[T]{Name: name, Status: SignalSkipped}
}

// signalSet collects signal statuses for response metadata.
type signalSet map[string]SignalStatus

func record[T any](set signalSet, s Signal[T]) Signal[T] {
	set[s.Name] = s.Status
	return s
}
