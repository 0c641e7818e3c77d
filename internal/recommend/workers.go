// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/tunegraph/internal/metrics"
)

// ErrTaskPanicked is returned when a pooled task panics.
var ErrTaskPanicked = errors.New("worker task panicked")

// WorkerPool bounds the number of CPU-bound tasks (clustering, index
// construction, projection) running at once so they cannot starve
// request handling.
type WorkerPool struct {
	sem  *semaphore.Weighted
	size int
}

// NewWorkerPool creates a pool with size slots.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots.
func (p *WorkerPool) Size() int {
	return p.size
}

type taskResult[T any] struct {
	value T
	err   error
}

// RunTask runs fn on the pool and waits at most timeout for it, including
// time spent queueing for a slot. A task that outlives its deadline keeps
// its slot until fn observes the cancelled context; its result is dropped.
func RunTask[T any](ctx context.Context, p *WorkerPool, task string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	runCtx, cancel := context.WithTimeout(ctx, timeout)

	if err := p.sem.Acquire(runCtx, 1); err != nil {
		cancel()
		metrics.RecordWorkerTimeout(task)
		return zero, fmt.Errorf("%s: waiting for worker: %w", task, err)
	}

	done := make(chan taskResult[T], 1)
	go func() {
		defer p.sem.Release(1)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				done <- taskResult[T]{err: fmt.Errorf("%s: %w: %v", task, ErrTaskPanicked, r)}
			}
		}()
		v, err := fn(runCtx)
		done <- taskResult[T]{value: v, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-runCtx.Done():
		// The task cancels runCtx itself once it has delivered a result.
		select {
		case res := <-done:
			return res.value, res.err
		default:
		}
		metrics.RecordWorkerTimeout(task)
		return zero, fmt.Errorf("%s: %w", task, runCtx.Err())
	}
}
