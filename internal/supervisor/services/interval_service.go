// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package services

import (
	"context"
	"time"

	"github.com/tomtom215/tunegraph/internal/logging"
)

// IntervalService runs a maintenance task every interval until canceled.
// A failing task is logged and retried on the next tick; it does not
// restart the service.
type IntervalService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
}

// NewIntervalService returns a service calling task every interval.
// A non-positive interval means one minute.
func NewIntervalService(name string, interval time.Duration, task func(ctx context.Context) error) *IntervalService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &IntervalService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (s *IntervalService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.task(ctx); err != nil && ctx.Err() == nil {
				logging.Warn().Err(err).Str("service", s.name).Msg("maintenance task failed")
			}
		}
	}
}

func (s *IntervalService) String() string {
	return s.name
}

// GarbageCollector is satisfied by *storage.Store.
type GarbageCollector interface {
	RunValueLogGC() (string, error)
}

// ValueLogGC adapts a store's value-log GC to an IntervalService task.
func ValueLogGC(gc GarbageCollector) func(ctx context.Context) error {
	return func(context.Context) error {
		result, err := gc.RunValueLogGC()
		if err != nil {
			return err
		}
		logging.Debug().Str("result", result).Msg("value log gc finished")
		return nil
	}
}

// Sweeper is satisfied by *cache.ClusterStore.
type Sweeper interface {
	Sweep() int
}

// CacheSweep adapts an in-memory cache sweep to an IntervalService task.
func CacheSweep(s Sweeper) func(ctx context.Context) error {
	return func(context.Context) error {
		if n := s.Sweep(); n > 0 {
			logging.Debug().Int("removed", n).Msg("cluster cache swept")
		}
		return nil
	}
}
