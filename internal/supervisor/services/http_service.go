// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/tunegraph/internal/logging"
)

const defaultDrainTimeout = 10 * time.Second

// HTTPServer is the part of *http.Server the API layer needs.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService serves the recommendation API until its context ends,
// then drains in-flight requests for at most the drain timeout.
type HTTPServerService struct {
	server HTTPServer
	drain  time.Duration
}

// NewHTTPServerService wraps server. drain <= 0 selects 10s.
func NewHTTPServerService(server HTTPServer, drain time.Duration) *HTTPServerService {
	if drain <= 0 {
		drain = defaultDrainTimeout
	}
	return &HTTPServerService{server: server, drain: drain}
}

// Serve implements suture.Service.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	log := logging.WithComponent("http-server")

	done := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()
	log.Info().Msg("api listening")

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("serve api: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), h.drain)
	defer cancel()

	start := time.Now()
	if err := h.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("drain api: %w", err)
	}
	<-done
	log.Info().Dur("drained_in", time.Since(start)).Msg("api stopped")
	return ctx.Err()
}

func (h *HTTPServerService) String() string { return "http-server" }
