// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tunegraph/internal/logging"
	"github.com/tomtom215/tunegraph/internal/recommend"
	"github.com/tomtom215/tunegraph/internal/recommend/storage"
)

// Error codes.
const (
	CodeInvalidUser    = "INVALID_USER"
	CodeInvalidLimit   = "INVALID_LIMIT"
	CodeInvalidParam   = "INVALID_PARAMETER"
	CodeValidation     = "VALIDATION_ERROR"
	CodeBadJSON        = "INVALID_JSON"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnavailable    = "SERVICE_UNAVAILABLE"
	CodeTimeout        = "TIMEOUT"
	CodeInternal       = "INTERNAL_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeMethodNotAllow = "METHOD_NOT_ALLOWED"
)

// Response is the envelope of every /api/v1 response.
type Response struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    Meta      `json:"meta"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Meta carries request correlation data.
type Meta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("encode response")
		http.Error(w, `{"success":false}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("write response")
	}
}

func meta(r *http.Request) Meta {
	return Meta{
		RequestID: logging.RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
	}
}

func respondOK(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, r, http.StatusOK, Response{Success: true, Data: data, Meta: meta(r)})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	writeJSON(w, r, status, Response{
		Error: &APIError{Code: code, Message: message, Details: details},
		Meta:  meta(r),
	})
}

// respondEngineError maps an engine or storage error to a response.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.Ctx(r.Context())

	switch {
	case errors.Is(err, recommend.ErrUnidentifiedUser):
		respondError(w, r, http.StatusBadRequest, CodeInvalidUser, "user id is required", nil)
	case errors.Is(err, recommend.ErrInvalidLimit):
		respondError(w, r, http.StatusBadRequest, CodeInvalidLimit, "limit must not be negative", nil)
	case errors.Is(err, recommend.ErrMissingSong):
		respondError(w, r, http.StatusBadRequest, CodeValidation, "song_id is required", nil)
	case storage.IsRejected(err):
		logger.Warn().Err(err).Msg("request rejected by open circuit breaker")
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "storage temporarily unavailable", nil)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn().Err(err).Msg("request deadline exceeded")
		respondError(w, r, http.StatusGatewayTimeout, CodeTimeout, "request timed out", nil)
	default:
		logger.Error().Err(err).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "internal error", nil)
	}
}
