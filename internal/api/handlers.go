// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tunegraph/internal/logging"
	"github.com/tomtom215/tunegraph/internal/recommend"
)

const (
	maxUserIDLength = 256
	maxBodyBytes    = 16 << 10
)

// Recommender is the engine surface the API serves. *recommend.Engine
// satisfies it.
type Recommender interface {
	GenerateRecommendations(ctx context.Context, user recommend.UserID, limit int) (*recommend.Response, error)
	RecordFeedback(ctx context.Context, user recommend.UserID, song recommend.SongID, liked bool, recommendationID string) error
	ClusterAnalytics(ctx context.Context, user recommend.UserID, force bool) (*recommend.ClusterAnalytics, error)
}

// FeedbackRequest is the body of POST .../feedback.
type FeedbackRequest struct {
	SongID           string `json:"song_id" validate:"required,max=256"`
	Liked            *bool  `json:"liked" validate:"required"`
	RecommendationID string `json:"recommendation_id,omitempty" validate:"omitempty,max=128"`
}

// FeedbackResponse acknowledges stored feedback.
type FeedbackResponse struct {
	UserID recommend.UserID `json:"user_id"`
	SongID recommend.SongID `json:"song_id"`
	Liked  bool             `json:"liked"`
}

// Handler serves the recommendation endpoints.
type Handler struct {
	engine   Recommender
	validate *validator.Validate
}

// NewHandler returns a Handler for engine.
func NewHandler(engine Recommender) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{engine: engine, validate: v}
}

// userID reads and checks the {userID} path parameter and returns the
// request with the user in its logging context. It writes the error response
// itself and returns false when the id is unusable.
func userID(w http.ResponseWriter, r *http.Request) (recommend.UserID, *http.Request, bool) {
	id := chi.URLParam(r, "userID")
	if id == "" || len(id) > maxUserIDLength {
		respondError(w, r, http.StatusBadRequest, CodeInvalidUser, "user id must be 1-256 characters", nil)
		return "", r, false
	}
	return recommend.UserID(id), r.WithContext(logging.ContextWithUserID(r.Context(), id)), true
}

// Recommendations handles GET /api/v1/users/{userID}/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	user, r, ok := userID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, CodeInvalidLimit, "limit must be an integer", nil)
			return
		}
		limit = n
	}

	resp, err := h.engine.GenerateRecommendations(r.Context(), user, limit)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondOK(w, r, resp)
}

// Feedback handles POST /api/v1/users/{userID}/feedback.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	user, r, ok := userID(w, r)
	if !ok {
		return
	}

	var req FeedbackRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, http.StatusRequestEntityTooLarge, CodeBadJSON, "request body too large", nil)
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadJSON, "request body is not valid JSON", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "invalid feedback request", validationDetails(err))
		return
	}

	song := recommend.SongID(req.SongID)
	if err := h.engine.RecordFeedback(r.Context(), user, song, *req.Liked, req.RecommendationID); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondOK(w, r, FeedbackResponse{UserID: user, SongID: song, Liked: *req.Liked})
}

// Clusters handles GET /api/v1/users/{userID}/clusters.
func (h *Handler) Clusters(w http.ResponseWriter, r *http.Request) {
	user, r, ok := userID(w, r)
	if !ok {
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, CodeInvalidParam, "force must be true or false", nil)
			return
		}
		force = b
	}

	analytics, err := h.engine.ClusterAnalytics(r.Context(), user, force)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondOK(w, r, analytics)
}

// validationDetails lists field/tag pairs of a validator error.
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
