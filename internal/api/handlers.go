package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/models"
	"github.com/kitmnp/whattowatch/internal/provider"
	"github.com/kitmnp/whattowatch/internal/session"
)

// Recommender is the cascade surface the handlers need.
type Recommender interface {
	Recommend(ctx context.Context, mood string) ([]models.Candidate, error)
}

// MovieResolver matches candidates against the catalog.
type MovieResolver interface {
	Resolve(ctx context.Context, candidates []models.Candidate) []models.Movie
}

// App carries the handler dependencies.
type App struct {
	Cascade  Recommender
	Resolver MovieResolver
	Sessions *session.Registry
	Logger   zerolog.Logger
}

type moodRequest struct {
	Mood string `json:"mood"`
}

// RecommendHandler is the bare recommendation endpoint: mood in, provider
// candidates out, no catalog resolution.
func (app *App) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Mood = ""
	}

	if strings.TrimSpace(req.Mood) == "" {
		respondError(w, http.StatusBadRequest, "Mood is required")
		return
	}

	movies, err := app.Cascade.Recommend(r.Context(), req.Mood)
	if err != nil {
		if errors.Is(err, provider.ErrEmptyMood) {
			respondError(w, http.StatusBadRequest, "Mood is required")
			return
		}
		app.Logger.Error().Err(err).Msg("recommendation failed")
		respondError(w, http.StatusInternalServerError, "Failed to fetch recommendations")
		return
	}

	respondJSON(w, http.StatusOK, map[string][]models.Candidate{"movies": movies})
}

type sessionResponse struct {
	SessionID string         `json:"sessionId"`
	Movies    []models.Movie `json:"movies"`
}

// CreateSessionHandler runs the full pipeline (cascade then resolver) and
// opens a roulette session over the resolved set.
func (app *App) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Mood = ""
	}
	if strings.TrimSpace(req.Mood) == "" {
		respondError(w, http.StatusBadRequest, "Mood is required")
		return
	}

	sess := app.Sessions.Create()
	movies, err := app.runPipeline(r.Context(), sess, req.Mood)
	if err != nil {
		app.Sessions.Delete(sess.ID)
		app.Logger.Error().Err(err).Msg("recommendation failed")
		respondError(w, http.StatusInternalServerError, "Failed to fetch recommendations")
		return
	}

	respondJSON(w, http.StatusCreated, sessionResponse{SessionID: sess.ID, Movies: movies})
}

// QueryHandler re-runs the pipeline on an existing session. The previous
// result set and roulette state are discarded wholesale; an in-flight query
// for the same session is superseded.
func (app *App) QueryHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.session(w, r)
	if !ok {
		return
	}

	var req moodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Mood = ""
	}
	if strings.TrimSpace(req.Mood) == "" {
		respondError(w, http.StatusBadRequest, "Mood is required")
		return
	}

	movies, err := app.runPipeline(r.Context(), sess, req.Mood)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Superseded by a newer query for this session.
			respondError(w, http.StatusConflict, "Superseded by a newer query")
			return
		}
		app.Logger.Error().Err(err).Msg("recommendation failed")
		respondError(w, http.StatusInternalServerError, "Failed to fetch recommendations")
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{SessionID: sess.ID, Movies: movies})
}

func (app *App) runPipeline(ctx context.Context, sess *session.Session, mood string) ([]models.Movie, error) {
	queryCtx := sess.BeginQuery(ctx)

	candidates, err := app.Cascade.Recommend(queryCtx, mood)
	if err != nil {
		return nil, err
	}

	movies := app.Resolver.Resolve(queryCtx, candidates)
	if !sess.CompleteQuery(queryCtx, movies) {
		return nil, context.Canceled
	}
	return movies, nil
}
