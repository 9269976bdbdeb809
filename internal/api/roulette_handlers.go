package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kitmnp/whattowatch/internal/roulette"
	"github.com/kitmnp/whattowatch/internal/session"
)

func (app *App) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := app.Sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return sess, true
}

// SessionSnapshotHandler returns the result set and roulette state.
func (app *App) SessionSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.session(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sess.ID,
		"movies":    sess.Movies(),
		"roulette":  sess.Roulette().Snapshot(),
	})
}

// ToggleHandler flips one movie's roulette membership.
func (app *App) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.session(w, r)
	if !ok {
		return
	}

	catalogID, err := strconv.Atoi(chi.URLParam(r, "catalogID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid catalog ID")
		return
	}

	selected, err := sess.Roulette().Toggle(catalogID)
	if err != nil {
		if errors.Is(err, roulette.ErrUnknownMovie) {
			respondError(w, http.StatusNotFound, "Movie is not part of the current results")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to toggle movie")
		return
	}

	snap := sess.Roulette().Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"catalogId": catalogID,
		"selected":  selected,
		"selection": snap.Selection,
	})
}

// SpinHandler starts a spin. The draw is fixed here; the reveal progresses
// asynchronously and is observable via the events stream and snapshots.
func (app *App) SpinHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.session(w, r)
	if !ok {
		return
	}

	_, err := sess.Roulette().Spin(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, roulette.ErrEmptySelection):
			respondError(w, http.StatusConflict, "No movies selected")
		case errors.Is(err, roulette.ErrSpinActive):
			respondError(w, http.StatusConflict, "A spin is already in progress")
		default:
			respondError(w, http.StatusInternalServerError, "Failed to spin")
		}
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"phase": roulette.PhaseSelecting.String()})
}

// ResetHandler clears the roulette state.
func (app *App) ResetHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.session(w, r)
	if !ok {
		return
	}

	sess.Roulette().Reset()
	w.WriteHeader(http.StatusNoContent)
}

// RouletteEventsHandler streams engine events over SSE: phase transitions,
// cosmetic preview picks, and the winner payloads.
func (app *App) RouletteEventsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.session(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	clientGone := r.Context().Done()
	events := sess.Roulette().Events()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				app.Logger.Error().Err(err).Msg("error marshaling event")
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()

		case <-clientGone:
			return
		}
	}
}
