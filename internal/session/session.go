package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/models"
	"github.com/kitmnp/whattowatch/internal/roulette"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Session ties one client's resolved result set to its roulette engine.
// The result set is replaced wholesale on each new query, never patched.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	movies      []models.Movie
	roulette    *roulette.Engine
	queryCancel context.CancelFunc
}

// Movies returns the current result set.
func (s *Session) Movies() []models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.movies
}

// Roulette returns the session's engine.
func (s *Session) Roulette() *roulette.Engine {
	return s.roulette
}

// BeginQuery cancels any in-flight query for this session and returns the
// context for the new one. Last-submitted-query wins: when the superseded
// pipeline finishes, its results are discarded because its context is dead.
func (s *Session) BeginQuery(ctx context.Context) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queryCancel != nil {
		s.queryCancel()
	}
	queryCtx, cancel := context.WithCancel(ctx)
	s.queryCancel = cancel
	return queryCtx
}

// CompleteQuery installs the resolved movies if queryCtx is still the live
// query; results arriving after supersession are dropped. A successful
// install hands the new set to the roulette engine, which clears the
// selection and aborts any spin.
func (s *Session) CompleteQuery(queryCtx context.Context, movies []models.Movie) bool {
	if queryCtx.Err() != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if queryCtx.Err() != nil {
		return false
	}
	s.movies = movies
	s.roulette.SetMovies(movies)
	return true
}

// EngineFactory builds a roulette engine for a new session.
type EngineFactory func() *roulette.Engine

// Registry is the mutex-guarded session store.
type Registry struct {
	newEngine EngineFactory
	logger    zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(newEngine EngineFactory, logger zerolog.Logger) *Registry {
	return &Registry{
		newEngine: newEngine,
		logger:    logger.With().Str("component", "session").Logger(),
		sessions:  make(map[string]*Session),
	}
}

// Create registers a fresh session.
func (r *Registry) Create() *Session {
	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		roulette:  r.newEngine(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug().Str("session_id", s.ID).Msg("session created")
	return s
}

// Get looks a session up by ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete drops a session and aborts anything it still has in flight.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.mu.Lock()
		if s.queryCancel != nil {
			s.queryCancel()
		}
		s.mu.Unlock()
		s.roulette.Reset()
	}
}
