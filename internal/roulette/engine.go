package roulette

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/models"
)

// DetailFetcher loads a winner's extended detail. Implementations degrade
// internally: the returned detail always carries at least the base movie.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, movie models.Movie) *models.WinnerDetail
}

// Config controls spin pacing. Both values are consumer-facing timing, not
// selection logic: the winner is fixed before either applies.
type Config struct {
	// PreviewInterval is the cadence of cosmetic preview picks during
	// Selecting. Zero disables the preview stream.
	PreviewInterval time.Duration
	// RevealGrace is how long the engine holds Revealing before settling,
	// giving callers the poster-first disclosure window.
	RevealGrace time.Duration
}

// Engine owns the roulette state for one result set: the curated selection,
// the reveal phase, and the winner of the current spin. All mutation goes
// through the engine's own operations.
type Engine struct {
	fetcher DetailFetcher
	cfg     Config
	logger  zerolog.Logger

	mu         sync.Mutex
	rng        *rand.Rand
	movies     map[int]models.Movie
	selection  map[int]models.Movie
	phase      Phase
	winner     *models.WinnerDetail
	spinCancel context.CancelFunc
	generation int

	events chan Event
}

// NewEngine builds an idle engine. rng may be nil; tests pass a seeded
// source for deterministic draws.
func NewEngine(fetcher DetailFetcher, cfg Config, rng *rand.Rand, logger zerolog.Logger) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		fetcher:   fetcher,
		cfg:       cfg,
		logger:    logger.With().Str("component", "roulette").Logger(),
		rng:       rng,
		movies:    make(map[int]models.Movie),
		selection: make(map[int]models.Movie),
		phase:     PhaseIdle,
		events:    make(chan Event, 128),
	}
}

// Events exposes the engine's event stream. Events are best-effort: a slow
// or absent consumer drops events rather than blocking the spin.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// SetMovies replaces the result set wholesale, discards the selection and
// any winner, and aborts an in-flight spin. Called when a new mood query
// resolves.
func (e *Engine) SetMovies(movies []models.Movie) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.abortSpinLocked()
	e.movies = make(map[int]models.Movie, len(movies))
	for _, m := range movies {
		e.movies[m.CatalogID] = m
	}
	e.selection = make(map[int]models.Movie)
	e.winner = nil
	e.setPhaseLocked(PhaseIdle)
}

// Toggle adds the movie to the selection if absent, removes it if present.
// Two identical toggles cancel out. Returns whether the movie is selected
// after the call.
func (e *Engine) Toggle(catalogID int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	movie, ok := e.movies[catalogID]
	if !ok {
		return false, ErrUnknownMovie
	}

	if _, selected := e.selection[catalogID]; selected {
		delete(e.selection, catalogID)
		return false, nil
	}
	e.selection[catalogID] = movie
	return true, nil
}

// Spin draws one member uniformly at random from the selection, fixes it as
// the winner, and starts the reveal sequence. The returned ticket carries
// the drawn movie and a channel closed when the spin settles or is aborted.
func (e *Engine) Spin(ctx context.Context) (*SpinTicket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseIdle {
		return nil, ErrSpinActive
	}
	if len(e.selection) == 0 {
		return nil, ErrEmptySelection
	}

	ids := make([]int, 0, len(e.selection))
	for id := range e.selection {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	winner := e.selection[ids[e.rng.Intn(len(ids))]]

	e.setPhaseLocked(PhaseSelecting)

	spinCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.spinCancel = cancel
	gen := e.generation

	done := make(chan struct{})
	go e.runSpin(spinCtx, gen, winner, done)

	e.logger.Info().Int("catalog_id", winner.CatalogID).Str("title", winner.Title).
		Int("selection_size", len(ids)).Msg("winner drawn")

	return &SpinTicket{Winner: winner, Done: done}, nil
}

// SpinTicket reports the outcome of a started spin. Winner is fixed at draw
// time; Done closes once the engine reaches Settled or the spin is aborted
// by Reset or a new result set.
type SpinTicket struct {
	Winner models.Movie
	Done   <-chan struct{}
}

// Reset clears the selection, discards the winner, aborts any in-flight
// spin, and returns the phase to Idle. Legal from any phase.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.abortSpinLocked()
	e.selection = make(map[int]models.Movie)
	e.winner = nil
	e.setPhaseLocked(PhaseIdle)
}

// Snapshot returns the current state. Winner detail is gated by phase:
// during Revealing only the base fields are exposed, the extended fields
// appear once Settled.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Phase:     e.phase,
		Selection: make([]int, 0, len(e.selection)),
	}
	for id := range e.selection {
		snap.Selection = append(snap.Selection, id)
	}
	sort.Ints(snap.Selection)

	switch e.phase {
	case PhaseSettled:
		snap.Winner = e.winner
	case PhaseRevealing:
		if e.winner != nil {
			snap.Winner = &models.WinnerDetail{Movie: e.winner.Movie}
		}
	}

	return snap
}

func (e *Engine) runSpin(ctx context.Context, gen int, winner models.Movie, done chan struct{}) {
	defer close(done)

	stopPreview := make(chan struct{})
	var previewWG sync.WaitGroup
	if e.cfg.PreviewInterval > 0 {
		previewWG.Add(1)
		go func() {
			defer previewWG.Done()
			e.runPreview(ctx, stopPreview)
		}()
	}

	detail := e.fetcher.FetchDetail(ctx, winner)

	close(stopPreview)
	previewWG.Wait()

	if ctx.Err() != nil {
		return
	}

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return
	}
	e.winner = detail
	e.setPhaseLocked(PhaseRevealing)
	e.mu.Unlock()

	e.emit(Event{Type: EventReveal, Phase: PhaseRevealing, Winner: &models.WinnerDetail{Movie: detail.Movie}})

	select {
	case <-ctx.Done():
		return
	case <-time.After(e.cfg.RevealGrace):
	}

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return
	}
	e.setPhaseLocked(PhaseSettled)
	e.mu.Unlock()

	e.emit(Event{Type: EventWinner, Phase: PhaseSettled, Winner: detail})
}

// runPreview emits transient random picks at a fixed cadence. Pure
// cosmetics: it reads the selection but never writes engine state and
// cannot change the drawn winner.
func (e *Engine) runPreview(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(e.cfg.PreviewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if pick, ok := e.randomSelected(); ok {
				e.emit(Event{Type: EventPreview, Phase: PhaseSelecting, Preview: &pick})
			}
		}
	}
}

func (e *Engine) randomSelected() (models.Movie, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.selection) == 0 {
		return models.Movie{}, false
	}
	ids := make([]int, 0, len(e.selection))
	for id := range e.selection {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return e.selection[ids[e.rng.Intn(len(ids))]], true
}

// abortSpinLocked cancels the in-flight spin, if any, and bumps the
// generation so the stale goroutine cannot write phases afterwards.
func (e *Engine) abortSpinLocked() {
	if e.spinCancel != nil {
		e.spinCancel()
		e.spinCancel = nil
	}
	e.generation++
}

func (e *Engine) setPhaseLocked(phase Phase) {
	if e.phase == phase {
		return
	}
	e.phase = phase
	e.emit(Event{Type: EventPhase, Phase: phase})
}

// emit never blocks; with no consumer attached events are dropped.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.logger.Debug().Str("type", string(ev.Type)).Msg("event dropped")
	}
}
