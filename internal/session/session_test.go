package session

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/models"
	"github.com/kitmnp/whattowatch/internal/roulette"
)

type noopFetcher struct{}

func (noopFetcher) FetchDetail(ctx context.Context, movie models.Movie) *models.WinnerDetail {
	return &models.WinnerDetail{Movie: movie}
}

func newTestRegistry() *Registry {
	return NewRegistry(func() *roulette.Engine {
		return roulette.NewEngine(noopFetcher{}, roulette.Config{}, nil, zerolog.Nop())
	}, zerolog.Nop())
}

func TestRegistryCreateAndGet(t *testing.T) {
	reg := newTestRegistry()

	s := reg.Create()
	if s.ID == "" {
		t.Fatal("expected a session ID")
	}
	if s.Roulette() == nil {
		t.Fatal("expected an attached roulette engine")
	}

	got, err := reg.Get(s.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := newTestRegistry()

	if _, err := reg.Get("no-such-id"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryDelete(t *testing.T) {
	reg := newTestRegistry()
	s := reg.Create()

	reg.Delete(s.ID)

	if _, err := reg.Get(s.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting twice is a no-op.
	reg.Delete(s.ID)
}

func TestCompleteQueryInstallsMovies(t *testing.T) {
	reg := newTestRegistry()
	s := reg.Create()

	queryCtx := s.BeginQuery(context.Background())
	movies := []models.Movie{{CatalogID: 603, Title: "The Matrix"}}

	if !s.CompleteQuery(queryCtx, movies) {
		t.Fatal("expected live query to install its results")
	}
	if got := s.Movies(); len(got) != 1 || got[0].CatalogID != 603 {
		t.Fatalf("unexpected result set: %+v", got)
	}

	// The roulette engine received the new set.
	if _, err := s.Roulette().Toggle(603); err != nil {
		t.Errorf("engine should know the new movie: %v", err)
	}
}

func TestLastQueryWins(t *testing.T) {
	reg := newTestRegistry()
	s := reg.Create()

	first := s.BeginQuery(context.Background())
	second := s.BeginQuery(context.Background())

	stale := []models.Movie{{CatalogID: 1, Title: "Stale"}}
	fresh := []models.Movie{{CatalogID: 2, Title: "Fresh"}}

	if s.CompleteQuery(first, stale) {
		t.Fatal("superseded query must not install its results")
	}
	if !s.CompleteQuery(second, fresh) {
		t.Fatal("live query must install its results")
	}

	got := s.Movies()
	if len(got) != 1 || got[0].Title != "Fresh" {
		t.Fatalf("expected the later query's results, got %+v", got)
	}
}

func TestNewQueryDiscardsSelection(t *testing.T) {
	reg := newTestRegistry()
	s := reg.Create()

	queryCtx := s.BeginQuery(context.Background())
	s.CompleteQuery(queryCtx, []models.Movie{{CatalogID: 1, Title: "A"}})
	if _, err := s.Roulette().Toggle(1); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	next := s.BeginQuery(context.Background())
	s.CompleteQuery(next, []models.Movie{{CatalogID: 2, Title: "B"}})

	snap := s.Roulette().Snapshot()
	if len(snap.Selection) != 0 {
		t.Errorf("new result set must clear the selection, got %v", snap.Selection)
	}
	if _, err := s.Roulette().Toggle(1); err != roulette.ErrUnknownMovie {
		t.Errorf("old movie should be gone, got %v", err)
	}
}
