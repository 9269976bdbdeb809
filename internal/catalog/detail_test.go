package catalog

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/models"
)

var baseMovie = models.Movie{
	CatalogID:   603,
	Title:       "The Matrix",
	Overview:    "A hacker learns the truth.",
	ReleaseDate: "1999-03-30",
	VoteAverage: 8.2,
}

func TestFetchDetailFull(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/603":
			w.Write([]byte(`{"id": 603, "title": "The Matrix", "runtime": 136,
				"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
				"credits": {
					"cast": [{"name": "Keanu Reeves", "order": 0}, {"name": "Laurence Fishburne", "order": 1}],
					"crew": [{"name": "Lilly Wachowski", "job": "Editor"}, {"name": "Lana Wachowski", "job": "Director"}]}}`))
		case "/movie/603/watch/providers":
			w.Write([]byte(`{"id": 603, "results": {
				"GB": {"flatrate": [{"provider_name": "Now TV"}]},
				"US": {"flatrate": [{"provider_name": "Max"}], "buy": [{"provider_name": "Apple TV"}]}}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), nil)

	svc := NewDetailService(client, []string{"US", "GB"}, zerolog.Nop())
	detail := svc.FetchDetail(context.Background(), baseMovie)

	if detail.CatalogID != 603 {
		t.Errorf("base fields must survive, got catalog ID %d", detail.CatalogID)
	}
	if detail.Runtime != 136 {
		t.Errorf("expected runtime 136, got %d", detail.Runtime)
	}
	if len(detail.Genres) != 2 {
		t.Errorf("expected 2 genres, got %v", detail.Genres)
	}
	if detail.Credits == nil || detail.Credits.Director != "Lana Wachowski" {
		t.Errorf("expected director from crew, got %+v", detail.Credits)
	}
	if detail.WatchRegion != "US" {
		t.Errorf("expected US offers to win the region priority, got %q", detail.WatchRegion)
	}
	if detail.WatchProviders == nil || len(detail.WatchProviders.Flatrate) != 1 {
		t.Errorf("unexpected watch providers: %+v", detail.WatchProviders)
	}
}

func TestFetchDetailRegionFallback(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/603":
			w.Write([]byte(`{"id": 603, "title": "The Matrix", "runtime": 136}`))
		case "/movie/603/watch/providers":
			w.Write([]byte(`{"id": 603, "results": {"GB": {"buy": [{"provider_name": "Amazon Video"}]}}}`))
		}
	}), nil)

	svc := NewDetailService(client, []string{"US", "GB", "CA"}, zerolog.Nop())
	detail := svc.FetchDetail(context.Background(), baseMovie)

	if detail.WatchRegion != "GB" {
		t.Errorf("expected fallback to GB, got %q", detail.WatchRegion)
	}
	if detail.WatchProviders == nil || len(detail.WatchProviders.Buy) != 1 {
		t.Errorf("unexpected offers: %+v", detail.WatchProviders)
	}
}

func TestFetchDetailDegradesOnFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), nil)

	svc := NewDetailService(client, []string{"US"}, zerolog.Nop())
	detail := svc.FetchDetail(context.Background(), baseMovie)

	if detail == nil {
		t.Fatal("detail must never be nil")
	}
	if detail.Title != "The Matrix" || detail.CatalogID != 603 {
		t.Errorf("base fields must survive a failed fetch, got %+v", detail.Movie)
	}
	if detail.Runtime != 0 || detail.Credits != nil || detail.WatchProviders != nil {
		t.Errorf("extended fields should be empty on failure, got %+v", detail)
	}
}
