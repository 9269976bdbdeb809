package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/database"
)

const searchBody = `{
	"page": 1,
	"results": [
		{"id": 603, "title": "The Matrix", "release_date": "1999-03-30",
		 "overview": "A hacker learns the truth.", "poster_path": "/matrix.jpg", "vote_average": 8.2},
		{"id": 604, "title": "The Matrix Reloaded", "release_date": "2003-05-15",
		 "overview": "More of the truth.", "poster_path": "/reloaded.jpg", "vote_average": 7.0}
	],
	"total_results": 2
}`

func newTestClient(t *testing.T, handler http.Handler, cache *database.CacheRepository) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, cache, zerolog.Nop())
	return client, server
}

func TestSearchMovies(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "The Matrix" {
			t.Errorf("expected query 'The Matrix', got %q", got)
		}
		w.Write([]byte(searchBody))
	}), nil)

	movies, err := client.SearchMovies(context.Background(), "The Matrix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("expected 2 results, got %d", len(movies))
	}
	if movies[0].ID != 603 || movies[0].Title != "The Matrix" {
		t.Errorf("unexpected first result: %+v", movies[0])
	}
}

func TestSearchMoviesServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), nil)

	if _, err := client.SearchMovies(context.Background(), "The Matrix"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestGetFilmRequestsCredits(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("append_to_response"); got != "credits" {
			t.Errorf("expected credits appended, got %q", got)
		}
		w.Write([]byte(`{"id": 603, "title": "The Matrix", "runtime": 136,
			"genres": [{"id": 28, "name": "Action"}],
			"credits": {"cast": [{"name": "Keanu Reeves", "character": "Neo", "order": 0}],
			            "crew": [{"name": "Lana Wachowski", "job": "Director", "department": "Directing"}]}}`))
	}), nil)

	film, err := client.GetFilm(context.Background(), 603)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if film.Runtime != 136 {
		t.Errorf("expected runtime 136, got %d", film.Runtime)
	}
	if len(film.Credits.Crew) != 1 || film.Credits.Crew[0].Job != "Director" {
		t.Errorf("unexpected crew: %+v", film.Credits.Crew)
	}
}

func TestGetWatchProviders(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603/watch/providers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"id": 603, "results": {
			"US": {"flatrate": [{"provider_name": "Max"}], "buy": [{"provider_name": "Apple TV"}]},
			"GB": {"buy": [{"provider_name": "Amazon Video"}]}}}`))
	}), nil)

	regions, err := client.GetWatchProviders(context.Background(), 603)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions["US"].Flatrate) != 1 || regions["US"].Flatrate[0].ProviderName != "Max" {
		t.Errorf("unexpected US offers: %+v", regions["US"])
	}
}

func TestImageURL(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, nil, zerolog.Nop())

	if got := client.ImageURL("/matrix.jpg", "w500"); got != "https://image.tmdb.org/t/p/w500/matrix.jpg" {
		t.Errorf("unexpected image URL: %s", got)
	}
	if got := client.ImageURL("", "w500"); got != "" {
		t.Errorf("expected empty URL for empty path, got %s", got)
	}
}

func TestSearchMoviesReadThroughCache(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	cache := database.NewCacheRepository(db, time.Hour)

	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(searchBody))
	}), cache)

	for i := 0; i < 3; i++ {
		movies, err := client.SearchMovies(context.Background(), "The Matrix")
		if err != nil {
			t.Fatalf("search %d failed: %v", i, err)
		}
		if len(movies) != 2 {
			t.Fatalf("search %d: expected 2 results, got %d", i, len(movies))
		}
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("expected exactly one upstream hit, got %d", got)
	}
}
