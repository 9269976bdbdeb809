package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/kitmnp/whattowatch/internal/database"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	defaultImageURL = "https://image.tmdb.org/t/p"
)

// Config for the TMDb client. BaseURL is overridable for tests.
type Config struct {
	APIKey   string
	BaseURL  string
	ImageURL string
	Timeout  time.Duration
}

// Client wraps the TMDb REST API. All calls go through a circuit breaker so
// a flapping catalog fails fast instead of stalling every resolver worker,
// and through an optional read-through sqlite cache.
type Client struct {
	apiKey     string
	baseURL    string
	imageURL   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	cache      *database.CacheRepository
	logger     zerolog.Logger
}

func NewClient(cfg Config, cache *database.CacheRepository, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ImageURL == "" {
		cfg.ImageURL = defaultImageURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		imageURL:   cfg.ImageURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "tmdb",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		cache:  cache,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Movie is one record from a TMDb title search.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
}

type searchMovieResult struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalResults int     `json:"total_results"`
}

// FilmDetails is the full movie record with credits inlined.
type FilmDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	Runtime     int     `json:"runtime"`
	Genres      []Genre `json:"genres"`
	Credits     Credits `json:"credits"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

type CrewMember struct {
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// WatchOffer is a single provider entry in a region's offers.
type WatchOffer struct {
	ProviderName string `json:"provider_name"`
}

// RegionOffers are the offers available in one country.
type RegionOffers struct {
	Flatrate []WatchOffer `json:"flatrate"`
	Buy      []WatchOffer `json:"buy"`
}

type watchProvidersResult struct {
	ID      int                     `json:"id"`
	Results map[string]RegionOffers `json:"results"`
}

// SearchMovies runs a title search and returns the first result page.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("page", "1")

	fullURL := fmt.Sprintf("%s/search/movie?%s", c.baseURL, params.Encode())

	var searchResult searchMovieResult
	if err := c.getJSON(ctx, "search:"+query, fullURL, &searchResult); err != nil {
		return nil, err
	}

	return searchResult.Results, nil
}

// GetFilm fetches the full record for one movie with credits inlined via
// append_to_response.
func (c *Client) GetFilm(ctx context.Context, tmdbID int) (*FilmDetails, error) {
	fullURL := fmt.Sprintf("%s/movie/%d?api_key=%s&append_to_response=credits",
		c.baseURL, tmdbID, c.apiKey)

	var details FilmDetails
	if err := c.getJSON(ctx, fmt.Sprintf("movie:%d", tmdbID), fullURL, &details); err != nil {
		return nil, err
	}

	return &details, nil
}

// GetWatchProviders returns per-region streaming and purchase offers.
func (c *Client) GetWatchProviders(ctx context.Context, tmdbID int) (map[string]RegionOffers, error) {
	fullURL := fmt.Sprintf("%s/movie/%d/watch/providers?api_key=%s",
		c.baseURL, tmdbID, c.apiKey)

	var result watchProvidersResult
	if err := c.getJSON(ctx, fmt.Sprintf("providers:%d", tmdbID), fullURL, &result); err != nil {
		return nil, err
	}

	return result.Results, nil
}

// ImageURL builds a CDN URL for a poster path, e.g. size "w500".
func (c *Client) ImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.imageURL, size, path)
}

// getJSON fetches fullURL through the cache and breaker and decodes into v.
// Cache keys never include the API key.
func (c *Client) getJSON(ctx context.Context, cacheKey, fullURL string, v any) error {
	if c.cache != nil {
		if payload, ok, err := c.cache.Get(ctx, cacheKey); err != nil {
			c.logger.Warn().Err(err).Str("key", cacheKey).Msg("cache read failed")
		} else if ok {
			return json.Unmarshal(payload, v)
		}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, fullURL)
	})
	if err != nil {
		return err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, cacheKey, body); err != nil {
			c.logger.Warn().Err(err).Str("key", cacheKey).Msg("cache write failed")
		}
	}

	return json.Unmarshal(body, v)
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TMDb API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return body, nil
}
