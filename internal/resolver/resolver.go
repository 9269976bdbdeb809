package resolver

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kitmnp/whattowatch/internal/catalog"
	"github.com/kitmnp/whattowatch/internal/models"
)

const posterSize = "w500"

// Catalog is the slice of the TMDb client the resolver needs.
type Catalog interface {
	SearchMovies(ctx context.Context, query string) ([]catalog.Movie, error)
	ImageURL(path string, size string) string
}

// Resolver matches candidate titles to canonical catalog records. Lookups
// for distinct candidates run concurrently and each item's outcome is
// collected independently: one failed lookup never aborts the batch.
type Resolver struct {
	catalog     Catalog
	concurrency int
	logger      zerolog.Logger
}

func New(cat Catalog, concurrency int, logger zerolog.Logger) *Resolver {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Resolver{
		catalog:     cat,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve maps each candidate to at most one catalog record, taking the
// first search result as the canonical match. Misses and lookup failures
// are dropped silently, so the output may be shorter than the input; order
// follows the input with gaps closed. Duplicate catalog IDs keep the first
// occurrence.
func (r *Resolver) Resolve(ctx context.Context, candidates []models.Candidate) []models.Movie {
	slots := make([]*models.Movie, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, c := range candidates {
		g.Go(func() error {
			results, err := r.catalog.SearchMovies(ctx, c.Title)
			if err != nil {
				r.logger.Warn().Err(err).Str("title", c.Title).Msg("lookup failed")
				return nil
			}
			if len(results) == 0 {
				r.logger.Debug().Str("title", c.Title).Msg("no catalog match")
				return nil
			}

			first := results[0]
			slots[i] = &models.Movie{
				CatalogID:   first.ID,
				Title:       first.Title,
				PosterPath:  first.PosterPath,
				PosterURL:   r.catalog.ImageURL(first.PosterPath, posterSize),
				Overview:    first.Overview,
				ReleaseDate: first.ReleaseDate,
				VoteAverage: first.VoteAverage,
				Reason:      c.Reason,
			}
			return nil
		})
	}

	// Workers only ever return nil; the group is used for bounded fan-out
	// and ctx plumbing, not fail-fast joining.
	_ = g.Wait()

	seen := make(map[int]bool, len(candidates))
	movies := make([]models.Movie, 0, len(candidates))
	for _, m := range slots {
		if m == nil || seen[m.CatalogID] {
			continue
		}
		seen[m.CatalogID] = true
		movies = append(movies, *m)
	}

	r.logger.Info().
		Int("candidates", len(candidates)).
		Int("resolved", len(movies)).
		Msg("resolution complete")

	return movies
}
