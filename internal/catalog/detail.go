package catalog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/models"
)

// DetailService assembles a roulette winner's extended detail. Every fetch
// is best-effort: a failure leaves the corresponding fields empty and the
// winner keeps its base fields.
type DetailService struct {
	client       *Client
	watchRegions []string
	logger       zerolog.Logger
}

// NewDetailService builds a detail fetcher. watchRegions is the fixed
// priority order for watch-provider fallback.
func NewDetailService(client *Client, watchRegions []string, logger zerolog.Logger) *DetailService {
	return &DetailService{
		client:       client,
		watchRegions: watchRegions,
		logger:       logger.With().Str("component", "catalog.detail").Logger(),
	}
}

// FetchDetail extends the winner with runtime, genres, credits, and watch
// providers. It never returns an error for a partial result; the returned
// detail always carries at least the base movie.
func (s *DetailService) FetchDetail(ctx context.Context, movie models.Movie) *models.WinnerDetail {
	detail := &models.WinnerDetail{Movie: movie}

	film, err := s.client.GetFilm(ctx, movie.CatalogID)
	if err != nil {
		s.logger.Warn().Err(err).Int("catalog_id", movie.CatalogID).Msg("detail fetch failed")
	} else {
		detail.Runtime = film.Runtime
		for _, g := range film.Genres {
			detail.Genres = append(detail.Genres, g.Name)
		}
		detail.Credits = creditsFromFilm(film)
	}

	offers, region := s.watchOffers(ctx, movie.CatalogID)
	if offers != nil {
		detail.WatchProviders = offers
		detail.WatchRegion = region
	}

	return detail
}

// watchOffers falls through the configured region priority and returns the
// first region with any offers.
func (s *DetailService) watchOffers(ctx context.Context, tmdbID int) (*models.WatchOffers, string) {
	regions, err := s.client.GetWatchProviders(ctx, tmdbID)
	if err != nil {
		s.logger.Warn().Err(err).Int("catalog_id", tmdbID).Msg("watch provider fetch failed")
		return nil, ""
	}

	for _, code := range s.watchRegions {
		r, ok := regions[code]
		if !ok {
			continue
		}

		offers := &models.WatchOffers{}
		for _, o := range r.Flatrate {
			offers.Flatrate = append(offers.Flatrate, o.ProviderName)
		}
		for _, o := range r.Buy {
			offers.Buy = append(offers.Buy, o.ProviderName)
		}

		if len(offers.Flatrate) > 0 || len(offers.Buy) > 0 {
			return offers, code
		}
	}

	return nil, ""
}

func creditsFromFilm(film *FilmDetails) *models.Credits {
	credits := &models.Credits{}

	for _, crew := range film.Credits.Crew {
		if crew.Job == "Director" {
			credits.Director = crew.Name
			break
		}
	}

	// Top-billed cast only; TMDb orders cast by billing.
	for i, cast := range film.Credits.Cast {
		if i >= 5 {
			break
		}
		credits.Cast = append(credits.Cast, cast.Name)
	}

	if credits.Director == "" && len(credits.Cast) == 0 {
		return nil
	}
	return credits
}
