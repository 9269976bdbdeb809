package provider

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/models"
)

// Cascade tries an ordered list of providers until one succeeds. Attempts
// are strictly sequential: ordering is a quality/cost trade-off, so a later
// provider is only charged for use when every earlier one has failed. This
// is a fallback chain, never a race.
type Cascade struct {
	providers []Provider
	logger    zerolog.Logger
}

func NewCascade(providers []Provider, logger zerolog.Logger) *Cascade {
	return &Cascade{
		providers: providers,
		logger:    logger.With().Str("component", "cascade").Logger(),
	}
}

// Providers returns the configured cascade order.
func (c *Cascade) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Recommend returns the first successful provider's candidate list. Each
// failure is recorded and logged but not propagated until the list is
// exhausted, at which point every cause is surfaced together.
func (c *Cascade) Recommend(ctx context.Context, mood string) ([]models.Candidate, error) {
	if strings.TrimSpace(mood) == "" {
		return nil, ErrEmptyMood
	}
	if len(c.providers) == 0 {
		return nil, ErrNoProvidersConfigured
	}

	attempts := make([]*ProviderError, 0, len(c.providers))

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates, err := p.Recommend(ctx, mood)
		if err == nil {
			c.logger.Info().
				Str("provider", p.Name()).
				Int("candidates", len(candidates)).
				Int("failed_attempts", len(attempts)).
				Msg("cascade resolved")
			return candidates, nil
		}

		perr, ok := err.(*ProviderError)
		if !ok {
			perr = &ProviderError{Provider: p.Name(), Err: err}
		}
		attempts = append(attempts, perr)
		c.logger.Warn().Err(perr.Err).Str("provider", p.Name()).Msg("provider attempt failed")
	}

	return nil, &AllProvidersFailedError{Attempts: attempts}
}
