package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kitmnp/whattowatch/internal/models"
)

// Provider issues a single recommendation request against one generative
// text backend. Implementations never retry; substituting another provider
// on failure is the cascade's job.
type Provider interface {
	Name() string
	Recommend(ctx context.Context, mood string) ([]models.Candidate, error)
}

var (
	// ErrEmptyMood is returned before any provider is consulted.
	ErrEmptyMood = errors.New("mood is required")

	// ErrNoProvidersConfigured means the cascade was built with an empty
	// provider list, usually because no API keys were set.
	ErrNoProvidersConfigured = errors.New("no recommendation providers configured")
)

// ProviderError wraps any failure of a single provider call: transport
// errors, non-200 responses, and unparsable or empty payloads are all the
// same severity, so the cascade can fall through on any of them.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AllProvidersFailedError aggregates every attempt's cause, in cascade
// order. It is only produced when no provider succeeded.
type AllProvidersFailedError struct {
	Attempts []*ProviderError
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("all %d providers failed: %s", len(e.Attempts), strings.Join(parts, "; "))
}

func (e *AllProvidersFailedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}
