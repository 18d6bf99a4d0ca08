package translate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRateLimited is reported by a provider that refused the request
	// because of its quota. It is the signal that unlocks AfterRateLimit links.
	ErrRateLimited = errors.New("rate limited")

	errEmptyTranslation = errors.New("empty translated text")
)

// ProviderError records a single failed provider attempt.
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// TranslationError is returned once every provider in the chain has failed.
type TranslationError struct {
	Failures []*ProviderError
}

func (e *TranslationError) Error() string {
	if len(e.Failures) == 0 {
		return "no translation provider available"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return "all translation providers failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual provider failures to errors.Is and errors.As.
func (e *TranslationError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f)
	}
	return out
}

func asProviderError(provider string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Provider: provider, Err: err}
}
