// Package translate proxies translation requests through an ordered chain of
// external providers.
package translate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"example.com/progress/internal/domain"
)

// DefaultAttemptTimeout bounds a single provider call.
const DefaultAttemptTimeout = 8 * time.Second

const excerptRunes = 64

// Provider translates text between two language codes.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Cache stores successful translations. Implementations treat backend
// errors as misses.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Trigger decides whether a link in the chain is attempted.
type Trigger int

const (
	// Always attempts the provider whenever the chain reaches it.
	Always Trigger = iota
	// AfterRateLimit attempts the provider only when the previous attempt
	// failed with ErrRateLimited.
	AfterRateLimit
)

// Link is one step of the fallback chain.
type Link struct {
	Provider Provider
	When     Trigger
}

// Result is the outcome of a translation.
type Result struct {
	OriginalText   string
	TranslatedText string
	SourceLanguage string
	TargetLanguage string
	Provider       string
}

// Option configures optional behaviour for the Gateway.
type Option func(*Gateway)

// WithLogger overrides the logger used to trace attempts.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithAttemptTimeout overrides DefaultAttemptTimeout.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

// WithCache enables result caching.
func WithCache(cache Cache) Option {
	return func(g *Gateway) {
		if cache != nil {
			g.cache = cache
		}
	}
}

// Gateway walks the provider chain until one provider succeeds. When every
// attempted provider fails it returns a *TranslationError; the original text
// is never echoed back as a translation.
type Gateway struct {
	chain   []Link
	timeout time.Duration
	cache   Cache
	logger  zerolog.Logger
}

// NewGateway constructs a Gateway over chain.
func NewGateway(chain []Link, opts ...Option) *Gateway {
	g := &Gateway{
		chain:   chain,
		timeout: DefaultAttemptTimeout,
		cache:   noopCache{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Translate returns text translated from source to target.
func (g *Gateway) Translate(ctx context.Context, text, source, target string) (Result, error) {
	source, target = strings.TrimSpace(source), strings.TrimSpace(target)
	if text == "" || source == "" || target == "" {
		return Result{}, domain.NewValidationError("Please provide text, source, and target languages")
	}

	result := Result{OriginalText: text, SourceLanguage: source, TargetLanguage: target}
	if source == target {
		result.TranslatedText = text
		return result, nil
	}

	key := cacheKey(text, source, target)
	if cached, ok := g.cache.Get(ctx, key); ok {
		cacheCounter.WithLabelValues("hit").Inc()
		result.TranslatedText = cached
		result.Provider = "cache"
		return result, nil
	}
	cacheCounter.WithLabelValues("miss").Inc()

	var (
		failures []*ProviderError
		lastErr  error
	)
	for _, link := range g.chain {
		if link.When == AfterRateLimit && !errors.Is(lastErr, ErrRateLimited) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		translated, err := g.attempt(ctx, link.Provider, text, source, target)
		if err == nil {
			g.cache.Set(ctx, key, translated)
			result.TranslatedText = translated
			result.Provider = link.Provider.Name()
			return result, nil
		}
		failures = append(failures, asProviderError(link.Provider.Name(), err))
		lastErr = err
	}

	g.logger.Error().
		Str("source", source).
		Str("target", target).
		Str("text", excerpt(text)).
		Int("attempts", len(failures)).
		Msg("translation chain exhausted")
	return Result{}, &TranslationError{Failures: failures}
}

func (g *Gateway) attempt(ctx context.Context, provider Provider, text, source, target string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	translated, err := provider.Translate(attemptCtx, text, source, target)
	if err == nil && translated == "" {
		err = &ProviderError{Provider: provider.Name(), Err: errEmptyTranslation}
	}
	elapsed := time.Since(start)

	outcome := classify(err)
	attemptCounter.WithLabelValues(provider.Name(), outcome).Inc()
	attemptDuration.WithLabelValues(provider.Name()).Observe(elapsed.Seconds())

	event := g.logger.Info()
	if err != nil {
		event = g.logger.Warn().Err(err)
	}
	event.
		Str("provider", provider.Name()).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Str("source", source).
		Str("target", target).
		Str("text", excerpt(text)).
		Str("translated", excerpt(translated)).
		Msg("translation attempt")

	return translated, err
}

func classify(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func cacheKey(text, source, target string) string {
	return source + "|" + target + "|" + text
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptRunes {
		return s
	}
	return string(runes[:excerptRunes]) + "…"
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, bool) { return "", false }
func (noopCache) Set(context.Context, string, string)        {}
