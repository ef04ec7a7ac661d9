package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
	"github.com/chatinsight/insight-bot/internal/platform/observability"
)

// Registry holds the configured providers and runs ordered fallback:
// providers are tried in the caller's priority order, unavailable ones
// are skipped, the first success wins, and per-provider failures are
// recorded and stepped over.
type Registry struct {
	providers map[ProviderName]Provider
	logger    *zerolog.Logger
}

func NewRegistry(logger *zerolog.Logger, providers ...Provider) *Registry {
	m := make(map[ProviderName]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p

		logger.Info().
			Str("provider", string(p.Name())).
			Bool("available", p.IsAvailable()).
			Msg("registered LLM provider")
	}

	return &Registry{providers: m, logger: logger}
}

// Available reports whether the named provider is registered and has a
// credential configured.
func (r *Registry) Available(name ProviderName) bool {
	p, ok := r.providers[name]
	return ok && p.IsAvailable()
}

// Complete runs the prompt through the providers in the given order and
// returns the first successful response together with the provider that
// produced it.
//
// Error surfacing after exhaustion is most-specific-first: a provider
// that ran out of balance with no working alternative is reported as
// ErrBalanceExhausted, otherwise the last provider error is joined with
// ErrAllProvidersFailed. When nothing was even attempted the result is
// ErrNoProvidersAvailable.
func (r *Registry) Complete(ctx context.Context, prompt string, order []ProviderName) (ProviderName, string, error) {
	var (
		lastErr      error
		sawBalance   bool
		firstTried   ProviderName
		attemptCount int
	)

	for _, name := range order {
		p, ok := r.providers[name]
		if !ok || !p.IsAvailable() {
			r.logger.Debug().Str("provider", string(name)).Msg("provider not configured, skipping")
			continue
		}

		if attemptCount == 0 {
			firstTried = name
		}
		attemptCount++

		start := time.Now()
		text, err := p.Complete(ctx, prompt)
		duration := time.Since(start)

		observability.LLMRequestDuration.WithLabelValues(string(name)).Observe(duration.Seconds())

		if err != nil {
			observability.LLMRequests.WithLabelValues(string(name), observability.StatusError).Inc()

			if errors.Is(err, coreerrors.ErrInsufficientBalance) {
				sawBalance = true
			}

			lastErr = err

			r.logger.Warn().
				Err(err).
				Str("provider", string(name)).
				Dur("duration", duration).
				Msg("LLM provider failed, trying fallback")

			continue
		}

		observability.LLMRequests.WithLabelValues(string(name), observability.StatusOK).Inc()

		if name != firstTried {
			observability.LLMFallbacks.WithLabelValues(string(firstTried), string(name)).Inc()
			r.logger.Info().
				Str("provider", string(name)).
				Str("from_provider", string(firstTried)).
				Msg("used fallback LLM provider")
		}

		return name, text, nil
	}

	if sawBalance {
		return "", "", errors.Join(coreerrors.ErrBalanceExhausted, lastErr)
	}

	if lastErr != nil {
		return "", "", errors.Join(coreerrors.ErrAllProvidersFailed, lastErr)
	}

	return "", "", coreerrors.ErrNoProvidersAvailable
}
