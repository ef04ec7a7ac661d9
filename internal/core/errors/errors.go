// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
//
// Error kinds are decided once at the HTTP/SDK boundary (the provider
// adapters) and carried as sentinels; downstream code never re-derives
// them from message text.
package errors

import "errors"

// Entity resolution errors.
var (
	// ErrUserNotFound indicates a user could not be found in the store.
	ErrUserNotFound = errors.New("user not found")

	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")
)

// LLM provider errors.
var (
	// ErrRateLimited indicates the provider returned HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrPayloadTooLarge indicates the prompt exceeded the provider's
	// request size limit (HTTP 400 on an oversized payload).
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrAuthFailed indicates a credential problem (HTTP 403).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrInsufficientBalance indicates the provider account has no
	// remaining quota (HTTP 402). Suppresses further same-provider
	// attempts and informs the fallback decision.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrModelNotFound indicates the requested model name is unknown to
	// the provider (HTTP 404); the caller advances to the next model.
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyResponse indicates the provider returned no usable text.
	ErrEmptyResponse = errors.New("empty response")
)

// Fallback chain errors.
var (
	// ErrNoProvidersAvailable indicates no provider in the chain was
	// configured.
	ErrNoProvidersAvailable = errors.New("no LLM providers available")

	// ErrAllProvidersFailed indicates every configured provider failed.
	ErrAllProvidersFailed = errors.New("all LLM providers failed")

	// ErrBalanceExhausted indicates a provider ran out of balance and no
	// alternative provider could serve the request.
	ErrBalanceExhausted = errors.New("provider balance exhausted with no alternative available")
)

// Cache errors.
var (
	// ErrCacheMiss indicates a cache entry was not found or has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheDisabled indicates no cache backend is configured.
	ErrCacheDisabled = errors.New("cache disabled")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
