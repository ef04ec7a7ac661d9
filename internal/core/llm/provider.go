// Package llm contains the LLM provider adapters and the ordered
// fallback chain that drives them.
package llm

import "context"

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderDeepSeek ProviderName = "deepseek"
	ProviderQwen     ProviderName = "qwen"
	ProviderGemini   ProviderName = "gemini"
)

// Provider is one LLM completion backend.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider's credential is configured.
	IsAvailable() bool

	// Complete sends a prompt and returns the model's text response.
	Complete(ctx context.Context, prompt string) (string, error)
}

// DefaultOrder is the fallback order used by the digest and the
// dashboard when none is requested explicitly.
func DefaultOrder() []ProviderName {
	return []ProviderName{ProviderQwen, ProviderGemini, ProviderDeepSeek}
}

// AnalyzeOrder is the fallback order used by the bot's /analyze command.
func AnalyzeOrder() []ProviderName {
	return []ProviderName{ProviderDeepSeek, ProviderQwen, ProviderGemini}
}
