package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
)

const deepseekRateLimiterBurst = 5

// deepseekProvider talks to the DeepSeek chat completion API through
// the OpenAI-compatible client. Single request, fixed model, no retry;
// HTTP 402 is surfaced as the distinguished insufficient-balance kind.
type deepseekProvider struct {
	apiKey      string
	model       string
	client      *openai.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// DeepSeekConfig configures the DeepSeek adapter.
type DeepSeekConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	RateLimitRPS int
}

func NewDeepSeek(cfg DeepSeekConfig, logger *zerolog.Logger) Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}

	return &deepseekProvider{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		client:      openai.NewClientWithConfig(clientCfg),
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), deepseekRateLimiterBurst),
		logger:      logger,
	}
}

func (p *deepseekProvider) Name() ProviderName {
	return ProviderDeepSeek
}

func (p *deepseekProvider) IsAvailable() bool {
	return p.apiKey != ""
}

func (p *deepseekProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", p.classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", coreerrors.ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", coreerrors.ErrEmptyResponse
	}

	return content, nil
}

// classifyError maps the SDK error to the sentinel taxonomy once, at
// the boundary. Status 402 means the account balance is exhausted.
func (p *deepseekProvider) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusPaymentRequired {
			return fmt.Errorf("%w: %s", coreerrors.ErrInsufficientBalance, apiErr.Message)
		}

		return fmt.Errorf("deepseek API error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("deepseek chat completion: %w", err)
}
