package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
)

const (
	geminiRateLimiterBurst = 5
	geminiDefaultTimeout   = 120 * time.Second

	// Rate-limit retry policy: up to 3 attempts per model, exponential
	// backoff with full jitter.
	geminiMaxAttempts     = 3
	geminiBaseRetryDelay  = time.Second
	geminiMaxRetryJitter  = time.Second
	geminiBackoffMultiple = 2
)

// geminiProvider talks to the Gemini generateContent REST API. It
// tries a priority-ordered model list: a 404 on one model name
// advances to the next, a 429 is retried with backoff within the same
// model, any other error fails the whole call immediately.
type geminiProvider struct {
	apiKey      string
	baseURL     string
	models      []string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	retryDelay  time.Duration
	logger      *zerolog.Logger
}

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	APIKey       string
	BaseURL      string
	Models       []string
	RateLimitRPS int
	Timeout      time.Duration

	// RetryDelay overrides the backoff base delay; used by tests.
	RetryDelay time.Duration
}

func NewGemini(cfg GeminiConfig, logger *zerolog.Logger) Provider {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = geminiDefaultTimeout
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = geminiBaseRetryDelay
	}

	return &geminiProvider{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		models:      cfg.Models,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), geminiRateLimiterBurst),
		retryDelay:  retryDelay,
		logger:      logger,
	}
}

func (p *geminiProvider) Name() ProviderName {
	return ProviderGemini
}

func (p *geminiProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// Complete walks the model fallback list. The first model the API
// accepts wins; an exhausted list surfaces the last error.
func (p *geminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for _, model := range p.models {
		text, err := p.completeModel(ctx, model, prompt)
		if err == nil {
			return text, nil
		}

		lastErr = err

		if coreerrors.Is(err, coreerrors.ErrModelNotFound) {
			p.logger.Warn().Str("model", model).Msg("gemini model not found, trying next")
			continue
		}

		return "", err
	}

	if lastErr != nil {
		return "", lastErr
	}

	return "", fmt.Errorf("gemini: %w", coreerrors.ErrModelNotFound)
}

// completeModel issues one request with rate-limit retry. Only 429
// is retried; every other error class fails immediately.
func (p *geminiProvider) completeModel(ctx context.Context, model, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < geminiMaxAttempts; attempt++ {
		if attempt > 0 {
			jitter := geminiMaxRetryJitter
			if p.retryDelay < jitter {
				jitter = p.retryDelay
			}

			delay := p.retryDelay * time.Duration(intPow(geminiBackoffMultiple, attempt-1))
			delay += time.Duration(rand.Int63n(int64(jitter))) //nolint:gosec // jitter does not need crypto randomness

			select {
			case <-ctx.Done():
				return "", fmt.Errorf("retry interrupted: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		text, err := p.doRequest(ctx, model, prompt)
		if err == nil {
			return text, nil
		}

		lastErr = err

		if !coreerrors.Is(err, coreerrors.ErrRateLimited) {
			return "", err
		}

		p.logger.Warn().
			Str("model", model).
			Int("attempt", attempt+1).
			Msg("gemini rate limited, backing off")
	}

	return "", lastErr
}

func intPow(base, exp int) int {
	result := 1
	for i := 0; i < exp; i++ {
		result *= base
	}

	return result
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *geminiProvider) doRequest(ctx context.Context, model, prompt string) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(model), url.QueryEscape(p.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", p.classifyStatus(resp.StatusCode, model, respBody)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	if len(parsed.Candidates) == 0 {
		return "", coreerrors.ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", coreerrors.ErrEmptyResponse
	}

	return text, nil
}

// classifyStatus maps response statuses to the sentinel taxonomy once,
// at the HTTP boundary.
func (p *geminiProvider) classifyStatus(status int, model string, body []byte) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: gemini model %s", coreerrors.ErrRateLimited, model)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: gemini rejected the request, reduce input size", coreerrors.ErrPayloadTooLarge)
	case http.StatusForbidden:
		return fmt.Errorf("%w: gemini API key rejected", coreerrors.ErrAuthFailed)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", coreerrors.ErrModelNotFound, model)
	default:
		return fmt.Errorf("gemini API error (status %d): %s", status, strings.TrimSpace(string(body)))
	}
}
