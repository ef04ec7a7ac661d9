package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
)

const (
	qwenRateLimiterBurst = 5
	qwenDefaultTimeout   = 120 * time.Second
)

// qwenProvider talks to the Qwen OpenAI-compatible chat completion
// endpoint directly over HTTP. The response content field is decoded
// flexibly: some models return a plain string, others an array of
// typed parts that are concatenated.
type qwenProvider struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// QwenConfig configures the Qwen adapter.
type QwenConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	RateLimitRPS int
	Timeout      time.Duration
}

func NewQwen(cfg QwenConfig, logger *zerolog.Logger) Provider {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = qwenDefaultTimeout
	}

	return &qwenProvider{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), qwenRateLimiterBurst),
		logger:      logger,
	}
}

func (p *qwenProvider) Name() ProviderName {
	return ProviderQwen
}

func (p *qwenProvider) IsAvailable() bool {
	return p.apiKey != ""
}

type qwenRequest struct {
	Model    string        `json:"model"`
	Messages []qwenMessage `json:"messages"`
}

type qwenMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type qwenResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type qwenContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (p *qwenProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(qwenRequest{
		Model:    p.model,
		Messages: []qwenMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode qwen request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build qwen request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qwen request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read qwen response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("qwen API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed qwenResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode qwen response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", coreerrors.ErrEmptyResponse
	}

	content, err := decodeContent(parsed.Choices[0].Message.Content)
	if err != nil {
		return "", err
	}

	if content == "" {
		return "", coreerrors.ErrEmptyResponse
	}

	return content, nil
}

// decodeContent accepts either a JSON string or an array of typed
// parts and returns the concatenated text.
func decodeContent(raw json.RawMessage) (string, error) {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return strings.TrimSpace(plain), nil
	}

	var parts []qwenContentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("decode qwen content: %w", err)
	}

	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(part.Text)
	}

	return strings.TrimSpace(sb.String()), nil
}
