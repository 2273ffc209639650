package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config holds configuration for inference clients and the Classifier.
type Config struct {
	Provider       string
	APIKey         string
	Model          string
	BaseURL        string
	MaxRetries     int
	RetryDelay     time.Duration
	RateLimit      int
	MaxTokens      int
	TrustThreshold float64
}

// NewClient creates an inference client based on the provided configuration.
// A positive RateLimit wraps the client in a requests-per-minute limiter.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "gemini", "":
		client, err = newGeminiClient(ctx, cfg)
	case "openai":
		client, err = newOpenAIClient(cfg)
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	if cfg.RateLimit > 0 {
		client = NewRateLimitedClient(client, cfg.RateLimit)
	}
	return client, nil
}
