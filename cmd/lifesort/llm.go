package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/llm"
	"github.com/Veraticus/lifesort/internal/model"
	"github.com/spf13/viper"
)

// apiKeyEnv names the conventional key variable of each provider.
var apiKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// llmConfig builds the inference configuration from viper, falling back to
// the provider's API key variable.
func llmConfig() (llm.Config, error) {
	provider := strings.ToLower(viper.GetString("llm.provider"))
	if provider == "" {
		provider = "gemini"
	}
	envKey, ok := apiKeyEnv[provider]
	if !ok {
		return llm.Config{}, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, provider)
	}

	config := llm.Config{
		Provider:       provider,
		Model:          viper.GetString("llm.model"),
		BaseURL:        viper.GetString("llm.base_url"),
		APIKey:         viper.GetString("llm.api_key"),
		MaxTokens:      viper.GetInt("llm.max_tokens"),
		MaxRetries:     viper.GetInt("llm.max_retries"),
		RetryDelay:     viper.GetDuration("llm.retry_delay"),
		RateLimit:      viper.GetInt("llm.rate_limit"),
		TrustThreshold: viper.GetFloat64("llm.trust_threshold"),
	}
	if config.APIKey == "" {
		config.APIKey = os.Getenv(envKey)
	}
	if config.APIKey == "" {
		return llm.Config{}, common.NewUserError(
			fmt.Sprintf("%s API key not found in config (llm.api_key) or %s", provider, envKey),
			common.ErrMissingConfig)
	}

	return config, nil
}

// newInference creates the inference client and the router on top of it.
func newInference(ctx context.Context) (llm.Client, *llm.Classifier, error) {
	config, err := llmConfig()
	if err != nil {
		return nil, nil, err
	}

	client, err := llm.NewClient(ctx, config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return client, llm.NewClassifier(client, config, slog.Default()), nil
}

// singleRouter answers every request with exactly one result, for input
// the user knows holds a single item.
type singleRouter struct {
	*llm.Classifier
}

func (r singleRouter) ClassifyBatch(ctx context.Context, text string) []model.ClassificationResult {
	return []model.ClassificationResult{r.Classify(ctx, text)}
}
