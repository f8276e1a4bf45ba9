package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"asymmetricbridge/internal/config"
)

const (
	ProviderNone      = "none"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	defaultMaxTokens = 1500
	defaultTimeout   = 30 * time.Second
)

var ErrEmptyResponse = errors.New("llm returned no text")

// Generator is a text-generation backend. Callers treat it as unreliable.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// New builds the configured generator. Provider "none" or an empty provider
// returns (nil, nil).
func New(cfg config.LLMConfig) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" || provider == ProviderNone {
		return nil, nil
	}
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("llm provider %s: api key env %q is empty", provider, cfg.APIKeyEnv)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	switch provider {
	case ProviderAnthropic:
		return NewAnthropic(key, cfg.Model, cfg.BaseURL, maxTokens, timeout), nil
	case ProviderOpenAI:
		return NewOpenAI(key, cfg.Model, cfg.BaseURL, maxTokens, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
