package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"product_advisor/internal/config"
	"product_advisor/internal/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/ollama/ollama/api"
)

// Provider names accepted in llm.provider
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
	ProviderArk      = "ark"

	defaultOllamaURL = "http://localhost:11434"
)

// ErrNoCredential is returned when the selected provider needs an API key that is not set
var ErrNoCredential = errors.New("no API credential configured")

// NewChatModel builds the chat model for the configured provider
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error) {
	if !cfg.HasCredential() {
		return nil, ErrNoCredential
	}

	provider := strings.ToLower(cfg.Provider)
	maxTokens := cfg.MaxTokens
	temperature := float32(cfg.Temperature)

	var (
		chatModel model.BaseChatModel
		err       error
	)

	switch provider {
	case ProviderOpenAI, "":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	case ProviderDeepSeek:
		chatModel, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		chatModel, err = ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Options: &api.Options{
				Temperature: temperature,
				NumPredict:  maxTokens,
			},
		})
	case ProviderArk:
		chatModel, err = ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating %s chat model: %w", provider, err)
	}

	logger.Info().
		Str("provider", provider).
		Str("model", cfg.Model).
		Msg("Chat model initialized")

	return chatModel, nil
}
