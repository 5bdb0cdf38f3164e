package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pvtools/casedup/internal/config"
)

// NewModel builds a LanguageModel for the configured provider. Ollama is
// served through its OpenAI-compatible API rather than a dedicated client.
func NewModel(ctx context.Context, cfg config.LLMConfig) (LanguageModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "claude":
		return NewClaudeModel(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	case "openai":
		return NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	case "gemini":
		return NewGeminiModel(ctx, cfg.APIKey, cfg.Model)

	case "ollama":
		baseURL := strings.TrimRight(cfg.BaseURL, "/")
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = baseURL + "/v1"
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			// Ollama ignores the key but the client requires one.
			apiKey = "ollama"
		}
		return NewOpenAIModel(apiKey, cfg.Model, baseURL), nil

	case "":
		return nil, fmt.Errorf("llm provider not configured")

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
