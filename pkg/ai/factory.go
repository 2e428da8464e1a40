package ai

import (
	"github.com/steventyyeh/kailendar-v2/pkg/gemini"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "anthropic", "ollama" or "auto"

	// Gemini config
	GeminiAPIKey string

	// Anthropic config
	AnthropicAPIKey string
	AnthropicModel  string

	// Ollama config. Getters let the settings API repoint Ollama at runtime.
	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// NewTextGenerator builds the provider chain for the configured preference.
// The preferred provider goes first, the remaining configured ones follow as fallbacks.
// It returns ErrGenerationUnavailable when nothing is configured.
func NewTextGenerator(cfg Config) (TextGenerator, error) {
	available := map[ProviderType]NamedGenerator{}
	if cfg.AnthropicAPIKey != "" {
		available[ProviderAnthropic] = NamedGenerator{Name: "Anthropic", Generator: NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel)}
	}
	if cfg.GeminiAPIKey != "" {
		available[ProviderGemini] = NamedGenerator{Name: "Gemini", Generator: gemini.NewGeminiService(cfg.GeminiAPIKey)}
	}
	if cfg.GetOllamaBaseURL != nil && cfg.GetOllamaBaseURL() != "" {
		getModel := cfg.GetOllamaModel
		if getModel == nil {
			getModel = func() string { return "llama3" }
		}
		available[ProviderOllama] = NamedGenerator{Name: "Ollama", Generator: NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, getModel)}
	}

	if len(available) == 0 {
		return nil, ErrGenerationUnavailable
	}

	order := []ProviderType{ProviderAnthropic, ProviderGemini, ProviderOllama}
	if cfg.Provider != "" && cfg.Provider != ProviderAuto {
		order = append([]ProviderType{cfg.Provider}, order...)
	}

	var chain []NamedGenerator
	seen := map[ProviderType]bool{}
	for _, p := range order {
		if seen[p] {
			continue
		}
		seen[p] = true
		if g, ok := available[p]; ok {
			chain = append(chain, g)
		}
	}

	return NewFallbackService(chain...), nil
}
