package ai

import (
	"context"
	"errors"
)

// ErrGenerationUnavailable is returned when no AI provider credential is configured.
// Callers route to the template plan instead of surfacing it.
var ErrGenerationUnavailable = errors.New("plan generation unavailable: no AI provider configured")

// TextGenerator produces a completion for a system + user prompt pair.
// Implement this interface to add new AI providers (Gemini, Ollama, Anthropic, etc.)
type TextGenerator interface {
	// Generate returns the raw completion text and the model that produced it.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (text string, model string, err error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini    ProviderType = "gemini"
	ProviderOllama    ProviderType = "ollama"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderAuto      ProviderType = "auto"
)
