package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
)

// NamedGenerator pairs a provider with a label for logging.
type NamedGenerator struct {
	Name      string
	Generator TextGenerator
}

// FallbackService tries providers in order and moves to the next one on failure.
// Quota and connection failures are expected (free tiers, local Ollama not running)
// and are logged at a lower level than other provider errors.
type FallbackService struct {
	providers []NamedGenerator
}

// NewFallbackService creates a new fallback service over the given providers
func NewFallbackService(providers ...NamedGenerator) *FallbackService {
	var usable []NamedGenerator
	for _, p := range providers {
		if p.Generator != nil {
			usable = append(usable, p)
		}
	}
	return &FallbackService{providers: usable}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
		"overloaded",
	}
	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// Generate implements TextGenerator
func (f *FallbackService) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, string, error) {
	if len(f.providers) == 0 {
		return "", "", ErrGenerationUnavailable
	}

	var lastErr error
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}

		log.Printf("[AI] Trying %s for plan generation...", p.Name)
		text, model, err := p.Generator.Generate(ctx, systemPrompt, userPrompt)
		if err == nil {
			log.Printf("[AI] %s plan generation successful (model %s)", p.Name, model)
			return text, model, nil
		}

		switch {
		case isQuotaError(err):
			log.Printf("[AI] %s quota exhausted: %v, trying next provider", p.Name, err)
		case isConnectionError(err):
			log.Printf("[AI] %s connection failed: %v, trying next provider", p.Name, err)
		default:
			log.Printf("[AI] %s error: %v, trying next provider", p.Name, err)
		}
		lastErr = fmt.Errorf("%s: %w", p.Name, err)
	}

	return "", "", fmt.Errorf("all AI providers failed: %w", lastErr)
}
