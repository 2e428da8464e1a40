package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/steventyyeh/kailendar-v2/pkg/ai"
	"github.com/steventyyeh/kailendar-v2/pkg/config"

	"github.com/gin-gonic/gin"
)

// RuntimeSettings holds generation settings that can change without a restart.
// The Ollama provider reads them through getters on every call.
type RuntimeSettings struct {
	mu            sync.RWMutex
	ollamaBaseURL string
	ollamaModel   string

	anthropicConfigured bool
	geminiConfigured    bool
	httpClient          *http.Client
}

// NewRuntimeSettings seeds runtime settings from static config
func NewRuntimeSettings(cfg *config.Config) *RuntimeSettings {
	return &RuntimeSettings{
		ollamaBaseURL:       cfg.OllamaBaseURL,
		ollamaModel:         cfg.OllamaModel,
		anthropicConfigured: cfg.AnthropicAPIKey != "",
		geminiConfigured:    cfg.GeminiApiKey != "",
		httpClient:          &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *RuntimeSettings) OllamaBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ollamaBaseURL
}

func (s *RuntimeSettings) OllamaModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ollamaModel == "" {
		return "llama3"
	}
	return s.ollamaModel
}

// NewPlanTextGenerator builds the generative provider chain with Ollama bound to the
// runtime settings. It returns nil when no provider is configured, so plans come from
// the template.
func NewPlanTextGenerator(cfg *config.Config, settings *RuntimeSettings) ai.TextGenerator {
	llm, err := ai.NewTextGenerator(ai.Config{
		Provider:         ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:     cfg.GeminiApiKey,
		AnthropicAPIKey:  cfg.AnthropicAPIKey,
		AnthropicModel:   cfg.AnthropicModel,
		GetOllamaBaseURL: settings.OllamaBaseURL,
		GetOllamaModel:   settings.OllamaModel,
	})
	if err != nil {
		return nil
	}
	return llm
}

type UpdateOllamaSettingsRequest struct {
	OllamaBaseURL string `json:"ollamaBaseUrl" binding:"required"`
	OllamaModel   string `json:"ollamaModel,omitempty"`
}

// GetGenerationSettings returns the current generation configuration
// GET /api/settings/generation
func (s *RuntimeSettings) GetGenerationSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ollamaBaseUrl":       s.OllamaBaseURL(),
		"ollamaModel":         s.OllamaModel(),
		"anthropicConfigured": s.anthropicConfigured,
		"geminiConfigured":    s.geminiConfigured,
	})
}

// UpdateOllamaSettings repoints Ollama at runtime
// PUT /api/settings/ollama
func (s *RuntimeSettings) UpdateOllamaSettings(c *gin.Context) {
	var req UpdateOllamaSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	baseURL := strings.TrimRight(strings.TrimSpace(req.OllamaBaseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ollamaBaseUrl must be an http(s) URL"})
		return
	}

	s.mu.Lock()
	s.ollamaBaseURL = baseURL
	if req.OllamaModel != "" {
		s.ollamaModel = req.OllamaModel
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":       "Ollama settings updated successfully",
		"ollamaBaseUrl": baseURL,
		"ollamaModel":   s.OllamaModel(),
	})
}

// TestOllamaConnection checks that an Ollama server answers
// POST /api/settings/ollama/test
func (s *RuntimeSettings) TestOllamaConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollamaBaseUrl"`
	}
	// An empty body tests the current setting.
	_ = c.ShouldBindJSON(&req)
	baseURL := strings.TrimRight(req.OllamaBaseURL, "/")
	if baseURL == "" {
		baseURL = s.OllamaBaseURL()
	}
	if baseURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"connected": false, "error": "no Ollama URL configured"})
		return
	}

	if err := s.pingOllama(c.Request.Context(), baseURL); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"connected": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "ollamaBaseUrl": baseURL})
}

func (s *RuntimeSettings) pingOllama(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}
