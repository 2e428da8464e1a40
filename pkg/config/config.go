package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	FrontendURL string

	JWTSecret       string
	JWTAccessExpiry time.Duration

	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURI   string
	GoogleProjectID     string
	GooglePubSubTopic   string
	GoogleCredentials   string
	FirebaseCredentials string

	// AI providers. Generation falls back to a template plan when none is configured.
	AIProvider      string
	GeminiApiKey    string
	AnthropicAPIKey string
	AnthropicModel  string
	OllamaBaseURL   string
	OllamaModel     string

	GenerationWorkers         int
	GenerationPollInterval    time.Duration
	GenerationMaxAttempts     int
	CalendarReconcileInterval time.Duration
	CalendarSyncConcurrency   int
	DefaultTaskHour           int
	FreeTierActiveGoals       int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=kailendar port=5432 sslmode=disable"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry: getDuration("JWT_ACCESS_EXPIRY", 24*time.Hour),

		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:   getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/calendar/callback"),
		GoogleProjectID:     getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic:   getEnv("GOOGLE_PUBSUB_TOPIC", "goal-lifecycle"),
		GoogleCredentials:   getEnv("GOOGLE_CREDENTIALS", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		AIProvider:      getEnv("AI_PROVIDER", "auto"),
		GeminiApiKey:    getEnv("GEMINI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", ""),
		OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", ""),
		OllamaModel:     getEnv("OLLAMA_MODEL", ""),

		GenerationWorkers:         getInt("GENERATION_WORKERS", 2),
		GenerationPollInterval:    getDuration("GENERATION_POLL_INTERVAL", 15*time.Second),
		GenerationMaxAttempts:     getInt("GENERATION_MAX_ATTEMPTS", 3),
		CalendarReconcileInterval: getDuration("CALENDAR_RECONCILE_INTERVAL", 15*time.Minute),
		CalendarSyncConcurrency:   getInt("CALENDAR_SYNC_CONCURRENCY", 1),
		DefaultTaskHour:           getInt("DEFAULT_TASK_HOUR", 9),
		FreeTierActiveGoals:       getInt("FREE_TIER_ACTIVE_GOALS", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
