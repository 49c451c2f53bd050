package config

import (
	"fmt"
	"os"
	"strconv"
)

// AI backend choices. The selected backend decides which LLM client the
// suggestion pipeline talks to.
const (
	AIChoiceOpenAI   = "openai"
	AIChoiceClaude   = "claude"
	AIChoiceLMStudio = "lm_studio"
)

// DefaultLMStudioBaseURL is the usual address of a local LM Studio server
const DefaultLMStudioBaseURL = "http://localhost:1234/v1"

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	FrontendURL      string
	JWTSecret        string
	AIAPIChoice      string
	OpenAIKey        string
	AnthropicKey     string
	LMStudioBaseURL  string
	AISuggestModel   string
	AISummaryModel   string
	RedisURL         string
	RateLimitRate    string
	EnableHSTS       bool
	RabbitMQURL      string
	RabbitMQPrefetch int
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		AIAPIChoice:      getEnv("AI_API_CHOICE", AIChoiceOpenAI),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
		LMStudioBaseURL:  getEnv("LM_STUDIO_BASE_URL", DefaultLMStudioBaseURL),
		AISuggestModel:   getEnv("AI_SUGGEST_MODEL", "gpt-4o-mini"),
		AISummaryModel:   getEnv("AI_SUMMARY_MODEL", "gpt-3.5-turbo"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RateLimitRate:    getEnv("RATE_LIMIT_RATE", "10-S"),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.AIAPIChoice {
	case AIChoiceOpenAI, AIChoiceClaude, AIChoiceLMStudio:
	default:
		return nil, fmt.Errorf("invalid AI_API_CHOICE: %s (must be 'openai', 'claude', or 'lm_studio')", cfg.AIAPIChoice)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
