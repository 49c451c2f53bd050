package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taskmind/taskmind/internal/config"
)

// effectiveConfig mirrors config.Config for YAML output with secrets redacted
type effectiveConfig struct {
	DatabaseURL      string `yaml:"database_url"`
	ServerPort       string `yaml:"server_port"`
	FrontendURL      string `yaml:"frontend_url"`
	JWTSecret        string `yaml:"jwt_secret"`
	AIAPIChoice      string `yaml:"ai_api_choice"`
	OpenAIKey        string `yaml:"openai_api_key"`
	AnthropicKey     string `yaml:"anthropic_api_key"`
	LMStudioBaseURL  string `yaml:"lm_studio_base_url"`
	AISuggestModel   string `yaml:"ai_suggest_model"`
	AISummaryModel   string `yaml:"ai_summary_model"`
	RedisURL         string `yaml:"redis_url"`
	RateLimitRate    string `yaml:"rate_limit_rate"`
	EnableHSTS       bool   `yaml:"enable_hsts"`
	RabbitMQURL      string `yaml:"rabbitmq_url"`
	RabbitMQPrefetch int    `yaml:"rabbitmq_prefetch"`
	OTELEnabled      bool   `yaml:"otel_enabled"`
	OTELEndpoint     string `yaml:"otel_endpoint"`
}

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Print the configuration resolved from the environment as YAML. Secrets are redacted unless --show-secrets is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := effectiveConfig{
				DatabaseURL:      redact(cfg.DatabaseURL, showSecrets),
				ServerPort:       cfg.ServerPort,
				FrontendURL:      cfg.FrontendURL,
				JWTSecret:        redact(cfg.JWTSecret, showSecrets),
				AIAPIChoice:      cfg.AIAPIChoice,
				OpenAIKey:        redact(cfg.OpenAIKey, showSecrets),
				AnthropicKey:     redact(cfg.AnthropicKey, showSecrets),
				LMStudioBaseURL:  cfg.LMStudioBaseURL,
				AISuggestModel:   cfg.AISuggestModel,
				AISummaryModel:   cfg.AISummaryModel,
				RedisURL:         redact(cfg.RedisURL, showSecrets),
				RateLimitRate:    cfg.RateLimitRate,
				EnableHSTS:       cfg.EnableHSTS,
				RabbitMQURL:      redact(cfg.RabbitMQURL, showSecrets),
				RabbitMQPrefetch: cfg.RabbitMQPrefetch,
				OTELEnabled:      cfg.OTELEnabled,
				OTELEndpoint:     cfg.OTELEndpoint,
			}

			data, err := yaml.Marshal(out)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret values instead of redacting them")

	return cmd
}

func redact(value string, show bool) string {
	if value == "" {
		return ""
	}
	if show {
		return value
	}
	return "<redacted>"
}
