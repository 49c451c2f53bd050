package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/config"
)

const (
	// SystemMessage is the fixed system instruction sent with every call
	SystemMessage = "You are a smart task management assistant. Provide responses in JSON format."
	// Temperature allows some variability while keeping categorization repeatable
	Temperature = 0.7
	// DefaultTimeout bounds every outbound LLM call
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// Client invokes a chat-style completion against an LLM backend. The prompt
// is sent as the user message; the response is raw text expected to be JSON.
type Client interface {
	Invoke(ctx context.Context, prompt string, model string, maxTokens int) (string, error)
}

// ChatClient implements Client against any OpenAI-compatible backend
// (the hosted API or a local LM Studio server).
type ChatClient struct {
	client      openai.Client
	initialized bool
	logger      *zap.Logger
	debugMode   bool
}

// NewOpenAIClient creates a client for the hosted OpenAI API. A missing API
// key produces a degraded client that logs a warning and fails every Invoke
// with ErrClientUninitialized instead of crashing at startup.
func NewOpenAIClient(apiKey string, logger *zap.Logger, debugMode bool) *ChatClient {
	if apiKey == "" {
		if logger != nil {
			logger.Warn("openai_api_key_missing_client_degraded")
		}
		return &ChatClient{logger: logger, debugMode: debugMode}
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	)

	return &ChatClient{
		client:      client,
		initialized: true,
		logger:      logger,
		debugMode:   debugMode,
	}
}

// NewLMStudioClient creates a client for a local LM Studio server. LM Studio
// exposes an OpenAI-compatible API and accepts any API key.
func NewLMStudioClient(baseURL string, logger *zap.Logger, debugMode bool) *ChatClient {
	if baseURL == "" {
		baseURL = config.DefaultLMStudioBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey("lm-studio-key"),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &ChatClient{
		client:      client,
		initialized: true,
		logger:      logger,
		debugMode:   debugMode,
	}
}

// Invoke sends the prompt and returns the raw completion text
func (c *ChatClient) Invoke(ctx context.Context, prompt string, model string, maxTokens int) (string, error) {
	if !c.initialized {
		return "", ErrClientUninitialized
	}

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemMessage),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(Temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	}

	if c.logger != nil && c.debugMode {
		c.logger.Debug("llm_api_request",
			zap.String("model", model),
			zap.Int("max_tokens", maxTokens),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
		)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)

	if err != nil {
		if c.logger != nil && c.debugMode {
			c.logger.Debug("llm_api_error",
				zap.String("model", model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", &CallError{Err: apiErr}
		}
		return "", &CallError{Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &CallError{Err: errors.New(ErrNoChoicesInResponse)}
	}

	content := resp.Choices[0].Message.Content

	if c.logger != nil && c.debugMode {
		c.logger.Debug("llm_api_response",
			zap.String("model", model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return content, nil
}

// claudeClient is a declared backend variant without a working
// implementation. Invoking it fails explicitly rather than no-opping.
type claudeClient struct{}

func (c *claudeClient) Invoke(ctx context.Context, prompt string, model string, maxTokens int) (string, error) {
	return "", ErrBackendNotImplemented
}

// NewClient selects a backend variant from configuration
func NewClient(cfg *config.Config, logger *zap.Logger, debugMode bool) (Client, error) {
	switch cfg.AIAPIChoice {
	case config.AIChoiceOpenAI:
		return NewOpenAIClient(cfg.OpenAIKey, logger, debugMode), nil
	case config.AIChoiceLMStudio:
		return NewLMStudioClient(cfg.LMStudioBaseURL, logger, debugMode), nil
	case config.AIChoiceClaude:
		if cfg.AnthropicKey == "" && logger != nil {
			logger.Warn("anthropic_api_key_missing")
		}
		return &claudeClient{}, nil
	default:
		return nil, fmt.Errorf("invalid AI backend choice: %s", cfg.AIAPIChoice)
	}
}
