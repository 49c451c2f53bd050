package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/config"
	"github.com/taskmind/taskmind/internal/services/ai"
)

// NewTestAICmd creates the test-ai command
func NewTestAICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-ai",
		Short: "Test connectivity to the configured LLM backend",
		Long:  "Send a minimal prompt to the configured LLM backend and report the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Printf("Testing LLM backend: %s (model %s)\n", cfg.AIAPIChoice, cfg.AISuggestModel)

			client, err := ai.NewClient(cfg, zap.NewNop(), false)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			prompt := `Respond with a JSON object: {"status": "ok"}`
			response, err := client.Invoke(ctx, prompt, cfg.AISuggestModel, 50)
			if err != nil {
				if errors.Is(err, ai.ErrClientUninitialized) {
					return fmt.Errorf("client is not initialized; check the API key for %s", cfg.AIAPIChoice)
				}
				if errors.Is(err, ai.ErrBackendNotImplemented) {
					return fmt.Errorf("backend %s is not implemented yet", cfg.AIAPIChoice)
				}
				return fmt.Errorf("LLM call failed: %w", err)
			}

			fmt.Printf("Response: %s\n", response)
			fmt.Println("✓ LLM backend is reachable")
			return nil
		},
	}

	return cmd
}
