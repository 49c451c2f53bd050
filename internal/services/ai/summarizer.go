package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/models"
)

const (
	// NoContextFallback is returned when a user has no context entries
	NoContextFallback = "No daily context available."

	// maxSummaryTokens caps the summarization call output
	maxSummaryTokens = 150
	// maxRawContextChars is how much raw context the fallback summary keeps
	maxRawContextChars = 200
)

// Summarizer condenses a user's context entries into a short summary via one
// LLM call. It never fails: when the call errors or returns no summary, a
// deterministic truncation of the raw context is used instead.
type Summarizer struct {
	client Client
	model  string
	logger *zap.Logger
}

// NewSummarizer creates a new context summarizer
func NewSummarizer(client Client, model string, logger *zap.Logger) *Summarizer {
	return &Summarizer{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Summarize returns a summary of the given context entries. Entries are
// rendered in input order; an empty slice short-circuits without any call.
func (s *Summarizer) Summarize(ctx context.Context, entries []models.ContextEntry) string {
	if len(entries) == 0 {
		return NoContextFallback
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s", entry.SourceType, entry.Content))
	}
	combined := strings.Join(lines, "\n")

	prompt := fmt.Sprintf(`Summarize the following daily context in a concise manner, highlighting any urgent matters, commitments, or schedule conflicts.
Respond with a JSON object with a single key "summary" (string).

Context:
%s`, combined)

	raw, err := s.client.Invoke(ctx, prompt, s.model, maxSummaryTokens)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("context_summary_call_failed", zap.Error(err))
		}
		return fallbackSummary(combined)
	}

	fields, err := decodeObject(raw)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("context_summary_decode_failed", zap.Error(err))
		}
		return fallbackSummary(combined)
	}

	if summary, ok := fields["summary"].(string); ok && summary != "" {
		return summary
	}
	return fallbackSummary(combined)
}

// fallbackSummary keeps the head of the raw context with an ellipsis marker.
// Truncation counts runes so multibyte content is never cut mid-character.
func fallbackSummary(combined string) string {
	runes := []rune(combined)
	if len(runes) > maxRawContextChars {
		combined = string(runes[:maxRawContextChars])
	}
	return combined + "..."
}
