package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/models"
)

const (
	// maxSuggestionTokens caps the full-suggestion call output
	maxSuggestionTokens = 400

	// deadlineLayout is the exact timestamp format the model is asked for
	deadlineLayout = "2006-01-02 15:04:05"

	// DefaultPriorityScore is the neutral midpoint used when the model
	// returns no usable score
	DefaultPriorityScore = 50
	// MinPriorityScore and MaxPriorityScore bound every orchestrated score
	MinPriorityScore = 1
	MaxPriorityScore = 100

	// defaultDeadlineDays and defaultDeadlineHour define the fallback
	// deadline: three days out at end of business
	defaultDeadlineDays = 3
	defaultDeadlineHour = 17
)

// TaskDetails are the task fields the orchestrator builds its prompt from
type TaskDetails struct {
	Title       string
	Description string
	Category    string
}

// Suggester orchestrates the suggestion pipeline: summarize context, build
// the prompt, invoke the LLM, then validate and default every field. It
// never returns an error; under total LLM failure the result degrades to
// deterministic defaults.
type Suggester struct {
	client     Client
	summarizer *Summarizer
	model      string
	logger     *zap.Logger
	now        func() time.Time
}

// NewSuggester creates a new suggestion orchestrator
func NewSuggester(client Client, summarizer *Summarizer, model string, logger *zap.Logger) *Suggester {
	return &Suggester{
		client:     client,
		summarizer: summarizer,
		model:      model,
		logger:     logger,
		now:        time.Now,
	}
}

// Suggest computes a validated suggestion for the given task
func (s *Suggester) Suggest(ctx context.Context, details TaskDetails, entries []models.ContextEntry, preferences map[string]any, taskLoad int) *models.Suggestion {
	contextSummary := s.summarizer.Summarize(ctx, entries)
	prompt := s.buildSuggestionPrompt(details, contextSummary, preferences, taskLoad)

	fields := map[string]any{}
	var rawPayload json.RawMessage

	raw, err := s.client.Invoke(ctx, prompt, s.model, maxSuggestionTokens)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("suggestion_call_failed", zap.Error(err))
		}
	} else {
		decoded, decodeErr := decodeObject(raw)
		if decodeErr != nil {
			if s.logger != nil {
				s.logger.Warn("suggestion_decode_failed",
					zap.Error(decodeErr),
					zap.String("response_preview", SanitizeResponse(raw, false)),
				)
			}
			// Keep the undecodable text for diagnostics
			if quoted, marshalErr := json.Marshal(raw); marshalErr == nil {
				rawPayload = quoted
			}
		} else {
			fields = decoded
			if encoded, marshalErr := json.Marshal(decoded); marshalErr == nil {
				rawPayload = encoded
			}
		}
	}

	suggestion := &models.Suggestion{
		PriorityScore:       s.priorityScore(fields),
		Deadline:            s.deadline(fields),
		SuggestedCategory:   stringField(fields, "suggested_category", details.Category),
		EnhancedDescription: stringField(fields, "enhanced_description", details.Description),
		Recommendations:     stringList(fields["recommendations"]),
		Raw:                 rawPayload,
	}

	return suggestion
}

// priorityScore coerces the model's score to an integer clamped to [1,100],
// defaulting to the neutral midpoint when absent or unusable
func (s *Suggester) priorityScore(fields map[string]any) int {
	score, ok := coerceInt(fields["priority_score"])
	if !ok {
		return DefaultPriorityScore
	}
	if score < MinPriorityScore {
		return MinPriorityScore
	}
	if score > MaxPriorityScore {
		return MaxPriorityScore
	}
	return score
}

// deadline parses the model's deadline, discarding anything that does not
// match the requested format, and falls back to three days out at 17:00
func (s *Suggester) deadline(fields map[string]any) time.Time {
	if value, ok := fields["deadline"].(string); ok && value != "" {
		parsed, err := time.ParseInLocation(deadlineLayout, value, time.Local)
		if err == nil {
			return parsed
		}
		if s.logger != nil {
			s.logger.Warn("unparseable_suggested_deadline",
				zap.String("deadline", SanitizeResponse(value, false)),
			)
		}
	}
	return s.defaultDeadline()
}

func (s *Suggester) defaultDeadline() time.Time {
	d := s.now().AddDate(0, 0, defaultDeadlineDays)
	return time.Date(d.Year(), d.Month(), d.Day(), defaultDeadlineHour, 0, 0, 0, d.Location())
}

// coerceInt converts decoded JSON values (numbers or numeric strings) to int
func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		trimmed := strings.TrimSpace(n)
		if i, err := strconv.Atoi(trimmed); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// buildSuggestionPrompt embeds the task fields, context summary, user
// preferences and workload together with the scoring rubric the model must
// apply
func (s *Suggester) buildSuggestionPrompt(details TaskDetails, contextSummary string, preferences map[string]any, taskLoad int) string {
	category := details.Category
	if category == "" {
		category = "Uncategorized"
	}

	prefsJSON, err := json.Marshal(preferences)
	if err != nil {
		prefsJSON = []byte("{}")
	}

	prompt := fmt.Sprintf(`Given the following task details, daily context, user preferences, and current task load, provide AI-powered suggestions.
The output should be a JSON object with the following keys:
- "priority_score": An integer from 1 to 100 (100 being highest priority), reflecting urgency and importance.
- "deadline": A suggested deadline in YYYY-MM-DD HH:MM:SS format, or null if no clear deadline can be inferred.
- "suggested_category": A concise suggested category or tag for the task (e.g., 'Work', 'Personal', 'Finance', 'Health', 'Shopping').
- "enhanced_description": An improved and more detailed task description, incorporating relevant context-aware details.
- "recommendations": A list of short, actionable recommendations or sub-tasks related to the main task.

Task Title: %s
Task Description: %s
Existing Category: %s

Daily Context Summary:
%s

User Preferences: %s
Current Task Load: %d pending tasks`,
		details.Title, details.Description, category, contextSummary, prefsJSON, taskLoad)

	prompt += `

Consider the following when generating suggestions:
- Urgency: Look for keywords like "urgent", "deadline", "ASAP", dates, or implied timeframes in context.
- Importance: Identify key entities, people, or projects mentioned.
- Complexity: Estimate effort based on description.
- Workload: Suggest realistic deadlines given the current task load.
- Contextual Relevance: Integrate details from the daily context into the enhanced description.
- Categorization: Suggest a category that best fits the task and context.
- Default Deadline: If no clear deadline is inferred, suggest a reasonable default, like 3 days from now, at a standard end-of-day time (e.g., 5 PM).`

	return prompt
}
