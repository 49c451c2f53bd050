package ai

import (
	"context"
	"fmt"
)

// maxAnalysisTokens caps the daily-context analysis call output
const maxAnalysisTokens = 300

// ContextInsights is the structured result of analyzing a block of daily
// context (messages, emails, notes).
type ContextInsights struct {
	Entities       []string `json:"entities"`
	PotentialTasks []string `json:"potential_tasks"`
	UrgentKeywords []string `json:"urgent_keywords"`
	Sentiment      string   `json:"sentiment"`
	Summary        string   `json:"summary"`
}

// AnalyzeDailyContext extracts entities, potential tasks, urgent keywords
// and sentiment from free-form daily context. Unlike Suggest, callers see
// failures: the result is advisory and there is no sensible default.
func (s *Suggester) AnalyzeDailyContext(ctx context.Context, content string) (*ContextInsights, error) {
	prompt := fmt.Sprintf(`Analyze the following daily context and extract key entities, potential tasks, urgent keywords, and general sentiment.
Summarize the context concisely, highlighting any commitments or important information.
Format the output as a JSON object with keys: "entities" (list of strings), "potential_tasks" (list of strings), "urgent_keywords" (list of strings), "sentiment" (string, e.g., 'positive', 'neutral', 'negative'), "summary" (string).

Daily Context:
%s`, content)

	raw, err := s.client.Invoke(ctx, prompt, s.summarizer.model, maxAnalysisTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze daily context: %w", err)
	}

	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	return &ContextInsights{
		Entities:       stringList(fields["entities"]),
		PotentialTasks: stringList(fields["potential_tasks"]),
		UrgentKeywords: stringList(fields["urgent_keywords"]),
		Sentiment:      stringField(fields, "sentiment", ""),
		Summary:        stringField(fields, "summary", ""),
	}, nil
}
