package models

import (
	"encoding/json"
	"time"
)

// Suggestion is the validated output of the AI suggestion pipeline.
// After orchestration PriorityScore is always in [1,100], Deadline is never
// zero and Recommendations is never nil, regardless of what the model
// returned. Raw keeps the decoded model output for diagnostics.
type Suggestion struct {
	PriorityScore       int             `json:"priority_score"`
	Deadline            time.Time       `json:"deadline"`
	SuggestedCategory   string          `json:"suggested_category,omitempty"`
	EnhancedDescription string          `json:"enhanced_description,omitempty"`
	Recommendations     []string        `json:"recommendations"`
	Raw                 json.RawMessage `json:"raw,omitempty"`
}
