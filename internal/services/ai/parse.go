package ai

import (
	"encoding/json"
	"strings"
)

// decodeObject parses a raw LLM response into a generic JSON object. Models
// occasionally wrap the JSON in prose or markdown fences, so on an initial
// failure the outermost {...} block is extracted and retried. A failure is
// returned as a *DecodeError carrying the original text.
func decodeObject(raw string) (map[string]any, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, &DecodeError{Raw: raw, Err: err}
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &fields); err2 != nil {
			return nil, &DecodeError{Raw: raw, Err: err}
		}
	}
	return fields, nil
}

// stringField extracts a non-empty string value, falling back otherwise.
func stringField(fields map[string]any, key, fallback string) string {
	if v, ok := fields[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// stringList coerces a decoded JSON value into a list of strings. Anything
// that is not a list (including a bare string) yields an empty list.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
