package ai

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    map[string]any
		wantErr bool
	}{
		{
			name: "plain object",
			raw:  `{"priority_score": 70}`,
			want: map[string]any{"priority_score": float64(70)},
		},
		{
			name: "markdown fenced object",
			raw:  "```json\n{\"summary\": \"ok\"}\n```",
			want: map[string]any{"summary": "ok"},
		},
		{
			name: "object wrapped in prose",
			raw:  `Here is the result: {"summary": "ok"} Hope that helps!`,
			want: map[string]any{"summary": "ok"},
		},
		{
			name:    "no json at all",
			raw:     "sorry, I cannot do that",
			wantErr: true,
		},
		{
			name:    "braces but invalid json",
			raw:     "{not valid}",
			wantErr: true,
		},
		{
			name:    "json array is not an object",
			raw:     `["a", "b"]`,
			wantErr: true,
		},
		{
			name:    "empty response",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := decodeObject(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var decodeErr *DecodeError
				if !errors.As(err, &decodeErr) {
					t.Fatalf("error type = %T, want *DecodeError", err)
				}
				if decodeErr.Raw != tt.raw {
					t.Errorf("DecodeError.Raw = %q, want original text", decodeErr.Raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("decoded = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStringField(t *testing.T) {
	t.Parallel()

	fields := map[string]any{
		"present": "value",
		"empty":   "",
		"number":  float64(3),
	}

	if got := stringField(fields, "present", "fb"); got != "value" {
		t.Errorf("present = %q", got)
	}
	if got := stringField(fields, "empty", "fb"); got != "fb" {
		t.Errorf("empty = %q, want fallback", got)
	}
	if got := stringField(fields, "number", "fb"); got != "fb" {
		t.Errorf("number = %q, want fallback", got)
	}
	if got := stringField(fields, "absent", "fb"); got != "fb" {
		t.Errorf("absent = %q, want fallback", got)
	}
}

func TestStringList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want []string
	}{
		{name: "string items", in: []any{"a", "b"}, want: []string{"a", "b"}},
		{name: "mixed items keep strings", in: []any{"a", float64(1), "b"}, want: []string{"a", "b"}},
		{name: "bare string", in: "not a list", want: []string{}},
		{name: "nil", in: nil, want: []string{}},
		{name: "object", in: map[string]any{"k": "v"}, want: []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := stringList(tt.in)
			if got == nil {
				t.Fatal("stringList returned nil")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("stringList(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
