package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/models"
	"github.com/taskmind/taskmind/internal/services/ai"
)

// mockAnalyzer scripts the ad-hoc analysis call
type mockAnalyzer struct {
	insights *ai.ContextInsights
	err      error
	content  string
}

var _ ContextAnalyzer = (*mockAnalyzer)(nil)

func (m *mockAnalyzer) AnalyzeDailyContext(ctx context.Context, content string) (*ai.ContextInsights, error) {
	m.content = content
	if m.err != nil {
		return nil, m.err
	}
	return m.insights, nil
}

func TestCreateContext(t *testing.T) {
	t.Parallel()

	t.Run("defaults source type to note", func(t *testing.T) {
		t.Parallel()

		user := testUser()
		contextRepo := newMockContextRepo()
		handler := NewContextHandler(contextRepo, &mockAnalyzer{}, zap.NewNop())

		req := authedRequest("POST", "/api/v1/contexts", strings.NewReader(`{"content": "Standup moved to 10am"}`), user)
		w := httptest.NewRecorder()
		handler.CreateContext(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		var entry models.ContextEntry
		decodeEnvelope(t, w, &entry)
		if entry.SourceType != "note" {
			t.Errorf("expected default source type note, got %q", entry.SourceType)
		}
		if entry.UserID != user.ID {
			t.Errorf("expected entry owned by %s, got %s", user.ID, entry.UserID)
		}
	})

	t.Run("keeps explicit source type", func(t *testing.T) {
		t.Parallel()

		handler := NewContextHandler(newMockContextRepo(), &mockAnalyzer{}, zap.NewNop())

		req := authedRequest("POST", "/api/v1/contexts", strings.NewReader(`{"content": "Invoice due", "source_type": "email"}`), testUser())
		w := httptest.NewRecorder()
		handler.CreateContext(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", w.Code)
		}

		var entry models.ContextEntry
		decodeEnvelope(t, w, &entry)
		if entry.SourceType != "email" {
			t.Errorf("expected source type email, got %q", entry.SourceType)
		}
	})

	t.Run("rejects empty content", func(t *testing.T) {
		t.Parallel()

		handler := NewContextHandler(newMockContextRepo(), &mockAnalyzer{}, zap.NewNop())

		req := authedRequest("POST", "/api/v1/contexts", strings.NewReader(`{"content": ""}`), testUser())
		w := httptest.NewRecorder()
		handler.CreateContext(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func TestListContexts_EmptyIsList(t *testing.T) {
	t.Parallel()

	handler := NewContextHandler(newMockContextRepo(), &mockAnalyzer{}, zap.NewNop())

	req := authedRequest("GET", "/api/v1/contexts", nil, testUser())
	w := httptest.NewRecorder()
	handler.ListContexts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Errorf("expected empty list in body, got %s", w.Body.String())
	}
}

func TestDeleteContext_Ownership(t *testing.T) {
	t.Parallel()

	owner := testUser()
	other := testUser()
	contextRepo := newMockContextRepo()
	entryID := uuid.New()
	_ = contextRepo.Create(context.Background(), &models.ContextEntry{ID: entryID, UserID: owner.ID, Content: "secret"})

	handler := NewContextHandler(contextRepo, &mockAnalyzer{}, zap.NewNop())

	tests := []struct {
		name string
		id   string
		user *models.User
		want int
	}{
		{name: "other user forbidden", id: entryID.String(), user: other, want: http.StatusForbidden},
		{name: "unknown entry", id: uuid.New().String(), user: owner, want: http.StatusNotFound},
		{name: "malformed id", id: "nope", user: owner, want: http.StatusBadRequest},
		{name: "owner deletes", id: entryID.String(), user: owner, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest("DELETE", "/api/v1/contexts/"+tt.id, nil, tt.user)
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})
			w := httptest.NewRecorder()
			handler.DeleteContext(w, req)

			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAnalyzeContext(t *testing.T) {
	t.Parallel()

	t.Run("returns insights", func(t *testing.T) {
		t.Parallel()

		analyzer := &mockAnalyzer{
			insights: &ai.ContextInsights{
				Entities:       []string{"Dr. Smith"},
				PotentialTasks: []string{"Book follow-up appointment"},
				UrgentKeywords: []string{"asap"},
				Sentiment:      "neutral",
				Summary:        "Medical follow-up needed",
			},
		}
		handler := NewContextHandler(newMockContextRepo(), analyzer, zap.NewNop())

		req := authedRequest("POST", "/api/v1/contexts/analyze", strings.NewReader(`{"content": "Dr. Smith asked to book a follow-up asap"}`), testUser())
		w := httptest.NewRecorder()
		handler.AnalyzeContext(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var insights ai.ContextInsights
		decodeEnvelope(t, w, &insights)
		if insights.Summary != "Medical follow-up needed" {
			t.Errorf("expected summary to round-trip, got %q", insights.Summary)
		}
		if len(insights.PotentialTasks) != 1 {
			t.Errorf("expected 1 potential task, got %d", len(insights.PotentialTasks))
		}
		if analyzer.content == "" {
			t.Error("expected analyzer to receive the content")
		}
	})

	t.Run("surfaces llm failure as 502", func(t *testing.T) {
		t.Parallel()

		analyzer := &mockAnalyzer{err: fmt.Errorf("failed to analyze daily context: %w", ai.ErrClientUninitialized)}
		handler := NewContextHandler(newMockContextRepo(), analyzer, zap.NewNop())

		req := authedRequest("POST", "/api/v1/contexts/analyze", strings.NewReader(`{"content": "anything"}`), testUser())
		w := httptest.NewRecorder()
		handler.AnalyzeContext(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("expected status 502 on LLM failure, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Context analysis is currently unavailable") {
			t.Errorf("expected stable error message, got %s", w.Body.String())
		}
	})

	t.Run("rejects empty content", func(t *testing.T) {
		t.Parallel()

		handler := NewContextHandler(newMockContextRepo(), &mockAnalyzer{}, zap.NewNop())

		req := authedRequest("POST", "/api/v1/contexts/analyze", strings.NewReader(`{"content": "   "}`), testUser())
		w := httptest.NewRecorder()
		handler.AnalyzeContext(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}
