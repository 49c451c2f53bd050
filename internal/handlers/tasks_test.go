package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/taskmind/taskmind/internal/models"
	"github.com/taskmind/taskmind/internal/queue"
)

// decodeEnvelope unpacks the standard response envelope and re-decodes the
// data payload into out
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, got body %s", w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
}

func TestCreateTask_RunsPipelineAndPersists(t *testing.T) {
	t.Parallel()

	user := testUser()
	taskRepo := newMockTaskRepo()
	handler := newTestTaskHandler(taskRepo, newMockCategoryRepo(), newMockContextRepo(), nil, nil)

	body := strings.NewReader(`{"title": "Pay rent", "description": "before the 5th"}`)
	req := authedRequest("POST", "/api/v1/tasks", body, user)
	w := httptest.NewRecorder()
	handler.CreateTask(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var task models.Task
	decodeEnvelope(t, w, &task)

	if task.Title != "Pay rent" {
		t.Errorf("expected title to round-trip, got %q", task.Title)
	}
	if task.PriorityScore != 70 {
		t.Errorf("expected enriched priority 70, got %d", task.PriorityScore)
	}
	if task.Suggestion == nil {
		t.Error("expected suggestion to be attached")
	}
	if task.Deadline == nil {
		t.Error("expected deadline to be set by the pipeline")
	}

	// Persisted once on create and again after enrichment
	if taskRepo.creates != 1 {
		t.Errorf("expected 1 create, got %d", taskRepo.creates)
	}
	if taskRepo.updates != 1 {
		t.Errorf("expected 1 update after enrichment, got %d", taskRepo.updates)
	}

	stored, err := taskRepo.GetByID(req.Context(), task.ID)
	if err != nil {
		t.Fatalf("task not persisted: %v", err)
	}
	if stored.PriorityScore != 70 {
		t.Errorf("expected persisted priority 70, got %d", stored.PriorityScore)
	}
}

func TestCreateTask_PipelineFailureStillCreates(t *testing.T) {
	t.Parallel()

	user := testUser()
	taskRepo := newMockTaskRepo()
	contextRepo := newMockContextRepo()
	contextRepo.listErr = fmt.Errorf("connection refused")
	handler := newTestTaskHandler(taskRepo, newMockCategoryRepo(), contextRepo, nil, nil)

	body := strings.NewReader(`{"title": "Call dentist"}`)
	req := authedRequest("POST", "/api/v1/tasks", body, user)
	w := httptest.NewRecorder()
	handler.CreateTask(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201 despite enrichment failure, got %d", w.Code)
	}

	var task models.Task
	decodeEnvelope(t, w, &task)
	if task.Suggestion != nil {
		t.Error("expected no suggestion when enrichment failed")
	}
	if taskRepo.creates != 1 {
		t.Errorf("expected task to be created, got %d creates", taskRepo.creates)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "missing title",
			body: `{"description": "no title"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "title too long",
			body: fmt.Sprintf(`{"title": %q}`, strings.Repeat("a", MaxTitleLength+1)),
			want: http.StatusBadRequest,
		},
		{
			name: "invalid json",
			body: `{"title": `,
			want: http.StatusBadRequest,
		},
		{
			name: "title only control characters",
			body: "{\"title\": \"\\u0000\\u0001\"}",
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := newTestTaskHandler(newMockTaskRepo(), newMockCategoryRepo(), newMockContextRepo(), nil, nil)

			req := authedRequest("POST", "/api/v1/tasks", strings.NewReader(tt.body), testUser())
			w := httptest.NewRecorder()
			handler.CreateTask(w, req)

			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateTask_UnknownCategory(t *testing.T) {
	t.Parallel()

	handler := newTestTaskHandler(newMockTaskRepo(), newMockCategoryRepo(), newMockContextRepo(), nil, nil)

	body := strings.NewReader(fmt.Sprintf(`{"title": "task", "category_id": %q}`, uuid.New()))
	req := authedRequest("POST", "/api/v1/tasks", body, testUser())
	w := httptest.NewRecorder()
	handler.CreateTask(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown category, got %d", w.Code)
	}
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	user := testUser()
	taskRepo := newMockTaskRepo()
	handler := newTestTaskHandler(taskRepo, newMockCategoryRepo(), newMockContextRepo(), nil, nil)

	t.Run("empty list is a list, not null", func(t *testing.T) {
		req := authedRequest("GET", "/api/v1/tasks", nil, user)
		w := httptest.NewRecorder()
		handler.ListTasks(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"data":[]`) {
			t.Errorf("expected empty list in body, got %s", w.Body.String())
		}
	})

	t.Run("invalid status filter", func(t *testing.T) {
		req := authedRequest("GET", "/api/v1/tasks?status=done", nil, user)
		w := httptest.NewRecorder()
		handler.ListTasks(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400 for invalid status, got %d", w.Code)
		}
	})

	t.Run("status filter applies", func(t *testing.T) {
		_ = taskRepo.Create(context.Background(), &models.Task{ID: uuid.New(), UserID: user.ID, Title: "a", Status: models.TaskStatusPending})
		_ = taskRepo.Create(context.Background(), &models.Task{ID: uuid.New(), UserID: user.ID, Title: "b", Status: models.TaskStatusCompleted})

		req := authedRequest("GET", "/api/v1/tasks?status=completed", nil, user)
		w := httptest.NewRecorder()
		handler.ListTasks(w, req)

		var list []models.Task
		decodeEnvelope(t, w, &list)
		if len(list) != 1 || list[0].Title != "b" {
			t.Errorf("expected only the completed task, got %+v", list)
		}
	})
}

func TestGetTask_Ownership(t *testing.T) {
	t.Parallel()

	owner := testUser()
	other := testUser()
	taskRepo := newMockTaskRepo()
	taskID := uuid.New()
	_ = taskRepo.Create(context.Background(), &models.Task{ID: taskID, UserID: owner.ID, Title: "mine", Status: models.TaskStatusPending})

	handler := newTestTaskHandler(taskRepo, newMockCategoryRepo(), newMockContextRepo(), nil, nil)

	tests := []struct {
		name string
		id   string
		user *models.User
		want int
	}{
		{name: "owner sees task", id: taskID.String(), user: owner, want: http.StatusOK},
		{name: "other user forbidden", id: taskID.String(), user: other, want: http.StatusForbidden},
		{name: "unknown task", id: uuid.New().String(), user: owner, want: http.StatusNotFound},
		{name: "malformed id", id: "not-a-uuid", user: owner, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := authedRequest("GET", "/api/v1/tasks/"+tt.id, nil, tt.user)
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})
			w := httptest.NewRecorder()
			handler.GetTask(w, req)

			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestCompleteTask(t *testing.T) {
	t.Parallel()

	user := testUser()
	taskRepo := newMockTaskRepo()
	taskID := uuid.New()
	_ = taskRepo.Create(context.Background(), &models.Task{ID: taskID, UserID: user.ID, Title: "finish me", Status: models.TaskStatusPending})

	handler := newTestTaskHandler(taskRepo, newMockCategoryRepo(), newMockContextRepo(), nil, nil)

	req := authedRequest("POST", "/api/v1/tasks/"+taskID.String()+"/complete", nil, user)
	req = mux.SetURLVars(req, map[string]string{"id": taskID.String()})
	w := httptest.NewRecorder()
	handler.CompleteTask(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	stored, _ := taskRepo.GetByID(context.Background(), taskID)
	if stored.Status != models.TaskStatusCompleted {
		t.Errorf("expected status completed, got %s", stored.Status)
	}
}

func TestReEvaluateTask_Sync(t *testing.T) {
	t.Parallel()

	user := testUser()
	taskRepo := newMockTaskRepo()
	taskID := uuid.New()
	_ = taskRepo.Create(context.Background(), &models.Task{ID: taskID, UserID: user.ID, Title: "stale", Status: models.TaskStatusPending, PriorityScore: 10})

	handler := newTestTaskHandler(taskRepo, newMockCategoryRepo(), newMockContextRepo(), nil, nil)

	req := authedRequest("POST", "/api/v1/tasks/"+taskID.String()+"/re-evaluate", nil, user)
	req = mux.SetURLVars(req, map[string]string{"id": taskID.String()})
	w := httptest.NewRecorder()
	handler.ReEvaluateTask(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var task models.Task
	decodeEnvelope(t, w, &task)
	if task.PriorityScore != 70 {
		t.Errorf("expected refreshed priority 70, got %d", task.PriorityScore)
	}

	stored, _ := taskRepo.GetByID(context.Background(), taskID)
	if stored.PriorityScore != 70 {
		t.Errorf("expected persisted priority 70, got %d", stored.PriorityScore)
	}
}

func TestReEvaluateTaskAsync(t *testing.T) {
	t.Parallel()

	user := testUser()
	taskRepo := newMockTaskRepo()
	taskID := uuid.New()
	_ = taskRepo.Create(context.Background(), &models.Task{ID: taskID, UserID: user.ID, Title: "later", Status: models.TaskStatusPending})

	t.Run("queues a job", func(t *testing.T) {
		t.Parallel()

		jobQueue := &mockJobQueue{}
		handler := newTestTaskHandler(taskRepo, newMockCategoryRepo(), newMockContextRepo(), nil, jobQueue)

		req := authedRequest("POST", "/api/v1/tasks/"+taskID.String()+"/re-evaluate-async", nil, user)
		req = mux.SetURLVars(req, map[string]string{"id": taskID.String()})
		w := httptest.NewRecorder()
		handler.ReEvaluateTaskAsync(w, req)

		if w.Code != http.StatusAccepted {
			t.Fatalf("expected status 202, got %d", w.Code)
		}
		if len(jobQueue.enqueued) != 1 {
			t.Fatalf("expected 1 enqueued job, got %d", len(jobQueue.enqueued))
		}
		job := jobQueue.enqueued[0]
		if job.Type != queue.JobTypeSuggestTask {
			t.Errorf("expected suggest_task job, got %s", job.Type)
		}
		if job.TaskID == nil || *job.TaskID != taskID {
			t.Errorf("expected job for task %s, got %v", taskID, job.TaskID)
		}
	})

	t.Run("queue not configured", func(t *testing.T) {
		t.Parallel()

		handler := newTestTaskHandler(taskRepo, newMockCategoryRepo(), newMockContextRepo(), nil, nil)

		req := authedRequest("POST", "/api/v1/tasks/"+taskID.String()+"/re-evaluate-async", nil, user)
		req = mux.SetURLVars(req, map[string]string{"id": taskID.String()})
		w := httptest.NewRecorder()
		handler.ReEvaluateTaskAsync(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503 without a queue, got %d", w.Code)
		}
	})
}

func TestReEvaluateAll(t *testing.T) {
	t.Parallel()

	user := testUser()
	jobQueue := &mockJobQueue{}
	handler := newTestTaskHandler(newMockTaskRepo(), newMockCategoryRepo(), newMockContextRepo(), nil, jobQueue)

	req := authedRequest("POST", "/api/v1/tasks/re-evaluate", nil, user)
	w := httptest.NewRecorder()
	handler.ReEvaluateAll(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}
	if len(jobQueue.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(jobQueue.enqueued))
	}
	job := jobQueue.enqueued[0]
	if job.Type != queue.JobTypeReprocessUser {
		t.Errorf("expected reprocess_user job, got %s", job.Type)
	}
	if job.UserID != user.ID {
		t.Errorf("expected job for user %s, got %s", user.ID, job.UserID)
	}
	if job.TaskID != nil {
		t.Errorf("expected no task id on a reprocess job, got %v", job.TaskID)
	}
}

func TestTaskRoutes_Unauthenticated(t *testing.T) {
	t.Parallel()

	handler := newTestTaskHandler(newMockTaskRepo(), newMockCategoryRepo(), newMockContextRepo(), nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/tasks", nil)
	w := httptest.NewRecorder()
	handler.ListTasks(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without a user, got %d", w.Code)
	}
}
