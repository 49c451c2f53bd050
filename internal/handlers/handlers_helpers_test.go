package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/database"
	"github.com/taskmind/taskmind/internal/models"
	"github.com/taskmind/taskmind/internal/queue"
	"github.com/taskmind/taskmind/internal/request"
	"github.com/taskmind/taskmind/internal/services/ai"
	"github.com/taskmind/taskmind/internal/services/tasks"
)

// testUser returns a user for authenticated requests
func testUser() *models.User {
	return &models.User{
		ID:    uuid.New(),
		Email: "tester@example.com",
	}
}

// authedRequest builds a request with the user already resolved, as the auth
// middleware would leave it
func authedRequest(method, target string, body io.Reader, user *models.User) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(request.WithUser(req.Context(), user))
}

// mockTaskRepo is an in-memory task store
type mockTaskRepo struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]*models.Task
	creates int
	updates int

	createErr error
	updateErr error
}

var _ database.TaskRepositoryInterface = (*mockTaskRepo)(nil)

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[uuid.UUID]*models.Task)}
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.creates++
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task not found")
	}
	copied := *task
	return &copied, nil
}

func (m *mockTaskRepo) GetByUserID(ctx context.Context, userID uuid.UUID, status *models.TaskStatus) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Task
	for _, task := range m.tasks {
		if task.UserID != userID {
			continue
		}
		if status != nil && task.Status != *status {
			continue
		}
		copied := *task
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.tasks[task.ID]; !ok {
		return fmt.Errorf("task not found")
	}
	m.updates++
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return fmt.Errorf("task not found")
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockTaskRepo) CountPendingByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, task := range m.tasks {
		if task.UserID == userID && task.Status == models.TaskStatusPending {
			count++
		}
	}
	return count, nil
}

func (m *mockTaskRepo) GetIDsByUserID(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for _, task := range m.tasks {
		if task.UserID == userID && task.Status != models.TaskStatusCompleted {
			ids = append(ids, task.ID)
		}
	}
	return ids, nil
}

// mockCategoryRepo is an in-memory category store
type mockCategoryRepo struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*models.Category
}

var _ database.CategoryRepositoryInterface = (*mockCategoryRepo)(nil)

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[uuid.UUID]*models.Category)}
}

func (m *mockCategoryRepo) add(category *models.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[category.ID] = category
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok {
		return nil, fmt.Errorf("category not found")
	}
	copied := *category
	return &copied, nil
}

func (m *mockCategoryRepo) GetVisibleByUser(ctx context.Context, userID uuid.UUID) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Category
	for _, category := range m.categories {
		if category.UserID == nil || *category.UserID == userID {
			copied := *category
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockCategoryRepo) GetVisibleByName(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, category := range m.categories {
		if category.Name == name && (category.UserID == nil || *category.UserID == userID) {
			copied := *category
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("category not found")
}

func (m *mockCategoryRepo) Update(ctx context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[category.ID]; !ok {
		return fmt.Errorf("category not found")
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return fmt.Errorf("category not found")
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok {
		return fmt.Errorf("category not found")
	}
	category.UsageFrequency++
	return nil
}

// mockContextRepo is an in-memory context entry store
type mockContextRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*models.ContextEntry
	listErr error
}

var _ database.ContextEntryRepositoryInterface = (*mockContextRepo)(nil)

func newMockContextRepo() *mockContextRepo {
	return &mockContextRepo{entries: make(map[uuid.UUID]*models.ContextEntry)}
}

func (m *mockContextRepo) Create(ctx context.Context, entry *models.ContextEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *entry
	m.entries[entry.ID] = &copied
	return nil
}

func (m *mockContextRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ContextEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("context entry not found")
	}
	copied := *entry
	return &copied, nil
}

func (m *mockContextRepo) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]models.ContextEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.ContextEntry
	for _, entry := range m.entries {
		if entry.UserID == userID && len(out) < limit {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (m *mockContextRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return fmt.Errorf("context entry not found")
	}
	delete(m.entries, id)
	return nil
}

// mockSuggester scripts the suggestion pipeline
type mockSuggester struct {
	suggestion *models.Suggestion
}

var _ tasks.SuggestionProvider = (*mockSuggester)(nil)

func (m *mockSuggester) Suggest(ctx context.Context, details ai.TaskDetails, entries []models.ContextEntry, preferences map[string]any, taskLoad int) *models.Suggestion {
	if m.suggestion != nil {
		return m.suggestion
	}
	deadline := time.Now().Add(72 * time.Hour)
	return &models.Suggestion{
		PriorityScore:   70,
		Deadline:        deadline,
		Recommendations: []string{},
	}
}

// mockJobQueue records enqueued jobs
type mockJobQueue struct {
	mu         sync.Mutex
	enqueued   []*queue.Job
	enqueueErr error
}

var _ queue.JobQueue = (*mockJobQueue)(nil)

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, fmt.Errorf("not implemented in mock")
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(ctx context.Context) error { return nil }

// newTestTaskHandler wires a task handler backed by in-memory stores and a
// scripted pipeline
func newTestTaskHandler(taskRepo *mockTaskRepo, categoryRepo *mockCategoryRepo, contextRepo *mockContextRepo, suggester tasks.SuggestionProvider, jobQueue queue.JobQueue) *TaskHandler {
	logger := zap.NewNop()
	if suggester == nil {
		suggester = &mockSuggester{}
	}
	service := tasks.NewService(taskRepo, categoryRepo, contextRepo, suggester, logger)
	return NewTaskHandler(taskRepo, categoryRepo, service, jobQueue, logger)
}
