package tasks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/database"
	"github.com/taskmind/taskmind/internal/models"
	"github.com/taskmind/taskmind/internal/services/ai"
)

// contextEntryLimit caps how many recent context entries feed the pipeline
const contextEntryLimit = 20

// SuggestionProvider computes a validated suggestion for a task. Satisfied
// by ai.Suggester; an interface so tests can script the pipeline.
type SuggestionProvider interface {
	Suggest(ctx context.Context, details ai.TaskDetails, entries []models.ContextEntry, preferences map[string]any, taskLoad int) *models.Suggestion
}

// Service runs the suggestion pipeline against a task and folds the result
// back into the task record. It is shared by the HTTP handlers (synchronous
// enrichment on create and re-evaluate) and the queue worker.
type Service struct {
	tasks      database.TaskRepositoryInterface
	categories database.CategoryRepositoryInterface
	contexts   database.ContextEntryRepositoryInterface
	suggester  SuggestionProvider
	logger     *zap.Logger
}

// NewService creates a new task suggestion service
func NewService(
	tasks database.TaskRepositoryInterface,
	categories database.CategoryRepositoryInterface,
	contexts database.ContextEntryRepositoryInterface,
	suggester SuggestionProvider,
	logger *zap.Logger,
) *Service {
	return &Service{
		tasks:      tasks,
		categories: categories,
		contexts:   contexts,
		suggester:  suggester,
		logger:     logger,
	}
}

// Enrich runs the pipeline for the given task and applies the suggestion:
// priority score, deadline, category and the suggestion payload itself. The
// task is mutated but not persisted; callers decide when to save.
//
// Pipeline degradation never surfaces as an error here. Only repository
// failures do.
func (s *Service) Enrich(ctx context.Context, task *models.Task) error {
	entries, err := s.contexts.GetByUserID(ctx, task.UserID, contextEntryLimit)
	if err != nil {
		return fmt.Errorf("failed to load context entries: %w", err)
	}

	taskLoad, err := s.tasks.CountPendingByUser(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("failed to count pending tasks: %w", err)
	}

	details := ai.TaskDetails{
		Title:       task.Title,
		Description: task.Description,
		Category:    s.categoryName(ctx, task),
	}

	// Preferences are not stored yet; an empty map renders as {} in the prompt
	suggestion := s.suggester.Suggest(ctx, details, entries, map[string]any{}, taskLoad)

	task.PriorityScore = suggestion.PriorityScore
	deadline := suggestion.Deadline
	task.Deadline = &deadline
	task.Suggestion = suggestion

	s.applyCategory(ctx, task, suggestion.SuggestedCategory)

	s.logger.Info("task_enriched",
		zap.String("task_id", task.ID.String()),
		zap.Int("priority_score", suggestion.PriorityScore),
		zap.String("suggested_category", suggestion.SuggestedCategory),
	)

	return nil
}

// EnrichAndSave runs Enrich and persists the task
func (s *Service) EnrichAndSave(ctx context.Context, task *models.Task) error {
	if err := s.Enrich(ctx, task); err != nil {
		return err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return fmt.Errorf("failed to save enriched task: %w", err)
	}
	return nil
}

// EnrichByID loads a task, verifies ownership, then enriches and saves it
func (s *Service) EnrichByID(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task.UserID != userID {
		return nil, fmt.Errorf("task does not belong to user")
	}
	if err := s.EnrichAndSave(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// categoryName resolves the task's current category name for the prompt
func (s *Service) categoryName(ctx context.Context, task *models.Task) string {
	if task.CategoryName != "" {
		return task.CategoryName
	}
	if task.CategoryID == nil {
		return ""
	}
	category, err := s.categories.GetByID(ctx, *task.CategoryID)
	if err != nil {
		return ""
	}
	return category.Name
}

// applyCategory links the suggested category to the task, creating a
// user-owned category on first use and bumping usage on every hit. Failures
// here are logged, never fatal; the task keeps its current category.
func (s *Service) applyCategory(ctx context.Context, task *models.Task, suggested string) {
	if suggested == "" {
		return
	}
	if task.CategoryName == suggested {
		if task.CategoryID != nil {
			if err := s.categories.IncrementUsage(ctx, *task.CategoryID); err != nil {
				s.logger.Warn("category_usage_bump_failed", zap.Error(err))
			}
		}
		return
	}

	category, err := s.categories.GetVisibleByName(ctx, task.UserID, suggested)
	if err != nil {
		userID := task.UserID
		category = &models.Category{
			ID:     uuid.New(),
			UserID: &userID,
			Name:   suggested,
		}
		if err := s.categories.Create(ctx, category); err != nil {
			s.logger.Warn("suggested_category_create_failed",
				zap.String("name", suggested),
				zap.Error(err),
			)
			return
		}
	}

	task.CategoryID = &category.ID
	task.CategoryName = category.Name
	if err := s.categories.IncrementUsage(ctx, category.ID); err != nil {
		s.logger.Warn("category_usage_bump_failed", zap.Error(err))
	}
}
