package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmind/taskmind/internal/models"
)

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, category_id, priority_score, deadline, status, suggestion, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	suggestionJSON, err := marshalSuggestion(task.Suggestion)
	if err != nil {
		return err
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.CategoryID,
		task.PriorityScore,
		nullTime(task.Deadline),
		task.Status,
		suggestionJSON,
		now,
		now,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by ID, joining the category name when set
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `
		SELECT t.id, t.user_id, t.title, t.description, t.category_id, c.name, t.priority_score, t.deadline, t.status, t.suggestion, t.created_at, t.updated_at
		FROM tasks t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1
	`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// GetByUserID retrieves all tasks for a user, optionally filtered by status
func (r *TaskRepository) GetByUserID(ctx context.Context, userID uuid.UUID, status *models.TaskStatus) ([]*models.Task, error) {
	query := `
		SELECT t.id, t.user_id, t.title, t.description, t.category_id, c.name, t.priority_score, t.deadline, t.status, t.suggestion, t.created_at, t.updated_at
		FROM tasks t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
	`
	args := []any{userID}

	if status != nil {
		query += " AND t.status = $2"
		args = append(args, string(*status))
	}

	query += " ORDER BY t.priority_score DESC, t.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Update updates an existing task
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, category_id = $4, priority_score = $5, deadline = $6, status = $7, suggestion = $8, updated_at = $9
		WHERE id = $1
		RETURNING updated_at
	`

	suggestionJSON, err := marshalSuggestion(task.Suggestion)
	if err != nil {
		return err
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.CategoryID,
		task.PriorityScore,
		nullTime(task.Deadline),
		task.Status,
		suggestionJSON,
		now,
	).Scan(&task.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("task not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// Delete deletes a task by ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("task not found")
	}

	return nil
}

// CountPendingByUser returns the user's current pending task load
func (r *TaskRepository) CountPendingByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = $2`

	err := r.db.QueryRowContext(ctx, query, userID, models.TaskStatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending tasks: %w", err)
	}

	return count, nil
}

// GetIDsByUserID returns the IDs of all non-completed tasks for a user,
// used when re-evaluating the user's whole task list
func (r *TaskRepository) GetIDsByUserID(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT id FROM tasks WHERE user_id = $1 AND status != $2 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID, models.TaskStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query task ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan task id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task ids: %w", err)
	}

	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var categoryName sql.NullString
	var deadline sql.NullTime
	var suggestionJSON []byte

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.CategoryID,
		&categoryName,
		&task.PriorityScore,
		&deadline,
		&task.Status,
		&suggestionJSON,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if categoryName.Valid {
		task.CategoryName = categoryName.String
	}
	if deadline.Valid {
		task.Deadline = &deadline.Time
	}
	if len(suggestionJSON) > 0 {
		suggestion := &models.Suggestion{}
		if err := json.Unmarshal(suggestionJSON, suggestion); err != nil {
			return nil, fmt.Errorf("failed to unmarshal suggestion: %w", err)
		}
		task.Suggestion = suggestion
	}

	return task, nil
}

func marshalSuggestion(s *models.Suggestion) (any, error) {
	if s == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal suggestion: %w", err)
	}
	return encoded, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
