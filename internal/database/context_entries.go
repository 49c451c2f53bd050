package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmind/taskmind/internal/models"
)

// ContextEntryRepository handles context entry database operations
type ContextEntryRepository struct {
	db *DB
}

// NewContextEntryRepository creates a new context entry repository
func NewContextEntryRepository(db *DB) *ContextEntryRepository {
	return &ContextEntryRepository{db: db}
}

// Create creates a new context entry
func (r *ContextEntryRepository) Create(ctx context.Context, entry *models.ContextEntry) error {
	query := `
		INSERT INTO context_entries (id, user_id, content, source_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Content,
		entry.SourceType,
		time.Now(),
	).Scan(&entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create context entry: %w", err)
	}

	return nil
}

// GetByID retrieves a context entry by ID
func (r *ContextEntryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ContextEntry, error) {
	entry := &models.ContextEntry{}
	query := `
		SELECT id, user_id, content, source_type, created_at
		FROM context_entries
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Content,
		&entry.SourceType,
		&entry.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("context entry not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get context entry: %w", err)
	}

	return entry, nil
}

// GetByUserID retrieves a user's context entries, newest first
func (r *ContextEntryRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]models.ContextEntry, error) {
	query := `
		SELECT id, user_id, content, source_type, created_at
		FROM context_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []any{userID}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query context entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ContextEntry
	for rows.Next() {
		var entry models.ContextEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Content,
			&entry.SourceType,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan context entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating context entries: %w", err)
	}

	return entries, nil
}

// Delete deletes a context entry by ID
func (r *ContextEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM context_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete context entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("context entry not found")
	}

	return nil
}
