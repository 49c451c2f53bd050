package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskmind/taskmind/internal/models"
)

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, status *models.TaskStatus) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountPendingByUser(ctx context.Context, userID uuid.UUID) (int, error)
	GetIDsByUserID(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// CategoryRepositoryInterface defines the interface for category repository operations
type CategoryRepositoryInterface interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetVisibleByUser(ctx context.Context, userID uuid.UUID) ([]*models.Category, error)
	GetVisibleByName(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

// ContextEntryRepositoryInterface defines the interface for context entry repository operations
type ContextEntryRepositoryInterface interface {
	Create(ctx context.Context, entry *models.ContextEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ContextEntry, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]models.ContextEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetOrCreateByEmail(ctx context.Context, email string, name *string) (*models.User, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface         = (*TaskRepository)(nil)
	_ CategoryRepositoryInterface     = (*CategoryRepository)(nil)
	_ ContextEntryRepositoryInterface = (*ContextEntryRepository)(nil)
	_ UserRepositoryInterface         = (*UserRepository)(nil)
)
