package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Task represents a task owned by a user. Priority, deadline and the
// suggestion payload are overwritten by the AI pipeline after creation and
// on explicit re-evaluation.
type Task struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	CategoryID    *uuid.UUID  `json:"category_id,omitempty"`
	CategoryName  string      `json:"category_name,omitempty"`
	PriorityScore int         `json:"priority_score"`
	Deadline      *time.Time  `json:"deadline,omitempty"`
	Status        TaskStatus  `json:"status"`
	Suggestion    *Suggestion `json:"suggestion,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
