package models

import (
	"time"

	"github.com/google/uuid"
)

// ContextEntry is a piece of daily context (email, note, message) owned by a
// user. The AI pipeline reads entries but never mutates them.
type ContextEntry struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Content    string    `json:"content"`
	SourceType string    `json:"source_type"`
	CreatedAt  time.Time `json:"created_at"`
}
