package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a task category. A nil UserID marks a global category visible
// to every user.
type Category struct {
	ID             uuid.UUID  `json:"id"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	Name           string     `json:"name"`
	UsageFrequency int        `json:"usage_frequency"`
	CreatedAt      time.Time  `json:"created_at"`
}
