package models

import (
	"time"

	"github.com/google/uuid"
)

// UserBreakMinutes is the fixed length of a user-declared break.
const UserBreakMinutes = 30

// Break is a user-declared pause pinned to a clock time
type Break struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Start     string    `json:"start"` // "HH:MM" or RFC 3339 date-time
	Type      BreakType `json:"type"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}
