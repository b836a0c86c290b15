package models

import (
	"time"

	"github.com/google/uuid"
)

// Task represents a single planned item
type Task struct {
	ID             uuid.UUID            `json:"id"`
	UserID         uuid.UUID            `json:"user_id"`
	Title          string               `json:"title"`
	Category       Category             `json:"category"`
	Duration       Duration             `json:"duration"`
	Completed      bool                 `json:"completed"`
	TimeSlot       *string              `json:"time_slot,omitempty"` // explicit start override
	ScheduledDay   ScheduledDay         `json:"scheduled_day"`
	OrderIndex     *int                 `json:"order_index,omitempty"`
	IsPriority     bool                 `json:"is_priority"`
	IsGrouped      bool                 `json:"is_grouped"`
	GroupID        *uuid.UUID           `json:"group_id,omitempty"`
	Classification ClassificationStatus `json:"classification"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
}

// Cell returns the (category, duration) pair the task is ordered in
func (t Task) Cell() Cell {
	return Cell{Category: t.Category, Duration: t.Duration}
}

// Schedulable reports whether the task takes part in grouping and cell ordering.
func (t Task) Schedulable() bool {
	return !t.Completed && !t.IsGrouped
}

// Clone returns a copy of the task that shares no pointers with t
func (t Task) Clone() Task {
	c := t
	if t.TimeSlot != nil {
		v := *t.TimeSlot
		c.TimeSlot = &v
	}
	if t.OrderIndex != nil {
		v := *t.OrderIndex
		c.OrderIndex = &v
	}
	if t.GroupID != nil {
		v := *t.GroupID
		c.GroupID = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	return c
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
