package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// MaxGroupMinutes caps the combined length of a group's members.
const MaxGroupMinutes = 60

// Group is a set of similar same-cell tasks scheduled as one unit
type Group struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"user_id"`
	Title        string       `json:"title"`
	TaskIDs      []uuid.UUID  `json:"task_ids"`
	Category     Category     `json:"category"`
	Duration     Duration     `json:"duration"` // duration of each member
	OrderIndex   *int         `json:"order_index,omitempty"`
	IsPriority   bool         `json:"is_priority"`
	ScheduledDay ScheduledDay `json:"scheduled_day"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TotalMinutes is the time the group occupies on the timeline
func (g Group) TotalMinutes() int {
	return len(g.TaskIDs) * g.Duration.Minutes()
}

// Cell returns the (category, duration) pair the group is ordered in
func (g Group) Cell() Cell {
	return Cell{Category: g.Category, Duration: g.Duration}
}

// Contains reports whether the task is a member of the group
func (g Group) Contains(taskID uuid.UUID) bool {
	return slices.Contains(g.TaskIDs, taskID)
}

// Clone returns a copy of the group that shares no memory with g
func (g Group) Clone() Group {
	c := g
	c.TaskIDs = slices.Clone(g.TaskIDs)
	if g.OrderIndex != nil {
		v := *g.OrderIndex
		c.OrderIndex = &v
	}
	return c
}
