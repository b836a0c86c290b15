package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Cell is the (category, duration) pair within which items are ordered
type Cell struct {
	Category Category `json:"category"`
	Duration Duration `json:"duration"`
}

func (c Cell) String() string {
	return fmt.Sprintf("%s/%d", c.Category, c.Duration)
}

// Board is a user's full collection of tasks and groups for one day
type Board struct {
	Tasks  []Task  `json:"tasks"`
	Groups []Group `json:"groups"`
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	out := Board{
		Tasks:  make([]Task, len(b.Tasks)),
		Groups: make([]Group, len(b.Groups)),
	}
	for i, t := range b.Tasks {
		out.Tasks[i] = t.Clone()
	}
	for i, g := range b.Groups {
		out.Groups[i] = g.Clone()
	}
	return out
}

// TaskIndex returns the position of the task in b.Tasks, or -1
func (b Board) TaskIndex(id uuid.UUID) int {
	for i := range b.Tasks {
		if b.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// GroupIndex returns the position of the group in b.Groups, or -1
func (b Board) GroupIndex(id uuid.UUID) int {
	for i := range b.Groups {
		if b.Groups[i].ID == id {
			return i
		}
	}
	return -1
}
