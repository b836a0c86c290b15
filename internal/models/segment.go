package models

import (
	"github.com/google/uuid"
)

// SegmentKind identifies what occupies a stretch of the timeline
type SegmentKind string

const (
	SegmentTask  SegmentKind = "task"
	SegmentBreak SegmentKind = "break"
	SegmentGap   SegmentKind = "gap"
)

// Segment is one contiguous stretch of a built day timeline.
// Start and Duration are minutes relative to the start of the day.
type Segment struct {
	Kind     SegmentKind  `json:"kind"`
	Start    int          `json:"start"`
	Duration int          `json:"duration"`
	Clock    string       `json:"clock"`
	Clipped  bool         `json:"clipped,omitempty"`
	Planned  *PlannedSpan `json:"planned,omitempty"`
	Task     *TaskBlock   `json:"task,omitempty"`
	Break    *BreakBlock  `json:"break,omitempty"`
}

// End returns the minute offset at which the segment finishes
func (s Segment) End() int {
	return s.Start + s.Duration
}

// PlannedSpan records where an item wanted to sit before overlap clipping
type PlannedSpan struct {
	Start    int `json:"start"`
	Duration int `json:"duration"`
}

// TaskBlock describes a task or group occupying a segment
type TaskBlock struct {
	TaskID     *uuid.UUID `json:"task_id,omitempty"`
	GroupID    *uuid.UUID `json:"group_id,omitempty"`
	Title      string     `json:"title"`
	Category   Category   `json:"category"`
	Duration   Duration   `json:"duration"`
	IsPriority bool       `json:"is_priority"`
	Override   bool       `json:"override,omitempty"`
}

// BreakBlock describes a break occupying a segment
type BreakBlock struct {
	BreakID   *uuid.UUID `json:"break_id,omitempty"`
	Type      BreakType  `json:"type"`
	Label     string     `json:"label"`
	Automatic bool       `json:"automatic"`
}
