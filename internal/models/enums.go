package models

import (
	"fmt"
	"strconv"
)

// Category is the cognitive-load class of a task
type Category string

const (
	CategoryDeep  Category = "deep"
	CategoryLight Category = "light"
	CategoryAdmin Category = "admin"
)

// Categories lists categories in scheduling order.
var Categories = []Category{CategoryDeep, CategoryLight, CategoryAdmin}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryDeep, CategoryLight, CategoryAdmin:
		return true
	default:
		return false
	}
}

// Rank returns the scheduling position of the category (deep first).
func (c Category) Rank() int {
	switch c {
	case CategoryDeep:
		return 0
	case CategoryLight:
		return 1
	case CategoryAdmin:
		return 2
	default:
		return len(Categories)
	}
}

// ParseCategory converts a string into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid category %q", s)
	}
	return c, nil
}

// Duration is a task length bucket in minutes
type Duration int

const (
	Duration15 Duration = 15
	Duration30 Duration = 30
	Duration60 Duration = 60
)

// Durations lists duration buckets in placement order (longest first).
var Durations = []Duration{Duration60, Duration30, Duration15}

// Valid reports whether d is a known duration bucket
func (d Duration) Valid() bool {
	switch d {
	case Duration15, Duration30, Duration60:
		return true
	default:
		return false
	}
}

// Minutes returns the duration as a plain minute count
func (d Duration) Minutes() int {
	return int(d)
}

func (d Duration) String() string {
	return strconv.Itoa(int(d))
}

// ParseDuration converts a minute count string ("15", "30", "60") into a Duration
func ParseDuration(s string) (Duration, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d := Duration(n)
	if !d.Valid() {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// ScheduledDay selects which day a task belongs to
type ScheduledDay string

const (
	ScheduledDayToday    ScheduledDay = "today"
	ScheduledDayTomorrow ScheduledDay = "tomorrow"
)

// Valid reports whether d is a known scheduled day
func (d ScheduledDay) Valid() bool {
	switch d {
	case ScheduledDayToday, ScheduledDayTomorrow:
		return true
	default:
		return false
	}
}

// BreakType represents the kind of a break
type BreakType string

const (
	BreakTypeExercise BreakType = "exercise"
	BreakTypeNap      BreakType = "nap"
	BreakTypeFood     BreakType = "food"
	BreakTypeMeeting  BreakType = "meeting"
	BreakTypeOther    BreakType = "other"
)

// Valid reports whether t is a known break type
func (t BreakType) Valid() bool {
	switch t {
	case BreakTypeExercise, BreakTypeNap, BreakTypeFood, BreakTypeMeeting, BreakTypeOther:
		return true
	default:
		return false
	}
}

// ClassificationStatus tracks whether a task's category and duration came from the classifier
type ClassificationStatus string

const (
	ClassificationPending    ClassificationStatus = "pending"
	ClassificationClassified ClassificationStatus = "classified"
	ClassificationDefaulted  ClassificationStatus = "defaulted"
	ClassificationManual     ClassificationStatus = "manual"
)
