package planner

import (
	"errors"
	"fmt"

	"github.com/benvon/smart-planner/internal/database"
)

var (
	// ErrTaskNotFound is returned when a task id matches none of the user's tasks
	ErrTaskNotFound = errors.New("task not found")
	// ErrGroupNotFound is returned when a group id matches none of the user's groups
	ErrGroupNotFound = errors.New("group not found")
	// ErrBreakNotFound is returned when a break id matches none of the user's breaks
	ErrBreakNotFound = errors.New("break not found")
	// ErrInvalidInput is wrapped by every ValidationError
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError names the request field that was rejected
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// notFound converts a repository miss into the planner sentinel
func notFound(err, sentinel error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}
