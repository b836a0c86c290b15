package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/smart-planner/internal/models"
)

var (
	// ErrClassifierUnavailable is returned while the circuit breaker is open
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	// ErrInvalidClassification is returned when the model answers outside the closed enums
	ErrInvalidClassification = errors.New("invalid classification")
)

// Classification is the category and duration bucket assigned to a task title
type Classification struct {
	Category models.Category `json:"category"`
	Duration models.Duration `json:"duration"`
}

// Validate checks both fields against their enumerations
func (c Classification) Validate() error {
	if !c.Category.Valid() {
		return fmt.Errorf("%w: category %q", ErrInvalidClassification, c.Category)
	}
	if !c.Duration.Valid() {
		return fmt.Errorf("%w: duration %d", ErrInvalidClassification, c.Duration)
	}
	return nil
}

// Classifier assigns a classification to a task title
type Classifier interface {
	Classify(ctx context.Context, title string) (Classification, error)
}

// ClassifierFunc adapts a function to the Classifier interface
type ClassifierFunc func(ctx context.Context, title string) (Classification, error)

// Classify calls f
func (f ClassifierFunc) Classify(ctx context.Context, title string) (Classification, error) {
	return f(ctx, title)
}
