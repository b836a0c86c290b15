package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"go.uber.org/zap"
)

func TestBreakerClassifier_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	failing := ClassifierFunc(func(context.Context, string) (Classification, error) {
		calls++
		return Classification{}, errors.New("503 service unavailable")
	})
	b := NewBreakerClassifier(failing, BreakerSettings{FailureThreshold: 2, Cooldown: time.Hour}, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := b.Classify(context.Background(), "x"); err == nil || errors.Is(err, ErrClassifierUnavailable) {
			t.Fatalf("call %d: expected provider error, got %v", i, err)
		}
	}

	_, err := b.Classify(context.Background(), "x")
	if !errors.Is(err, ErrClassifierUnavailable) {
		t.Fatalf("Expected ErrClassifierUnavailable once open, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected the open breaker to skip the provider, got %d calls", calls)
	}
	if b.State() != "open" {
		t.Errorf("Expected state open, got %s", b.State())
	}
}

func TestBreakerClassifier_InvalidAnswersDoNotTrip(t *testing.T) {
	t.Parallel()

	invalid := ClassifierFunc(func(context.Context, string) (Classification, error) {
		return Classification{}, fmt.Errorf("%w: duration 45", ErrInvalidClassification)
	})
	b := NewBreakerClassifier(invalid, BreakerSettings{FailureThreshold: 1, Cooldown: time.Hour}, nil)

	for i := 0; i < 3; i++ {
		if _, err := b.Classify(context.Background(), "x"); !errors.Is(err, ErrInvalidClassification) {
			t.Fatalf("Expected ErrInvalidClassification, got %v", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("Expected breaker to stay closed, got %s", b.State())
	}
}

func TestBreakerClassifier_PassesThroughSuccess(t *testing.T) {
	t.Parallel()

	want := Classification{Category: models.CategoryDeep, Duration: models.Duration60}
	ok := ClassifierFunc(func(context.Context, string) (Classification, error) { return want, nil })
	b := NewBreakerClassifier(ok, BreakerSettings{}, nil)

	got, err := b.Classify(context.Background(), "Write report")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}
