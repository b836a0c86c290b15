package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerSettings configures NewBreakerClassifier
type BreakerSettings struct {
	Name             string
	FailureThreshold int           // consecutive failures that open the breaker
	Cooldown         time.Duration // time spent open before a half-open probe
	MaxProbes        uint32        // requests allowed while half-open
}

// BreakerClassifier wraps a Classifier in a circuit breaker so that a failing
// provider is not called for every queued job.
type BreakerClassifier struct {
	next    Classifier
	breaker *gobreaker.CircuitBreaker[Classification]
}

// NewBreakerClassifier wraps next with a circuit breaker
func NewBreakerClassifier(next Classifier, s BreakerSettings, logger *zap.Logger) *BreakerClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.Name == "" {
		s.Name = "classifier"
	}
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = 5
	}
	if s.MaxProbes == 0 {
		s.MaxProbes = 1
	}
	threshold := uint32(s.FailureThreshold)

	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxProbes,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A malformed answer or a cancelled caller says nothing about provider health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrInvalidClassification) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("classifier_breaker_state_changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerClassifier{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[Classification](settings),
	}
}

// Classify calls the wrapped classifier unless the breaker is open
func (b *BreakerClassifier) Classify(ctx context.Context, title string) (Classification, error) {
	c, err := b.breaker.Execute(func() (Classification, error) {
		return b.next.Classify(ctx, title)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Classification{}, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	return c, err
}

// State reports the breaker state, for health checks
func (b *BreakerClassifier) State() string {
	return b.breaker.State().String()
}

var _ Classifier = (*BreakerClassifier)(nil)
