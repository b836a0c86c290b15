package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{3, 16 * time.Second},
		{4, 30 * time.Second},
		{9, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDeadLetteredBefore(t *testing.T) {
	t.Parallel()

	cutoff := time.Now().Add(-24 * time.Hour)
	old := NewJob(JobTypeReclassifyUser, uuid.New(), nil)
	old.CreatedAt = cutoff.Add(-time.Hour)
	oldBody, _ := json.Marshal(old)

	tests := []struct {
		name     string
		delivery amqp.Delivery
		want     bool
	}{
		{"timestamp older than cutoff", amqp.Delivery{Timestamp: cutoff.Add(-time.Minute)}, true},
		{"timestamp within window", amqp.Delivery{Timestamp: cutoff.Add(time.Minute)}, false},
		{"falls back to job created_at", amqp.Delivery{Body: oldBody}, true},
		{"undecodable body is purged", amqp.Delivery{Body: []byte("{")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := deadLetteredBefore(tt.delivery, cutoff); got != tt.want {
				t.Errorf("deadLetteredBefore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPublishing_Routing(t *testing.T) {
	t.Parallel()

	q := &RabbitMQQueue{
		exchangeName:        DefaultExchangeName,
		delayedExchangeName: DefaultDelayedExchangeName,
		delayedAvailable:    true,
	}

	immediate := NewJob(JobTypeReclassifyUser, uuid.New(), nil)
	pub, exchange, err := q.publishing(immediate)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if exchange != DefaultExchangeName {
		t.Errorf("Expected immediate job on %s, got %s", DefaultExchangeName, exchange)
	}
	if pub.MessageId != immediate.ID.String() {
		t.Errorf("Expected message id %s, got %s", immediate.ID, pub.MessageId)
	}

	deferred := immediate.Retry(time.Minute)
	pub, exchange, err = q.publishing(deferred)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if exchange != DefaultDelayedExchangeName {
		t.Errorf("Expected deferred job on %s, got %s", DefaultDelayedExchangeName, exchange)
	}
	if _, ok := pub.Headers["x-delay"]; !ok {
		t.Error("Expected x-delay header on deferred job")
	}

	q.delayedAvailable = false
	if _, exchange, _ = q.publishing(deferred); exchange != DefaultExchangeName {
		t.Errorf("Expected fallback to %s without delayed exchange, got %s", DefaultExchangeName, exchange)
	}
}
