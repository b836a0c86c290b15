package queue

import (
	"context"
	"time"
)

// MessageInterface defines the interface for queue messages
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// Enqueuer is the publish side of a job queue
type Enqueuer interface {
	Enqueue(ctx context.Context, job *Job) error
}

// JobQueue is the interface for job queues
type JobQueue interface {
	Enqueuer

	// Consume returns a channel of messages from the queue. Prefetch controls
	// how many unacknowledged messages the consumer can hold. The caller
	// acknowledges each message; the channel closes when ctx is cancelled
	// or the connection drops.
	Consume(ctx context.Context, prefetchCount int) (<-chan MessageInterface, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered jobs older than a retention window
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
