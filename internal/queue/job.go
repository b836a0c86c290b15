package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeTaskClassification classifies a single task
	JobTypeTaskClassification JobType = "task_classification"
	// JobTypeReclassifyUser classifies every pending or defaulted task of a user
	JobTypeReclassifyUser JobType = "reclassify_user"
)

// Valid reports whether t is a known job type
func (t JobType) Valid() bool {
	switch t {
	case JobTypeTaskClassification, JobTypeReclassifyUser:
		return true
	default:
		return false
	}
}

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	TaskID     *uuid.UUID     `json:"task_id,omitempty"`    // set for task_classification
	NotBefore  *time.Time     `json:"not_before,omitempty"` // earliest processing time, nil = immediate
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // latest processing time, nil = never expires
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID, taskID *uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		TaskID:     taskID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// Retry returns a copy of the job with the retry count incremented and
// processing deferred by delay. The copy keeps the job ID.
func (j *Job) Retry(delay time.Duration) *Job {
	next := *j
	next.IncrementRetry()
	notBefore := time.Now().Add(delay)
	next.NotBefore = &notBefore
	if j.Metadata != nil {
		next.Metadata = make(map[string]any, len(j.Metadata))
		for k, v := range j.Metadata {
			next.Metadata[k] = v
		}
	}
	return &next
}
