package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/smart-planner/internal/logger"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/services/ai"
	"github.com/benvon/smart-planner/internal/services/planner"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errMalformedJob = errors.New("malformed job")

// Planner is the part of the planner service the classification worker drives
type Planner interface {
	GetTask(ctx context.Context, userID, id uuid.UUID) (models.Task, error)
	ApplyClassification(ctx context.Context, userID, taskID uuid.UUID, cell models.Cell, status models.ClassificationStatus) (models.Task, bool, error)
	ApplyFallback(ctx context.Context, userID, taskID uuid.UUID) (models.Task, bool, error)
	UnclassifiedTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
}

var _ Planner = (*planner.Service)(nil)

// ClassificationWorker turns queued jobs into task classifications
type ClassificationWorker struct {
	classifier ai.Classifier
	planner    Planner
	jobQueue   queue.Enqueuer
	maxRetries int
	logger     *zap.Logger
}

// NewClassificationWorker creates a classification worker. Jobs that fail
// more than maxRetries times get the fallback classification.
func NewClassificationWorker(classifier ai.Classifier, p Planner, jobQueue queue.Enqueuer, maxRetries int, logger *zap.Logger) *ClassificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassificationWorker{
		classifier: classifier,
		planner:    p,
		jobQueue:   jobQueue,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// ProcessJob processes a job based on its type and settles the message
func (w *ClassificationWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	ctx = ai.WithUserID(ctx, job.UserID)
	ctx = ai.WithRequestID(ctx, job.ID.String())

	switch job.Type {
	case queue.JobTypeTaskClassification:
		if err := w.ClassifyTask(ctx, job); err != nil {
			return w.handleJobError(ctx, msg, job, err)
		}
		return ack(msg)

	case queue.JobTypeReclassifyUser:
		if err := w.ReclassifyUser(ctx, job); err != nil {
			if nackErr := msg.Nack(false); nackErr != nil {
				w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
			}
			return fmt.Errorf("reclassification failed: %w", err)
		}
		return ack(msg)

	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func ack(msg queue.MessageInterface) error {
	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

// ClassifyTask asks the classifier for one task's cell and applies it.
// Deleted, completed and already classified tasks are skipped.
func (w *ClassificationWorker) ClassifyTask(ctx context.Context, job *queue.Job) error {
	if job.TaskID == nil {
		return fmt.Errorf("task_id is required for classification job: %w", errMalformedJob)
	}
	taskID := *job.TaskID
	ctx = ai.WithTaskID(ctx, taskID)

	task, err := w.planner.GetTask(ctx, job.UserID, taskID)
	if errors.Is(err, planner.ErrTaskNotFound) {
		w.logger.Info("classification_skipped",
			zap.String("task_id", taskID.String()),
			zap.String("reason", "task deleted"),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task.Completed || task.Classification == models.ClassificationManual || task.Classification == models.ClassificationClassified {
		w.logger.Debug("classification_skipped",
			zap.String("task_id", taskID.String()),
			zap.String("classification", string(task.Classification)),
			zap.Bool("completed", task.Completed),
		)
		return nil
	}

	result, err := w.classifier.Classify(ctx, task.Title)
	if err != nil {
		return fmt.Errorf("failed to classify task: %w", err)
	}

	cell := models.Cell{Category: result.Category, Duration: result.Duration}
	_, applied, err := w.planner.ApplyClassification(ctx, job.UserID, taskID, cell, models.ClassificationClassified)
	if err != nil {
		return fmt.Errorf("failed to apply classification: %w", err)
	}

	w.logger.Info("task_classification_processed",
		zap.String("task_id", taskID.String()),
		zap.String("title", logger.SanitizeTitle(task.Title)),
		zap.String("cell", cell.String()),
		zap.Bool("applied", applied),
	)
	return nil
}

// ReclassifyUser fans a user's unclassified tasks out into one classification job each
func (w *ClassificationWorker) ReclassifyUser(ctx context.Context, job *queue.Job) error {
	if w.jobQueue == nil {
		return planner.ErrQueueUnavailable
	}
	tasks, err := w.planner.UnclassifiedTasks(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to list unclassified tasks: %w", err)
	}

	queued := 0
	for _, task := range tasks {
		taskID := task.ID
		if err := w.jobQueue.Enqueue(ctx, queue.NewJob(queue.JobTypeTaskClassification, job.UserID, &taskID)); err != nil {
			w.logger.Warn("classification_enqueue_failed",
				zap.String("task_id", taskID.String()),
				zap.Error(err),
			)
			continue
		}
		queued++
	}

	w.logger.Info("reclassification_fanned_out",
		zap.String("user_id", job.UserID.String()),
		zap.Int("tasks", len(tasks)),
		zap.Int("queued", queued),
	)
	if queued == 0 && len(tasks) > 0 {
		return fmt.Errorf("no classification jobs could be queued for %d tasks", len(tasks))
	}
	return nil
}

// handleJobError re-enqueues a failed classification with a delay chosen by
// the error kind. Permanent failures and exhausted retries fall back to the
// default cell so the task is never stuck pending.
func (w *ClassificationWorker) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, jobErr error) error {
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(jobErr),
	}

	if ctx.Err() != nil {
		// Shutting down: hand the job back untouched.
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return jobErr
	}

	if errors.Is(jobErr, errMalformedJob) {
		w.logger.Warn("classification_job_malformed", fields...)
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return jobErr
	}

	retryable := !ai.IsPermanent(jobErr) && job.RetryCount < w.maxRetries && w.jobQueue != nil
	if retryable {
		delay := ai.GetRetryDelay(jobErr, job.RetryCount)
		retry := job.Retry(delay)
		err := w.jobQueue.Enqueue(ctx, retry)
		if err == nil {
			w.logger.Warn("classification_retry_scheduled",
				append(fields,
					zap.Duration("delay", delay),
					zap.Bool("quota", ai.IsQuotaError(jobErr)),
					zap.Bool("rate_limited", ai.IsRateLimitError(jobErr)),
				)...,
			)
			return ack(msg)
		}
		w.logger.Warn("classification_retry_enqueue_failed", append(fields, zap.NamedError("enqueue_error", err))...)
	}

	return w.fallback(ctx, msg, job, jobErr)
}

// fallback gives the task the configured default cell and settles the message
func (w *ClassificationWorker) fallback(ctx context.Context, msg queue.MessageInterface, job *queue.Job, jobErr error) error {
	_, applied, err := w.planner.ApplyFallback(ctx, job.UserID, *job.TaskID)
	if err != nil && !errors.Is(err, planner.ErrTaskNotFound) {
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("failed to apply fallback: %w", errors.Join(err, jobErr))
	}

	w.logger.Warn("classification_fell_back",
		zap.String("job_id", job.ID.String()),
		zap.String("task_id", job.TaskID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Bool("applied", applied),
		zap.String("cause", logger.SanitizeError(jobErr)),
	)
	return ack(msg)
}
