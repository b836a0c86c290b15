package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/services/reorder"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrQueueUnavailable is returned when a job is requested but no queue is configured
var ErrQueueUnavailable = errors.New("job queue is not configured")

// ApplyClassification records a classifier (or fallback) result for a task.
// Tasks the user classified by hand and completed tasks keep their cell; the
// boolean result reports whether the task was changed.
func (s *Service) ApplyClassification(ctx context.Context, userID, taskID uuid.UUID, cell models.Cell, status models.ClassificationStatus) (models.Task, bool, error) {
	if !cell.Category.Valid() || !cell.Duration.Valid() {
		return models.Task{}, false, invalid("classification", fmt.Sprintf("unsupported cell %s", cell))
	}
	current, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, false, err
	}
	if current.Classification == models.ClassificationManual {
		return current, false, nil
	}

	applied := false
	board, err := s.update(ctx, "apply_classification", userID, current.ScheduledDay, func(b models.Board) (models.Board, error) {
		i := b.TaskIndex(taskID)
		if i < 0 {
			return b, fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
		}
		t := b.Tasks[i]
		if t.Classification == models.ClassificationManual {
			return b, nil
		}
		applied = true

		if t.Cell() != cell && !t.Completed {
			slot := t.TimeSlot
			if t.IsGrouped {
				b = s.detach(b, taskID)
			}
			var err error
			if b, err = s.reorderer.MoveToCell(b, taskID, cell, reorder.PositionBottom); err != nil {
				return b, err
			}
			i = b.TaskIndex(taskID)
			b.Tasks[i].TimeSlot = slot
		}

		b.Tasks[i].Category = cell.Category
		b.Tasks[i].Duration = cell.Duration
		b.Tasks[i].Classification = status
		b.Tasks[i].UpdatedAt = s.now()
		return s.arrange(b, taskID), nil
	})
	if err != nil {
		return models.Task{}, false, fmt.Errorf("failed to apply classification: %w", err)
	}

	saved, _ := findTask(board, taskID)
	if applied {
		s.logger.Info("task_classified",
			zap.String("user_id", userID.String()),
			zap.String("task_id", taskID.String()),
			zap.String("cell", cell.String()),
			zap.String("classification", string(status)),
		)
	}
	return saved, applied, nil
}

// ApplyFallback gives a task the configured default cell after classification failed
func (s *Service) ApplyFallback(ctx context.Context, userID, taskID uuid.UUID) (models.Task, bool, error) {
	cell := models.Cell{Category: s.settings.FallbackCategory, Duration: s.settings.FallbackDuration}
	return s.ApplyClassification(ctx, userID, taskID, cell, models.ClassificationDefaulted)
}

// UnclassifiedTasks returns the user's open tasks still waiting on, or
// defaulted by, the classifier.
func (s *Service) UnclassifiedTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	tasks, err := s.tasks.ListUnclassified(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unclassified tasks: %w", err)
	}
	return tasks, nil
}

// RequestReclassification queues a job that reclassifies every unclassified task of the user
func (s *Service) RequestReclassification(ctx context.Context, userID uuid.UUID) (*queue.Job, error) {
	if s.jobs == nil {
		return nil, ErrQueueUnavailable
	}
	job := queue.NewJob(queue.JobTypeReclassifyUser, userID, nil)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue reclassification: %w", err)
	}
	s.logger.Info("reclassification_requested",
		zap.String("user_id", userID.String()),
		zap.String("job_id", job.ID.String()),
	)
	return job, nil
}
