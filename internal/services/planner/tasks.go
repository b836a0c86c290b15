package planner

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/benvon/smart-planner/internal/logger"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/services/reorder"
	"github.com/benvon/smart-planner/internal/services/timeline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewTask is the input for CreateTask. Category and Duration are optional;
// when both are missing the task is queued for classification.
type NewTask struct {
	Title        string
	Category     *models.Category
	Duration     *models.Duration
	TimeSlot     *string
	ScheduledDay models.ScheduledDay
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Title         *string
	Category      *models.Category
	Duration      *models.Duration
	TimeSlot      *string
	ClearTimeSlot bool
	ScheduledDay  *models.ScheduledDay
}

func validateTimeSlot(slot *string) error {
	if slot == nil {
		return nil
	}
	if _, err := timeline.ParseClock(*slot); err != nil {
		return invalid("time_slot", err.Error())
	}
	return nil
}

func validateCell(category *models.Category, duration *models.Duration) error {
	if category != nil && !category.Valid() {
		return invalid("category", fmt.Sprintf("unknown category %q", *category))
	}
	if duration != nil && !duration.Valid() {
		return invalid("duration", fmt.Sprintf("unsupported duration %d", *duration))
	}
	return nil
}

// CreateTask adds a task to the bottom of its cell
func (s *Service) CreateTask(ctx context.Context, userID uuid.UUID, in NewTask) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, invalid("title", "is required")
	}
	day := in.ScheduledDay
	if day == "" {
		day = models.ScheduledDayToday
	}
	if err := validateDay(day); err != nil {
		return models.Task{}, err
	}
	if err := validateCell(in.Category, in.Duration); err != nil {
		return models.Task{}, err
	}
	if err := validateTimeSlot(in.TimeSlot); err != nil {
		return models.Task{}, err
	}

	now := s.now()
	task := models.Task{
		ID:             s.newID(),
		UserID:         userID,
		Title:          title,
		Category:       s.settings.FallbackCategory,
		Duration:       s.settings.FallbackDuration,
		TimeSlot:       in.TimeSlot,
		ScheduledDay:   day,
		Classification: models.ClassificationPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Category != nil {
		task.Category = *in.Category
	}
	if in.Duration != nil {
		task.Duration = *in.Duration
	}
	switch {
	case in.Category != nil || in.Duration != nil:
		task.Classification = models.ClassificationManual
	case s.jobs == nil:
		task.Classification = models.ClassificationDefaulted
	}

	board, err := s.update(ctx, "create_task", userID, day, func(b models.Board) (models.Board, error) {
		b.Tasks = append(b.Tasks, task)
		return s.arrange(b, task.ID), nil
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	if task.Classification == models.ClassificationPending {
		s.enqueueClassification(ctx, userID, task.ID)
	}

	saved, _ := findTask(board, task.ID)
	s.logger.Info("task_created",
		zap.String("user_id", userID.String()),
		zap.String("task_id", task.ID.String()),
		zap.String("title", logger.SanitizeTitle(task.Title)),
		zap.String("classification", string(task.Classification)),
		zap.Bool("grouped", saved.IsGrouped),
	)
	return saved, nil
}

// enqueueClassification queues a classifier job. A failed enqueue leaves the
// task pending for the next reclassification pass.
func (s *Service) enqueueClassification(ctx context.Context, userID, taskID uuid.UUID) {
	job := queue.NewJob(queue.JobTypeTaskClassification, userID, &taskID)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		s.logger.Warn("classification_enqueue_failed",
			zap.String("user_id", userID.String()),
			zap.String("task_id", taskID.String()),
			zap.Error(err),
		)
	}
}

// GetTask returns one of the user's tasks
func (s *Service) GetTask(ctx context.Context, userID, id uuid.UUID) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, id)
	if err != nil {
		return models.Task{}, notFound(err, ErrTaskNotFound)
	}
	return *task, nil
}

// ListTasks returns the user's tasks, optionally restricted to one day
func (s *Service) ListTasks(ctx context.Context, userID uuid.UUID, day *models.ScheduledDay, includeCompleted bool) ([]models.Task, error) {
	if day != nil {
		if err := validateDay(*day); err != nil {
			return nil, err
		}
	}
	tasks, err := s.tasks.ListByUser(ctx, userID, day, includeCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies patch to a task. A category or duration change is a
// manual classification and moves the task to the bottom of its new cell;
// a day change moves it to the bottom of the other day.
func (s *Service) UpdateTask(ctx context.Context, userID, id uuid.UUID, patch TaskPatch) (models.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.Task{}, invalid("title", "must not be empty")
	}
	if err := validateCell(patch.Category, patch.Duration); err != nil {
		return models.Task{}, err
	}
	if err := validateTimeSlot(patch.TimeSlot); err != nil {
		return models.Task{}, err
	}
	if patch.ScheduledDay != nil {
		if err := validateDay(*patch.ScheduledDay); err != nil {
			return models.Task{}, err
		}
	}

	current, err := s.GetTask(ctx, userID, id)
	if err != nil {
		return models.Task{}, err
	}
	day := current.ScheduledDay
	moving := patch.ScheduledDay != nil && *patch.ScheduledDay != day

	var updated models.Task
	board, err := s.update(ctx, "update_task", userID, day, func(b models.Board) (models.Board, error) {
		i := b.TaskIndex(id)
		if i < 0 {
			return b, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
		}
		t := b.Tasks[i]
		dest := t.Cell()
		if patch.Category != nil {
			dest.Category = *patch.Category
		}
		if patch.Duration != nil {
			dest.Duration = *patch.Duration
		}
		cellChanged := dest != t.Cell()

		if (cellChanged || moving) && t.IsGrouped {
			b = s.detach(b, id)
		}
		if cellChanged && !moving && b.Tasks[b.TaskIndex(id)].Schedulable() {
			var err error
			if b, err = s.reorderer.MoveToCell(b, id, dest, reorder.PositionBottom); err != nil {
				return b, err
			}
		}

		i = b.TaskIndex(id)
		t = b.Tasks[i]
		if patch.Title != nil {
			t.Title = strings.TrimSpace(*patch.Title)
		}
		if cellChanged {
			t.Category = dest.Category
			t.Duration = dest.Duration
			t.Classification = models.ClassificationManual
		}
		if patch.ClearTimeSlot {
			t.TimeSlot = nil
		} else if patch.TimeSlot != nil {
			t.TimeSlot = models.StringPtr(*patch.TimeSlot)
		}
		t.UpdatedAt = s.now()

		if moving {
			// The task leaves this day before it is settled.
			b.Tasks = slices.Delete(b.Tasks, i, i+1)
			b = s.arrange(b)
			t.ScheduledDay = *patch.ScheduledDay
			t.OrderIndex = nil
			t.IsPriority = false
			b.Tasks = append(b.Tasks, t)
			updated = t
			return b, nil
		}

		b.Tasks[i] = t
		var touched []uuid.UUID
		if cellChanged || patch.Title != nil {
			touched = append(touched, id)
		}
		return s.arrange(b, touched...), nil
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	if moving {
		board, err = s.update(ctx, "settle_day", userID, updated.ScheduledDay, func(b models.Board) (models.Board, error) {
			return s.arrange(b, id), nil
		})
		if err != nil {
			return models.Task{}, fmt.Errorf("failed to settle %s: %w", updated.ScheduledDay, err)
		}
	}

	saved, ok := findTask(board, id)
	if !ok {
		return updated, nil
	}
	s.logger.Info("task_updated",
		zap.String("user_id", userID.String()),
		zap.String("task_id", id.String()),
		zap.String("cell", saved.Cell().String()),
		zap.String("scheduled_day", string(saved.ScheduledDay)),
	)
	return saved, nil
}

// DeleteTask removes a task, dissolving its group if it leaves one member
func (s *Service) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	current, err := s.GetTask(ctx, userID, id)
	if err != nil {
		return err
	}

	_, err = s.update(ctx, "delete_task", userID, current.ScheduledDay, func(b models.Board) (models.Board, error) {
		if b.TaskIndex(id) < 0 {
			return b, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
		}
		b = s.detach(b, id)
		i := b.TaskIndex(id)
		b.Tasks = slices.Delete(b.Tasks, i, i+1)
		return s.arrange(b), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("task_deleted",
		zap.String("user_id", userID.String()),
		zap.String("task_id", id.String()),
	)
	return nil
}

// CompleteTask marks a task done or not done. Completing takes the task out
// of its group and its cell; reopening puts it back at the bottom of its cell.
func (s *Service) CompleteTask(ctx context.Context, userID, id uuid.UUID, completed bool) (models.Task, error) {
	current, err := s.GetTask(ctx, userID, id)
	if err != nil {
		return models.Task{}, err
	}

	board, err := s.update(ctx, "complete_task", userID, current.ScheduledDay, func(b models.Board) (models.Board, error) {
		i := b.TaskIndex(id)
		if i < 0 {
			return b, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
		}
		if b.Tasks[i].Completed == completed {
			return b, nil
		}

		b = s.detach(b, id)
		i = b.TaskIndex(id)
		now := s.now()
		b.Tasks[i].Completed = completed
		b.Tasks[i].OrderIndex = nil
		b.Tasks[i].IsPriority = false
		b.Tasks[i].UpdatedAt = now
		if completed {
			b.Tasks[i].CompletedAt = &now
		} else {
			b.Tasks[i].CompletedAt = nil
		}
		return s.arrange(b), nil
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to complete task: %w", err)
	}

	saved, _ := findTask(board, id)
	s.logger.Info("task_completion_changed",
		zap.String("user_id", userID.String()),
		zap.String("task_id", id.String()),
		zap.Bool("completed", completed),
	)
	return saved, nil
}

// TogglePriority flips the priority flag of a task or group
func (s *Service) TogglePriority(ctx context.Context, userID, id uuid.UUID) (models.Board, error) {
	day, err := s.dayOfItem(ctx, userID, id)
	if err != nil {
		return models.Board{}, err
	}

	board, err := s.update(ctx, "toggle_priority", userID, day, func(b models.Board) (models.Board, error) {
		b, err := s.reorderer.TogglePriority(b, id)
		if err != nil {
			return b, err
		}
		return s.arrange(b), nil
	})
	if err != nil {
		return models.Board{}, fmt.Errorf("failed to toggle priority: %w", err)
	}
	return board, nil
}

// Reorder applies a drag-and-drop event to the day's board
func (s *Service) Reorder(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, ev reorder.Event) (models.Board, error) {
	if err := validateDay(day); err != nil {
		return models.Board{}, err
	}
	if len(ev.MovingIDs) == 0 {
		return models.Board{}, invalid("moving_ids", "must name at least one item")
	}

	board, err := s.update(ctx, "reorder", userID, day, func(b models.Board) (models.Board, error) {
		b, err := s.reorderer.Reorder(b, ev)
		if err != nil {
			return b, err
		}
		return s.arrange(b), nil
	})
	if err != nil {
		return models.Board{}, fmt.Errorf("failed to reorder: %w", err)
	}
	return board, nil
}
