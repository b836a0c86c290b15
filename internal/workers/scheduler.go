package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserLister lists every registered user
type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

// UnclassifiedLister lists a user's tasks still waiting on the classifier
type UnclassifiedLister interface {
	UnclassifiedTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
}

// ReclassifyScheduler queues reclassify_user jobs twice a day for users
// whose tasks are still pending or defaulted.
type ReclassifyScheduler struct {
	jobQueue queue.Enqueuer
	users    UserLister
	tasks    UnclassifiedLister
	logger   *zap.Logger
	now      func() time.Time
}

// NewReclassifyScheduler creates a reclassification scheduler
func NewReclassifyScheduler(jobQueue queue.Enqueuer, users UserLister, tasks UnclassifiedLister, logger *zap.Logger) *ReclassifyScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReclassifyScheduler{
		jobQueue: jobQueue,
		users:    users,
		tasks:    tasks,
		logger:   logger,
		now:      time.Now,
	}
}

// nextRuns returns the next 08:00 and 20:00 after now
func nextRuns(now time.Time) (time.Time, time.Time) {
	morning := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, now.Location())
	evening := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, now.Location())
	if !now.Before(morning) {
		morning = morning.AddDate(0, 0, 1)
	}
	if !now.Before(evening) {
		evening = evening.AddDate(0, 0, 1)
	}
	return morning, evening
}

// ScheduleReclassificationJobs queues a morning and an evening job for every eligible user
func (s *ReclassifyScheduler) ScheduleReclassificationJobs(ctx context.Context) error {
	eligible, err := s.EligibleUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to get eligible users: %w", err)
	}

	morning, evening := nextRuns(s.now())
	for _, userID := range eligible {
		for _, at := range []time.Time{morning, evening} {
			if err := s.createJob(ctx, userID, at); err != nil {
				s.logger.Warn("reclassification_schedule_failed",
					zap.String("user_id", userID.String()),
					zap.Time("not_before", at),
					zap.Error(err),
				)
			}
		}
	}

	s.logger.Info("reclassification_jobs_scheduled",
		zap.Int("user_count", len(eligible)),
		zap.Time("next_morning", morning),
		zap.Time("next_evening", evening),
	)
	return nil
}

func (s *ReclassifyScheduler) createJob(ctx context.Context, userID uuid.UUID, notBefore time.Time) error {
	job := queue.NewJob(queue.JobTypeReclassifyUser, userID, nil)
	job.NotBefore = &notBefore
	notAfter := notBefore.Add(12 * time.Hour)
	job.NotAfter = &notAfter

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue reclassification job: %w", err)
	}
	return nil
}

// EligibleUsers returns the users with at least one unclassified open task
func (s *ReclassifyScheduler) EligibleUsers(ctx context.Context) ([]uuid.UUID, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var eligible []uuid.UUID
	for _, u := range users {
		tasks, err := s.tasks.UnclassifiedTasks(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list unclassified tasks for %s: %w", u.ID, err)
		}
		if len(tasks) > 0 {
			eligible = append(eligible, u.ID)
		}
	}
	return eligible, nil
}

// Run schedules jobs immediately and then every interval until ctx is done
func (s *ReclassifyScheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.ScheduleReclassificationJobs(ctx); err != nil {
			s.logger.Error("reclassification_scheduling_failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
