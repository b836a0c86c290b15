package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/google/uuid"
)

type mockUserLister struct {
	users []models.User
	err   error
}

func (m *mockUserLister) List(ctx context.Context) ([]models.User, error) {
	return m.users, m.err
}

type mockUnclassified map[uuid.UUID]int

func (m mockUnclassified) UnclassifiedTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	return make([]models.Task, m[userID]), nil
}

func TestNextRuns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		now         time.Time
		wantMorning time.Time
		wantEvening time.Time
	}{
		{
			name:        "before morning",
			now:         time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
			wantMorning: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
			wantEvening: time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC),
		},
		{
			name:        "midday",
			now:         time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
			wantMorning: time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC),
			wantEvening: time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC),
		},
		{
			name:        "late night",
			now:         time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC),
			wantMorning: time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC),
			wantEvening: time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			morning, evening := nextRuns(tt.now)
			if !morning.Equal(tt.wantMorning) {
				t.Errorf("Expected morning %v, got %v", tt.wantMorning, morning)
			}
			if !evening.Equal(tt.wantEvening) {
				t.Errorf("Expected evening %v, got %v", tt.wantEvening, evening)
			}
		})
	}
}

func TestReclassifyScheduler_ScheduleReclassificationJobs(t *testing.T) {
	t.Parallel()

	busy := models.User{ID: uuid.New()}
	idle := models.User{ID: uuid.New()}
	q := &mockEnqueuer{}
	s := NewReclassifyScheduler(q,
		&mockUserLister{users: []models.User{busy, idle}},
		mockUnclassified{busy.ID: 2},
		nil,
	)
	s.now = func() time.Time { return time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC) }

	if err := s.ScheduleReclassificationJobs(context.Background()); err != nil {
		t.Fatalf("ScheduleReclassificationJobs returned error: %v", err)
	}

	if len(q.jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(q.jobs))
	}
	for _, job := range q.jobs {
		if job.Type != queue.JobTypeReclassifyUser {
			t.Errorf("Expected reclassify_user job, got %s", job.Type)
		}
		if job.UserID != busy.ID {
			t.Errorf("Expected job for %s, got %s", busy.ID, job.UserID)
		}
		if job.NotBefore == nil || job.NotAfter == nil || !job.NotAfter.After(*job.NotBefore) {
			t.Errorf("Expected a scheduling window, got %v..%v", job.NotBefore, job.NotAfter)
		}
	}
}

func TestReclassifyScheduler_EnqueueFailureContinues(t *testing.T) {
	t.Parallel()

	users := []models.User{{ID: uuid.New()}, {ID: uuid.New()}}
	calls := 0
	q := &mockEnqueuer{enqueueFunc: func(ctx context.Context, job *queue.Job) error {
		calls++
		if job.UserID == users[0].ID {
			return errors.New("broker down")
		}
		return nil
	}}
	s := NewReclassifyScheduler(q, &mockUserLister{users: users}, mockUnclassified{users[0].ID: 1, users[1].ID: 1}, nil)

	if err := s.ScheduleReclassificationJobs(context.Background()); err != nil {
		t.Fatalf("ScheduleReclassificationJobs returned error: %v", err)
	}
	if calls != 4 {
		t.Errorf("Expected 4 enqueue attempts, got %d", calls)
	}
	if len(q.jobs) != 2 {
		t.Errorf("Expected 2 queued jobs, got %d", len(q.jobs))
	}
}

func TestReclassifyScheduler_ListError(t *testing.T) {
	t.Parallel()

	s := NewReclassifyScheduler(&mockEnqueuer{}, &mockUserLister{err: errors.New("db down")}, mockUnclassified{}, nil)
	if err := s.ScheduleReclassificationJobs(context.Background()); err == nil {
		t.Error("Expected error when users cannot be listed")
	}
}
