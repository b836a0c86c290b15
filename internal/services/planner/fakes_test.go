package planner

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/google/uuid"
)

// memStore keeps boards in memory and implements every repository the service reads
type memStore struct {
	mu     sync.Mutex
	tasks  []models.Task
	groups []models.Group
	breaks []models.Break
}

func (m *memStore) board(userID uuid.UUID, day models.ScheduledDay) models.Board {
	var b models.Board
	for _, t := range m.tasks {
		if t.UserID == userID && t.ScheduledDay == day {
			b.Tasks = append(b.Tasks, t.Clone())
		}
	}
	for _, g := range m.groups {
		if g.UserID == userID && g.ScheduledDay == day {
			b.Groups = append(b.Groups, g.Clone())
		}
	}
	return b
}

func (m *memStore) Load(_ context.Context, userID uuid.UUID, day models.ScheduledDay) (models.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.board(userID, day), nil
}

func (m *memStore) Update(_ context.Context, userID uuid.UUID, day models.ScheduledDay, fn func(models.Board) (models.Board, error)) (models.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.board(userID, day)
	next, err := fn(prev.Clone())
	if err != nil {
		return models.Board{}, err
	}

	for _, t := range prev.Tasks {
		m.tasks = slices.DeleteFunc(m.tasks, func(x models.Task) bool { return x.ID == t.ID })
	}
	for _, g := range prev.Groups {
		m.groups = slices.DeleteFunc(m.groups, func(x models.Group) bool { return x.ID == g.ID })
	}
	for _, g := range next.Groups {
		g.UserID = userID
		g.ScheduledDay = day
		m.groups = append(m.groups, g.Clone())
	}
	for _, t := range next.Tasks {
		t.UserID = userID
		m.tasks = append(m.tasks, t.Clone())
	}
	return next.Clone(), nil
}

func (m *memStore) task(id uuid.UUID) (models.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return models.Task{}, false
}

func (m *memStore) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Task, error) {
	t, ok := m.task(id)
	if !ok || t.UserID != userID {
		return nil, fmt.Errorf("task %s: %w", id, database.ErrNotFound)
	}
	return &t, nil
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID, day *models.ScheduledDay, includeCompleted bool) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, t := range m.tasks {
		if t.UserID != userID || (day != nil && t.ScheduledDay != *day) || (t.Completed && !includeCompleted) {
			continue
		}
		out = append(out, t.Clone())
	}
	return out, nil
}

func (m *memStore) ListUnclassified(_ context.Context, userID uuid.UUID) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, t := range m.tasks {
		if t.UserID == userID && !t.Completed &&
			(t.Classification == models.ClassificationPending || t.Classification == models.ClassificationDefaulted) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

// memGroups adapts memStore to the group repository, whose method names clash with the task one
type memGroups struct{ *memStore }

func (g memGroups) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, grp := range g.groups {
		if grp.ID == id && grp.UserID == userID {
			c := grp.Clone()
			return &c, nil
		}
	}
	return nil, fmt.Errorf("group %s: %w", id, database.ErrNotFound)
}

func (g memGroups) ListByUser(_ context.Context, userID uuid.UUID, day models.ScheduledDay) ([]models.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board(userID, day).Groups, nil
}

type memBreaks struct{ *memStore }

func (b memBreaks) Create(_ context.Context, brk *models.Break) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.breaks = append(b.breaks, *brk)
	return nil
}

func (b memBreaks) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Break, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Break
	for _, brk := range b.breaks {
		if brk.UserID == userID {
			out = append(out, brk)
		}
	}
	return out, nil
}

func (b memBreaks) Delete(_ context.Context, userID, id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.breaks)
	b.breaks = slices.DeleteFunc(b.breaks, func(x models.Break) bool { return x.ID == id && x.UserID == userID })
	if len(b.breaks) == n {
		return fmt.Errorf("break %s: %w", id, database.ErrNotFound)
	}
	return nil
}

type fakeQueue struct {
	jobs []*queue.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeCache struct {
	entries map[string][]models.Segment
	gets    int
	hits    int
}

func (c *fakeCache) Get(_ context.Context, userID uuid.UUID, key string) ([]models.Segment, bool, error) {
	c.gets++
	segs, ok := c.entries[userID.String()+key]
	if ok {
		c.hits++
	}
	return segs, ok, nil
}

func (c *fakeCache) Set(_ context.Context, userID uuid.UUID, key string, segments []models.Segment) error {
	if c.entries == nil {
		c.entries = make(map[string][]models.Segment)
	}
	c.entries[userID.String()+key] = segments
	return nil
}

type harness struct {
	svc   *Service
	store *memStore
	jobs  *fakeQueue
	cache *fakeCache
	user  uuid.UUID
}

type harnessOption func(*Deps, *Settings)

func withoutQueue() harnessOption {
	return func(d *Deps, _ *Settings) { d.Jobs = nil }
}

func withAutoGroup() harnessOption {
	return func(_ *Deps, s *Settings) { s.AutoGroup = true }
}

func newHarness(opts ...harnessOption) *harness {
	store := &memStore{}
	jobs := &fakeQueue{}
	cache := &fakeCache{}
	deps := Deps{
		Boards: store,
		Tasks:  store,
		Groups: memGroups{store},
		Breaks: memBreaks{store},
		Cache:  cache,
		Jobs:   jobs,
	}
	settings := Settings{
		DayStart:         "09:00",
		FallbackCategory: models.CategoryLight,
		FallbackDuration: models.Duration30,
	}
	for _, opt := range opts {
		opt(&deps, &settings)
	}

	n := 0
	fixed := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := NewService(deps, settings, nil,
		WithIDGenerator(func() uuid.UUID {
			n++
			return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("id-%d", n)))
		}),
		WithClock(func() time.Time { return fixed }),
	)
	return &harness{svc: svc, store: store, jobs: jobs, cache: cache, user: uuid.New()}
}

func categoryPtr(c models.Category) *models.Category { return &c }

func durationPtr(d models.Duration) *models.Duration { return &d }

func dayPtr(d models.ScheduledDay) *models.ScheduledDay { return &d }
