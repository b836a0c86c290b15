package grouping

import (
	"errors"
	"testing"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() uuid.UUID {
	n := 0
	return func() uuid.UUID {
		n++
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(n)})
	}
}

func newTestEngine() *Engine {
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return NewEngine(nil,
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return fixed }),
	)
}

func task(title string, c models.Category, d models.Duration) models.Task {
	return models.Task{
		ID:           uuid.New(),
		Title:        title,
		Category:     c,
		Duration:     d,
		ScheduledDay: models.ScheduledDayToday,
	}
}

func TestGroupTasks_EmailPair(t *testing.T) {
	t.Parallel()

	john := task("Reply to John", models.CategoryAdmin, models.Duration15)
	mary := task("Reply to Mary", models.CategoryAdmin, models.Duration15)

	res := newTestEngine().GroupTasks([]models.Task{john, mary})

	require.Len(t, res.Groups, 1)
	assert.Empty(t, res.UngroupedTasks)

	g := res.Groups[0]
	assert.Equal(t, "Email tasks (2)", g.Title)
	assert.Equal(t, []uuid.UUID{john.ID, mary.ID}, g.TaskIDs)
	assert.Equal(t, models.CategoryAdmin, g.Category)
	assert.Equal(t, models.Duration15, g.Duration)
	assert.Equal(t, 30, g.TotalMinutes())
}

func TestGroupTasks_OverCapAnchorStaysStandalone(t *testing.T) {
	t.Parallel()

	tasks := []models.Task{
		task("Email Alice", models.CategoryAdmin, models.Duration30),
		task("Email Bob", models.CategoryAdmin, models.Duration30),
		task("Email Carol", models.CategoryAdmin, models.Duration30),
		task("Email Dave", models.CategoryAdmin, models.Duration30),
	}

	res := newTestEngine().GroupTasks(tasks)

	// All four never merge; Alice and Bob each see an over-cap set, Carol and Dave fit
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []uuid.UUID{tasks[2].ID, tasks[3].ID}, res.Groups[0].TaskIDs)
	assert.Equal(t, models.MaxGroupMinutes, res.Groups[0].TotalMinutes())

	require.Len(t, res.UngroupedTasks, 2)
	assert.Equal(t, tasks[0].ID, res.UngroupedTasks[0].ID)
	assert.Equal(t, tasks[1].ID, res.UngroupedTasks[1].ID)
}

func TestGroupTasks_OverCapPartnersGroupLater(t *testing.T) {
	t.Parallel()

	tasks := []models.Task{
		task("Email Alice", models.CategoryAdmin, models.Duration30),
		task("Email Bob", models.CategoryAdmin, models.Duration30),
		task("Email Carol", models.CategoryAdmin, models.Duration30),
	}

	res := newTestEngine().GroupTasks(tasks)

	require.Len(t, res.UngroupedTasks, 1)
	assert.Equal(t, tasks[0].ID, res.UngroupedTasks[0].ID)

	require.Len(t, res.Groups, 1)
	assert.Equal(t, []uuid.UUID{tasks[1].ID, tasks[2].ID}, res.Groups[0].TaskIDs)
	assert.Equal(t, "Email tasks (2)", res.Groups[0].Title)
}

func TestGroupTasks_CapBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	tasks := []models.Task{
		task("Email Alice", models.CategoryAdmin, models.Duration15),
		task("Email Bob", models.CategoryAdmin, models.Duration15),
		task("Email Carol", models.CategoryAdmin, models.Duration15),
		task("Email Dave", models.CategoryAdmin, models.Duration15),
	}

	res := newTestEngine().GroupTasks(tasks)

	require.Len(t, res.Groups, 1)
	assert.Equal(t, models.MaxGroupMinutes, res.Groups[0].TotalMinutes())
	assert.Equal(t, "Email tasks (4)", res.Groups[0].Title)
}

func TestGroupTasks_DifferentCellsNeverMerge(t *testing.T) {
	t.Parallel()

	tasks := []models.Task{
		task("Reply to John", models.CategoryAdmin, models.Duration15),
		task("Reply to Mary", models.CategoryAdmin, models.Duration30),
		task("Reply to Sam", models.CategoryLight, models.Duration15),
	}

	res := newTestEngine().GroupTasks(tasks)

	assert.Empty(t, res.Groups)
	assert.Len(t, res.UngroupedTasks, 3)
}

func TestGroupTasks_IgnoresCompletedAndGrouped(t *testing.T) {
	t.Parallel()

	done := task("Reply to John", models.CategoryAdmin, models.Duration15)
	done.Completed = true
	grouped := task("Reply to Ann", models.CategoryAdmin, models.Duration15)
	grouped.IsGrouped = true
	open := task("Reply to Mary", models.CategoryAdmin, models.Duration15)

	res := newTestEngine().GroupTasks([]models.Task{done, grouped, open})

	assert.Empty(t, res.Groups)
	require.Len(t, res.UngroupedTasks, 1)
	assert.Equal(t, open.ID, res.UngroupedTasks[0].ID)
}

func TestGroupTasks_LevenshteinFallback(t *testing.T) {
	t.Parallel()

	a := task("Review pull request 12", models.CategoryLight, models.Duration15)
	b := task("Review pull request 13", models.CategoryLight, models.Duration15)
	c := task("Water the plants", models.CategoryLight, models.Duration15)

	res := newTestEngine().GroupTasks([]models.Task{a, b, c})

	require.Len(t, res.Groups, 1)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, res.Groups[0].TaskIDs)
	assert.Equal(t, "Review tasks (2)", res.Groups[0].Title)
	require.Len(t, res.UngroupedTasks, 1)
	assert.Equal(t, c.ID, res.UngroupedTasks[0].ID)
}

func TestGroupTasks_InheritsOrderAndPriority(t *testing.T) {
	t.Parallel()

	a := task("Reply to John", models.CategoryAdmin, models.Duration15)
	a.OrderIndex = models.IntPtr(4)
	b := task("Reply to Mary", models.CategoryAdmin, models.Duration15)
	b.OrderIndex = models.IntPtr(2)
	b.IsPriority = true

	res := newTestEngine().GroupTasks([]models.Task{a, b})

	require.Len(t, res.Groups, 1)
	require.NotNil(t, res.Groups[0].OrderIndex)
	assert.Equal(t, 2, *res.Groups[0].OrderIndex)
	assert.True(t, res.Groups[0].IsPriority)
}

func TestGroupTasks_Deterministic(t *testing.T) {
	t.Parallel()

	tasks := []models.Task{
		task("Reply to John", models.CategoryAdmin, models.Duration15),
		task("Write blog draft", models.CategoryDeep, models.Duration30),
		task("Reply to Mary", models.CategoryAdmin, models.Duration15),
		task("Draft blog intro", models.CategoryDeep, models.Duration30),
	}

	first := newTestEngine().GroupTasks(tasks)
	second := newTestEngine().GroupTasks(tasks)

	assert.Equal(t, first, second)
	require.Len(t, first.Groups, 2)
	assert.Equal(t, "Email tasks (2)", first.Groups[0].Title)
	assert.Equal(t, "Writing tasks (2)", first.Groups[1].Title)
}

func TestAddTaskToGroup(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	a := task("Reply to John", models.CategoryAdmin, models.Duration15)
	b := task("Reply to Mary", models.CategoryAdmin, models.Duration15)
	res := e.GroupTasks([]models.Task{a, b})
	require.Len(t, res.Groups, 1)
	g := res.Groups[0]

	t.Run("appends compatible task", func(t *testing.T) {
		c := task("Reply to Sam", models.CategoryAdmin, models.Duration15)
		out, err := e.AddTaskToGroup(g, c)
		require.NoError(t, err)
		assert.Len(t, out.TaskIDs, 3)
		assert.Equal(t, "Email tasks (3)", out.Title)
		assert.Len(t, g.TaskIDs, 2, "input group must not be mutated")
	})

	tests := []struct {
		name string
		task func() models.Task
	}{
		{"wrong category", func() models.Task { return task("Reply", models.CategoryLight, models.Duration15) }},
		{"wrong duration", func() models.Task { return task("Reply", models.CategoryAdmin, models.Duration30) }},
		{"completed", func() models.Task {
			tk := task("Reply", models.CategoryAdmin, models.Duration15)
			tk.Completed = true
			return tk
		}},
		{"already grouped", func() models.Task {
			tk := task("Reply", models.CategoryAdmin, models.Duration15)
			other := uuid.New()
			tk.GroupID = &other
			tk.IsGrouped = true
			return tk
		}},
		{"duplicate member", func() models.Task { return a }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.AddTaskToGroup(g, tt.task())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIncompatibleGroupMembership))
			var typed *IncompatibleMembershipError
			assert.True(t, errors.As(err, &typed))
		})
	}
}

func TestAddTaskToGroup_RejectsOverCap(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	g := models.Group{
		ID:       uuid.New(),
		Title:    "Email tasks (2)",
		TaskIDs:  []uuid.UUID{uuid.New(), uuid.New()},
		Category: models.CategoryAdmin,
		Duration: models.Duration30,
	}

	_, err := e.AddTaskToGroup(g, task("Reply to Sam", models.CategoryAdmin, models.Duration30))
	assert.ErrorIs(t, err, ErrIncompatibleGroupMembership)
}

func TestRemoveTaskFromGroup(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	g := models.Group{ID: uuid.New(), Title: "Email tasks (3)", TaskIDs: ids, Duration: models.Duration15}

	out := e.RemoveTaskFromGroup(g, ids[1])
	require.NotNil(t, out)
	assert.Equal(t, []uuid.UUID{ids[0], ids[2]}, out.TaskIDs)
	assert.Equal(t, "Email tasks (2)", out.Title)
	assert.Len(t, g.TaskIDs, 3)

	assert.Nil(t, e.RemoveTaskFromGroup(*out, ids[0]), "two-member group must dissolve")
}

func TestResizeGroup(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	g := models.Group{ID: uuid.New(), TaskIDs: []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}, Duration: models.Duration15}

	_, err := e.ResizeGroup(g, models.Duration30)
	assert.ErrorIs(t, err, ErrIncompatibleGroupMembership)

	two := models.Group{ID: uuid.New(), TaskIDs: []uuid.UUID{uuid.New(), uuid.New()}, Duration: models.Duration15}
	out, err := e.ResizeGroup(two, models.Duration30)
	require.NoError(t, err)
	assert.Equal(t, 60, out.TotalMinutes())
}

func TestApplyMembership(t *testing.T) {
	t.Parallel()

	a := task("Reply to John", models.CategoryAdmin, models.Duration15)
	b := task("Reply to Mary", models.CategoryAdmin, models.Duration15)
	c := task("Plan roadmap", models.CategoryDeep, models.Duration60)
	stale := uuid.New()
	c.IsGrouped = true
	c.GroupID = &stale

	res := newTestEngine().GroupTasks([]models.Task{a, b})
	out := ApplyMembership([]models.Task{a, b, c}, res.Groups)

	assert.True(t, out[0].IsGrouped)
	assert.Equal(t, res.Groups[0].ID, *out[0].GroupID)
	assert.True(t, out[1].IsGrouped)
	assert.False(t, out[2].IsGrouped)
	assert.Nil(t, out[2].GroupID)
}
