package grouping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var countSuffix = regexp.MustCompile(`\(\d+\)\s*$`)

// Result is the outcome of a grouping pass
type Result struct {
	Groups         []models.Group
	UngroupedTasks []models.Task
}

// Option configures an Engine
type Option func(*Engine)

// WithIDGenerator overrides how new group IDs are produced
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithClock overrides the time source used for group timestamps
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) {
		e.now = fn
	}
}

// Engine merges similar same-cell tasks into groups that fit in one hour
type Engine struct {
	logger *zap.Logger
	newID  func() uuid.UUID
	now    func() time.Time
}

// NewEngine creates a grouping engine
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger: logger,
		newID:  uuid.New,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GroupTasks clusters similar tasks. Completed and already-grouped tasks are
// ignored. Tasks are visited in input order, so the result is deterministic
// for a fixed input and ID generator.
func (e *Engine) GroupTasks(tasks []models.Task) Result {
	candidates := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Schedulable() {
			candidates = append(candidates, t)
		}
	}

	consumed := make([]bool, len(candidates))
	var result Result

	for i := range candidates {
		if consumed[i] {
			continue
		}
		anchor := candidates[i]
		consumed[i] = true

		set := []int{i}
		for j := i + 1; j < len(candidates); j++ {
			if consumed[j] || !sameCell(anchor, candidates[j]) {
				continue
			}
			if Similar(anchor.Title, candidates[j].Title) {
				set = append(set, j)
			}
		}

		if len(set) == 1 {
			result.UngroupedTasks = append(result.UngroupedTasks, anchor.Clone())
			continue
		}

		if len(set)*anchor.Duration.Minutes() > models.MaxGroupMinutes {
			// Never merge a subset around the anchor: it stays standalone and
			// its partners remain candidates for later anchors.
			result.UngroupedTasks = append(result.UngroupedTasks, anchor.Clone())
			e.logger.Debug("task_group_over_cap",
				zap.String("cell", anchor.Cell().String()),
				zap.Int("members", len(set)),
			)
			continue
		}

		members := make([]models.Task, 0, len(set))
		for _, idx := range set {
			consumed[idx] = true
			members = append(members, candidates[idx])
		}
		g := e.newGroup(members)
		result.Groups = append(result.Groups, g)
		e.logger.Debug("task_group_formed",
			zap.String("group_id", g.ID.String()),
			zap.String("cell", g.Cell().String()),
			zap.Int("members", len(g.TaskIDs)),
		)
	}

	return result
}

func sameCell(a, b models.Task) bool {
	return a.Category == b.Category && a.Duration == b.Duration && a.ScheduledDay == b.ScheduledDay
}

func (e *Engine) newGroup(members []models.Task) models.Group {
	now := e.now()
	first := members[0]
	g := models.Group{
		ID:           e.newID(),
		UserID:       first.UserID,
		Title:        titleFor(members),
		TaskIDs:      make([]uuid.UUID, 0, len(members)),
		Category:     first.Category,
		Duration:     first.Duration,
		ScheduledDay: first.ScheduledDay,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, m := range members {
		g.TaskIDs = append(g.TaskIDs, m.ID)
		if m.IsPriority {
			g.IsPriority = true
		}
		if m.OrderIndex != nil && (g.OrderIndex == nil || *m.OrderIndex < *g.OrderIndex) {
			g.OrderIndex = models.IntPtr(*m.OrderIndex)
		}
	}
	return g
}

// titleFor names a group by its dominant pattern, then by a common
// significant word, then generically.
func titleFor(members []models.Task) string {
	n := len(members)

	counts := make([]int, len(patterns))
	for _, m := range members {
		for _, idx := range matchPatterns(m.Title) {
			counts[idx]++
		}
	}
	best := -1
	for idx, c := range counts {
		if c >= 2 && c*2 >= n && (best < 0 || c > counts[best]) {
			best = idx
		}
	}
	if best >= 0 {
		return fmt.Sprintf("%s tasks (%d)", patterns[best].label, n)
	}

	wordCounts := make(map[string]int)
	var order []string
	for _, m := range members {
		for _, w := range significantWords(m.Title) {
			if wordCounts[w] == 0 {
				order = append(order, w)
			}
			wordCounts[w]++
		}
	}
	bestWord := ""
	for _, w := range order {
		if wordCounts[w]*2 >= n && (bestWord == "" || wordCounts[w] > wordCounts[bestWord]) {
			bestWord = w
		}
	}
	if bestWord != "" {
		return fmt.Sprintf("%s tasks (%d)", capitalize(bestWord), n)
	}

	return fmt.Sprintf("Similar tasks (%d)", n)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func retitle(title string, n int) string {
	suffix := "(" + strconv.Itoa(n) + ")"
	if countSuffix.MatchString(title) {
		return countSuffix.ReplaceAllString(title, suffix)
	}
	return strings.TrimSpace(title) + " " + suffix
}

// AddTaskToGroup returns a copy of group with task appended. The task must be
// uncompleted, ungrouped and in the group's cell, and the result must still
// fit in MaxGroupMinutes.
func (e *Engine) AddTaskToGroup(group models.Group, task models.Task) (models.Group, error) {
	reject := func(reason string) (models.Group, error) {
		return group, &IncompatibleMembershipError{GroupID: group.ID, TaskID: task.ID, Reason: reason}
	}

	switch {
	case task.Completed:
		return reject("task is completed")
	case group.Contains(task.ID):
		return reject("task is already a member")
	case task.IsGrouped || task.GroupID != nil:
		return reject("task already belongs to a group")
	case task.Category != group.Category || task.Duration != group.Duration:
		return reject("category or duration differs")
	case (len(group.TaskIDs)+1)*group.Duration.Minutes() > models.MaxGroupMinutes:
		return reject(fmt.Sprintf("group would exceed %d minutes", models.MaxGroupMinutes))
	}

	out := group.Clone()
	out.TaskIDs = append(out.TaskIDs, task.ID)
	out.Title = retitle(out.Title, len(out.TaskIDs))
	if task.IsPriority {
		out.IsPriority = true
	}
	out.UpdatedAt = e.now()
	return out, nil
}

// RemoveTaskFromGroup returns a copy of group without taskID. A nil result
// means the group has one or no members left and must be dissolved.
func (e *Engine) RemoveTaskFromGroup(group models.Group, taskID uuid.UUID) *models.Group {
	out := group.Clone()
	if !group.Contains(taskID) {
		if len(out.TaskIDs) <= 1 {
			return nil
		}
		return &out
	}

	kept := out.TaskIDs[:0]
	for _, id := range out.TaskIDs {
		if id != taskID {
			kept = append(kept, id)
		}
	}
	out.TaskIDs = kept
	if len(out.TaskIDs) <= 1 {
		return nil
	}
	out.Title = retitle(out.Title, len(out.TaskIDs))
	out.UpdatedAt = e.now()
	return &out
}

// ResizeGroup changes the per-member duration of group.
func (e *Engine) ResizeGroup(group models.Group, d models.Duration) (models.Group, error) {
	if !d.Valid() {
		return group, &IncompatibleMembershipError{GroupID: group.ID, Reason: fmt.Sprintf("invalid duration %d", d)}
	}
	if len(group.TaskIDs)*d.Minutes() > models.MaxGroupMinutes {
		return group, &IncompatibleMembershipError{
			GroupID: group.ID,
			Reason:  fmt.Sprintf("%d members of %d minutes exceed %d minutes", len(group.TaskIDs), d, models.MaxGroupMinutes),
		}
	}
	out := group.Clone()
	out.Duration = d
	out.UpdatedAt = e.now()
	return out, nil
}

// ApplyMembership returns a copy of tasks with IsGrouped and GroupID set from
// groups. Tasks not in any group are left ungrouped.
func ApplyMembership(tasks []models.Task, groups []models.Group) []models.Task {
	owner := make(map[uuid.UUID]uuid.UUID)
	for _, g := range groups {
		for _, id := range g.TaskIDs {
			owner[id] = g.ID
		}
	}

	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		c := t.Clone()
		if gid, ok := owner[t.ID]; ok {
			c.IsGrouped = true
			c.GroupID = &gid
		} else {
			c.IsGrouped = false
			c.GroupID = nil
		}
		out[i] = c
	}
	return out
}
