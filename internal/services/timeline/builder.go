package timeline

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/benvon/smart-planner/internal/models"
	"go.uber.org/zap"
)

const (
	// DayLengthMinutes is the span every timeline covers.
	DayLengthMinutes = 18 * 60
	// DefaultDayStart is used when the input names no start time.
	DefaultDayStart = "09:00"

	workBlockMinutes  = 50
	shortBreakMinutes = 10
	longBreakMinutes  = 60
)

// Input is everything a timeline depends on
type Input struct {
	Tasks    []models.Task       `json:"tasks"`
	Groups   []models.Group      `json:"groups"`
	Breaks   []models.Break      `json:"breaks"`
	DayStart string              `json:"day_start"`
	Day      models.ScheduledDay `json:"day"`
}

// Builder lays out a day from tasks, groups and breaks
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a timeline builder
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

type item struct {
	start    int
	duration int
	kind     models.SegmentKind
	task     *models.TaskBlock
	brk      *models.BreakBlock

	// rest is the short break owed after an hour-long work block. walk emits
	// it directly after the block wherever the block lands.
	rest *item
}

type autoUnit struct {
	category models.Category
	duration models.Duration
	order    *int
	seq      int
	task     *models.Task
	group    *models.Group
}

// Build returns segments that tile [0, DayLengthMinutes) exactly, in order.
// Tasks with an unparseable time slot are auto-placed. The only error is a
// malformed day start.
func (b *Builder) Build(in Input) ([]models.Segment, error) {
	startText := in.DayStart
	if startText == "" {
		startText = DefaultDayStart
	}
	dayStart, err := ParseClock(startText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse day start: %w", err)
	}
	day := in.Day
	if day == "" {
		day = models.ScheduledDayToday
	}

	var placed []item
	var auto []autoUnit
	seq := 0

	for i := range in.Tasks {
		t := &in.Tasks[i]
		if t.Completed || t.IsGrouped || dayOf(t.ScheduledDay) != day {
			continue
		}
		if t.TimeSlot != nil && *t.TimeSlot != "" {
			clock, err := ParseClock(*t.TimeSlot)
			if err == nil {
				placed = append(placed, taskItem(t, offsetFrom(dayStart, clock), true))
				continue
			}
			b.logger.Warn("timeline_time_slot_ignored",
				zap.String("task_id", t.ID.String()),
				zap.Error(err),
			)
		}
		auto = append(auto, autoUnit{category: t.Category, duration: t.Duration, order: t.OrderIndex, seq: seq, task: t})
		seq++
	}
	for i := range in.Groups {
		g := &in.Groups[i]
		if dayOf(g.ScheduledDay) != day || len(g.TaskIDs) == 0 {
			continue
		}
		auto = append(auto, autoUnit{category: g.Category, duration: g.Duration, order: g.OrderIndex, seq: seq, group: g})
		seq++
	}

	slices.SortStableFunc(auto, compareAuto)

	cursor := 0
	deepPlaced := false
	for _, cat := range models.Categories {
		for _, u := range auto {
			if u.category != cat {
				continue
			}
			var it item
			if u.task != nil {
				it = taskItem(u.task, cursor, false)
			} else {
				it = groupItem(u.group, cursor)
			}
			cursor = it.start + it.duration
			if it.rest != nil {
				cursor += it.rest.duration
			}
			placed = append(placed, it)
			if cat == models.CategoryDeep {
				deepPlaced = true
			}
		}
		if cat == models.CategoryDeep && deepPlaced {
			placed = append(placed, item{
				start:    cursor,
				duration: longBreakMinutes,
				kind:     models.SegmentBreak,
				brk:      &models.BreakBlock{Type: models.BreakTypeFood, Label: "Long break", Automatic: true},
			})
			cursor += longBreakMinutes
		}
	}

	for i := range in.Breaks {
		br := &in.Breaks[i]
		clock, err := ParseClock(br.Start)
		if err != nil {
			b.logger.Warn("timeline_break_ignored",
				zap.String("break_id", br.ID.String()),
				zap.Error(err),
			)
			continue
		}
		id := br.ID
		placed = append(placed, item{
			start:    offsetFrom(dayStart, clock),
			duration: models.UserBreakMinutes,
			kind:     models.SegmentBreak,
			brk:      &models.BreakBlock{BreakID: &id, Type: br.Type, Label: br.Label},
		})
	}

	slices.SortStableFunc(placed, func(a, b item) int {
		return cmp.Compare(a.start, b.start)
	})

	segments := walk(placed, dayStart)
	b.logger.Debug("timeline_built",
		zap.Int("segments", len(segments)),
		zap.Int("auto_units", len(auto)),
	)
	return segments, nil
}

func dayOf(d models.ScheduledDay) models.ScheduledDay {
	if d == "" {
		return models.ScheduledDayToday
	}
	return d
}

// compareAuto orders auto-placed units by category, then longest duration,
// then order index with unset last, then input order.
func compareAuto(a, b autoUnit) int {
	if c := cmp.Compare(a.category.Rank(), b.category.Rank()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.duration, a.duration); c != 0 {
		return c
	}
	switch {
	case a.order != nil && b.order != nil:
		if c := cmp.Compare(*a.order, *b.order); c != 0 {
			return c
		}
	case a.order != nil:
		return -1
	case b.order != nil:
		return 1
	}
	return cmp.Compare(a.seq, b.seq)
}

// taskItem builds the placed item for a task. An hour-long task becomes a
// 50-minute work block carrying a 10-minute break.
func taskItem(t *models.Task, start int, override bool) item {
	id := t.ID
	block := &models.TaskBlock{
		TaskID:     &id,
		Title:      t.Title,
		Category:   t.Category,
		Duration:   t.Duration,
		IsPriority: t.IsPriority,
		Override:   override,
	}

	if t.Duration != models.Duration60 {
		return item{start: start, duration: t.Duration.Minutes(), kind: models.SegmentTask, task: block}
	}
	return item{
		start:    start,
		duration: workBlockMinutes,
		kind:     models.SegmentTask,
		task:     block,
		rest: &item{
			start:    start + workBlockMinutes,
			duration: shortBreakMinutes,
			kind:     models.SegmentBreak,
			brk:      &models.BreakBlock{Type: models.BreakTypeOther, Label: "Break", Automatic: true},
		},
	}
}

func groupItem(g *models.Group, start int) item {
	id := g.ID
	return item{
		start:    start,
		duration: g.TotalMinutes(),
		kind:     models.SegmentTask,
		task: &models.TaskBlock{
			GroupID:    &id,
			Title:      g.Title,
			Category:   g.Category,
			Duration:   g.Duration,
			IsPriority: g.IsPriority,
		},
	}
}

// walk turns start-sorted items into a gapless segment sequence. Items that
// overlap earlier content are pushed to the cursor and shortened; items past
// the end of the day shrink to zero width. A work block's rest follows it
// immediately at full length, cut only by the end of the day.
func walk(items []item, dayStart int) []models.Segment {
	segments := make([]models.Segment, 0, len(items)*3+1)
	cursor := 0

	for _, it := range items {
		start := min(max(it.start, cursor), DayLengthMinutes)
		end := min(max(it.start+it.duration, start), DayLengthMinutes)

		if start > cursor {
			segments = append(segments, gapSegment(cursor, start, dayStart))
		}
		segments = append(segments, segmentFor(it, start, end, dayStart))
		cursor = end

		if it.rest != nil {
			restEnd := min(cursor+it.rest.duration, DayLengthMinutes)
			segments = append(segments, segmentFor(*it.rest, cursor, restEnd, dayStart))
			cursor = restEnd
		}
	}

	if cursor < DayLengthMinutes {
		segments = append(segments, gapSegment(cursor, DayLengthMinutes, dayStart))
	}
	return segments
}

func segmentFor(it item, start, end, dayStart int) models.Segment {
	seg := models.Segment{
		Kind:     it.kind,
		Start:    start,
		Duration: end - start,
		Clock:    FormatClock(dayStart + start),
		Task:     it.task,
		Break:    it.brk,
	}
	if start != it.start || end-start != it.duration {
		seg.Clipped = true
		seg.Planned = &models.PlannedSpan{Start: it.start, Duration: it.duration}
	}
	return seg
}

func gapSegment(from, to, dayStart int) models.Segment {
	return models.Segment{
		Kind:     models.SegmentGap,
		Start:    from,
		Duration: to - from,
		Clock:    FormatClock(dayStart + from),
	}
}

// CacheKey returns a stable digest of every value Build reads. Two inputs
// with the same key produce the same timeline.
func CacheKey(in Input) (string, error) {
	payload, err := json.Marshal(struct {
		Input
		Version int `json:"v"`
	}{Input: in, Version: 2})
	if err != nil {
		return "", fmt.Errorf("failed to encode timeline input: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
