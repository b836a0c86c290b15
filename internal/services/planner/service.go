package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/config"
	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/services/grouping"
	"github.com/benvon/smart-planner/internal/services/reorder"
	"github.com/benvon/smart-planner/internal/services/timeline"
	"github.com/benvon/smart-planner/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// TimelineCache memoizes built timelines by input hash
type TimelineCache interface {
	Get(ctx context.Context, userID uuid.UUID, key string) ([]models.Segment, bool, error)
	Set(ctx context.Context, userID uuid.UUID, key string, segments []models.Segment) error
}

// Settings are the planner defaults the service applies
type Settings struct {
	DayStart         string
	AutoGroup        bool
	FallbackCategory models.Category
	FallbackDuration models.Duration
}

// SettingsFromConfig copies the relevant planner configuration
func SettingsFromConfig(p config.Planner) Settings {
	return Settings{
		DayStart:         p.DayStart,
		AutoGroup:        p.AutoGroup,
		FallbackCategory: p.FallbackCategory,
		FallbackDuration: p.FallbackDuration,
	}
}

// Deps are the service's collaborators. Cache and Jobs are optional.
type Deps struct {
	Boards database.BoardRepositoryInterface
	Tasks  database.TaskRepositoryInterface
	Groups database.GroupRepositoryInterface
	Breaks database.BreakRepositoryInterface
	Cache  TimelineCache
	Jobs   queue.Enqueuer
}

// Option configures a Service
type Option func(*Service)

// WithIDGenerator overrides how task, group and break IDs are produced
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithClock overrides the service time source
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		s.now = fn
	}
}

// Service applies user edits to a persisted day. Every mutation runs
// edit, grouping, reorder invariants inside one board transaction; timelines
// are derived on read.
type Service struct {
	boards database.BoardRepositoryInterface
	tasks  database.TaskRepositoryInterface
	groups database.GroupRepositoryInterface
	breaks database.BreakRepositoryInterface
	cache  TimelineCache
	jobs   queue.Enqueuer

	grouper   *grouping.Engine
	reorderer *reorder.Manager
	builder   *timeline.Builder

	settings Settings
	logger   *zap.Logger
	newID    func() uuid.UUID
	now      func() time.Time
}

// NewService creates a planner service
func NewService(deps Deps, settings Settings, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.DayStart == "" {
		settings.DayStart = timeline.DefaultDayStart
	}
	if !settings.FallbackCategory.Valid() {
		settings.FallbackCategory = models.CategoryLight
	}
	if !settings.FallbackDuration.Valid() {
		settings.FallbackDuration = models.Duration30
	}

	s := &Service{
		boards:   deps.Boards,
		tasks:    deps.Tasks,
		groups:   deps.Groups,
		breaks:   deps.Breaks,
		cache:    deps.Cache,
		jobs:     deps.Jobs,
		settings: settings,
		logger:   logger,
		newID:    uuid.New,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.grouper = grouping.NewEngine(logger,
		grouping.WithIDGenerator(func() uuid.UUID { return s.newID() }),
		grouping.WithClock(func() time.Time { return s.now() }),
	)
	s.reorderer = reorder.NewManager(logger)
	s.builder = timeline.NewBuilder(logger)
	return s
}

// Board returns the user's tasks and groups for day
func (s *Service) Board(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) (models.Board, error) {
	if err := validateDay(day); err != nil {
		return models.Board{}, err
	}
	board, err := s.boards.Load(ctx, userID, day)
	if err != nil {
		return models.Board{}, fmt.Errorf("failed to load board: %w", err)
	}
	return board, nil
}

// update runs fn against the stored day inside a traced board transaction
func (s *Service) update(ctx context.Context, op string, userID uuid.UUID, day models.ScheduledDay, fn func(models.Board) (models.Board, error)) (models.Board, error) {
	ctx, span := telemetry.StartSpan(ctx, "planner."+op,
		attribute.String("planner.user_id", userID.String()),
		attribute.String("planner.day", string(day)),
	)
	board, err := s.boards.Update(ctx, userID, day, fn)
	telemetry.EndSpan(span, err)
	return board, err
}

// dayOfItem finds which day a task or group id lives on
func (s *Service) dayOfItem(ctx context.Context, userID, id uuid.UUID) (models.ScheduledDay, error) {
	task, err := s.tasks.GetByID(ctx, userID, id)
	if err == nil {
		return task.ScheduledDay, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return "", err
	}

	group, err := s.groups.GetByID(ctx, userID, id)
	if err != nil {
		return "", fmt.Errorf("item %s: %w", id, notFound(err, reorder.ErrItemNotFound))
	}
	return group.ScheduledDay, nil
}

func validateDay(day models.ScheduledDay) error {
	if !day.Valid() {
		return invalid("scheduled_day", fmt.Sprintf("%q is not today or tomorrow", day))
	}
	return nil
}
