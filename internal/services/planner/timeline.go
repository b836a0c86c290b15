package planner

import (
	"context"
	"fmt"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/timeline"
	"github.com/benvon/smart-planner/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Timeline lays out the user's day starting at start, or the configured
// day start when start is empty.
func (s *Service) Timeline(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, start string) ([]models.Segment, error) {
	ctx, span := telemetry.StartSpan(ctx, "planner.timeline",
		attribute.String("planner.user_id", userID.String()),
		attribute.String("planner.day", string(day)),
	)
	segments, err := s.timeline(ctx, userID, day, start)
	telemetry.EndSpan(span, err)
	return segments, err
}

func (s *Service) timeline(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, start string) ([]models.Segment, error) {
	if err := validateDay(day); err != nil {
		return nil, err
	}
	if start == "" {
		start = s.settings.DayStart
	}
	if _, err := timeline.ParseClock(start); err != nil {
		return nil, invalid("start", err.Error())
	}

	board, err := s.boards.Load(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}
	breaks, err := s.breaks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaks: %w", err)
	}

	in := timeline.Input{
		Tasks:    board.Tasks,
		Groups:   board.Groups,
		Breaks:   breaks,
		DayStart: start,
		Day:      day,
	}

	key, keyErr := timeline.CacheKey(in)
	if s.cache != nil && keyErr == nil {
		cached, ok, err := s.cache.Get(ctx, userID, key)
		switch {
		case err != nil:
			s.logger.Warn("timeline_cache_get_failed", zap.String("user_id", userID.String()), zap.Error(err))
		case ok:
			s.logger.Debug("timeline_cache_hit", zap.String("user_id", userID.String()))
			return cached, nil
		}
	}

	segments, err := s.builder.Build(in)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && keyErr == nil {
		if err := s.cache.Set(ctx, userID, key, segments); err != nil {
			s.logger.Warn("timeline_cache_set_failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	s.logger.Debug("timeline_built",
		zap.String("user_id", userID.String()),
		zap.String("scheduled_day", string(day)),
		zap.Int("segments", len(segments)),
	)
	return segments, nil
}
