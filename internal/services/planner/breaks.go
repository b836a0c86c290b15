package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/timeline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewBreak is the input for CreateBreak
type NewBreak struct {
	Start string
	Type  models.BreakType
	Label string
}

// CreateBreak pins a 30 minute break to a clock time
func (s *Service) CreateBreak(ctx context.Context, userID uuid.UUID, in NewBreak) (models.Break, error) {
	start := strings.TrimSpace(in.Start)
	if _, err := timeline.ParseClock(start); err != nil {
		return models.Break{}, invalid("start", err.Error())
	}
	kind := in.Type
	if kind == "" {
		kind = models.BreakTypeOther
	}
	if !kind.Valid() {
		return models.Break{}, invalid("type", fmt.Sprintf("unknown break type %q", in.Type))
	}

	b := models.Break{
		ID:        s.newID(),
		UserID:    userID,
		Start:     start,
		Type:      kind,
		Label:     strings.TrimSpace(in.Label),
		CreatedAt: s.now(),
	}
	if err := s.breaks.Create(ctx, &b); err != nil {
		return models.Break{}, fmt.Errorf("failed to create break: %w", err)
	}

	s.logger.Info("break_created",
		zap.String("user_id", userID.String()),
		zap.String("break_id", b.ID.String()),
		zap.String("start", b.Start),
	)
	return b, nil
}

// ListBreaks returns the user's breaks
func (s *Service) ListBreaks(ctx context.Context, userID uuid.UUID) ([]models.Break, error) {
	breaks, err := s.breaks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaks: %w", err)
	}
	return breaks, nil
}

// DeleteBreak removes a break
func (s *Service) DeleteBreak(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.breaks.Delete(ctx, userID, id); err != nil {
		return notFound(err, ErrBreakNotFound)
	}
	return nil
}
