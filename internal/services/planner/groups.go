package planner

import (
	"context"
	"fmt"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/reorder"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListGroups returns the user's groups for day
func (s *Service) ListGroups(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) ([]models.Group, error) {
	if err := validateDay(day); err != nil {
		return nil, err
	}
	groups, err := s.groups.ListByUser(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// GetGroup returns one of the user's groups
func (s *Service) GetGroup(ctx context.Context, userID, id uuid.UUID) (models.Group, error) {
	group, err := s.groups.GetByID(ctx, userID, id)
	if err != nil {
		return models.Group{}, notFound(err, ErrGroupNotFound)
	}
	return *group, nil
}

// Regroup repairs the day's ordering and clusters every ungrouped task.
// It returns the board and the number of groups formed.
func (s *Service) Regroup(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) (models.Board, int, error) {
	if err := validateDay(day); err != nil {
		return models.Board{}, 0, err
	}

	formed := 0
	board, err := s.update(ctx, "regroup", userID, day, func(b models.Board) (models.Board, error) {
		b, violations := s.reorderer.Normalize(b)
		result := s.grouper.GroupTasks(b.Tasks)
		for _, g := range result.Groups {
			b = s.adopt(b, g)
		}
		formed = len(result.Groups)
		if len(violations) > 0 {
			s.logger.Info("board_ordering_repaired",
				zap.String("user_id", userID.String()),
				zap.Int("cells", len(violations)),
			)
		}
		return s.arrange(b), nil
	})
	if err != nil {
		return models.Board{}, 0, fmt.Errorf("failed to regroup: %w", err)
	}

	s.logger.Info("board_regrouped",
		zap.String("user_id", userID.String()),
		zap.String("scheduled_day", string(day)),
		zap.Int("groups_formed", formed),
	)
	return board, formed, nil
}

// AddTaskToGroup makes an ungrouped task a member of groupID
func (s *Service) AddTaskToGroup(ctx context.Context, userID, groupID, taskID uuid.UUID) (models.Group, error) {
	current, err := s.GetGroup(ctx, userID, groupID)
	if err != nil {
		return models.Group{}, err
	}

	board, err := s.update(ctx, "add_to_group", userID, current.ScheduledDay, func(b models.Board) (models.Board, error) {
		gi := b.GroupIndex(groupID)
		if gi < 0 {
			return b, fmt.Errorf("group %s: %w", groupID, ErrGroupNotFound)
		}
		ti := b.TaskIndex(taskID)
		if ti < 0 {
			return b, fmt.Errorf("task %s on %s: %w", taskID, current.ScheduledDay, ErrTaskNotFound)
		}

		group, err := s.grouper.AddTaskToGroup(b.Groups[gi], b.Tasks[ti])
		if err != nil {
			return b, err
		}
		b.Groups[gi] = group
		b.Tasks[ti].OrderIndex = nil
		b.Tasks[ti].IsPriority = false
		return s.arrange(b), nil
	})
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to add task to group: %w", err)
	}

	group, _ := findGroup(board, groupID)
	s.logger.Info("task_added_to_group",
		zap.String("user_id", userID.String()),
		zap.String("group_id", groupID.String()),
		zap.String("task_id", taskID.String()),
		zap.Int("members", len(group.TaskIDs)),
	)
	return group, nil
}

// RemoveTaskFromGroup takes a member out of groupID. The returned group is
// nil when the removal dissolved it.
func (s *Service) RemoveTaskFromGroup(ctx context.Context, userID, groupID, taskID uuid.UUID) (*models.Group, error) {
	current, err := s.GetGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	board, err := s.update(ctx, "remove_from_group", userID, current.ScheduledDay, func(b models.Board) (models.Board, error) {
		gi := b.GroupIndex(groupID)
		if gi < 0 {
			return b, fmt.Errorf("group %s: %w", groupID, ErrGroupNotFound)
		}
		if !b.Groups[gi].Contains(taskID) {
			return b, fmt.Errorf("task %s is not in group %s: %w", taskID, groupID, ErrTaskNotFound)
		}
		return s.arrange(s.detach(b, taskID)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove task from group: %w", err)
	}

	group, ok := findGroup(board, groupID)
	s.logger.Info("task_removed_from_group",
		zap.String("user_id", userID.String()),
		zap.String("group_id", groupID.String()),
		zap.String("task_id", taskID.String()),
		zap.Bool("dissolved", !ok),
	)
	if !ok {
		return nil, nil
	}
	return &group, nil
}

// DissolveGroup breaks a group up into its member tasks
func (s *Service) DissolveGroup(ctx context.Context, userID, groupID uuid.UUID) (models.Board, error) {
	current, err := s.GetGroup(ctx, userID, groupID)
	if err != nil {
		return models.Board{}, err
	}

	board, err := s.update(ctx, "dissolve_group", userID, current.ScheduledDay, func(b models.Board) (models.Board, error) {
		gi := b.GroupIndex(groupID)
		if gi < 0 {
			return b, fmt.Errorf("group %s: %w", groupID, ErrGroupNotFound)
		}
		return s.arrange(s.dissolve(b, gi, uuid.Nil)), nil
	})
	if err != nil {
		return models.Board{}, fmt.Errorf("failed to dissolve group: %w", err)
	}

	s.logger.Info("group_dissolved",
		zap.String("user_id", userID.String()),
		zap.String("group_id", groupID.String()),
	)
	return board, nil
}

// ResizeGroup changes the duration of every member, moving the group to the
// bottom of its new cell.
func (s *Service) ResizeGroup(ctx context.Context, userID, groupID uuid.UUID, d models.Duration) (models.Group, error) {
	current, err := s.GetGroup(ctx, userID, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if !d.Valid() {
		return models.Group{}, invalid("duration", fmt.Sprintf("unsupported duration %d", d))
	}

	board, err := s.update(ctx, "resize_group", userID, current.ScheduledDay, func(b models.Board) (models.Board, error) {
		gi := b.GroupIndex(groupID)
		if gi < 0 {
			return b, fmt.Errorf("group %s: %w", groupID, ErrGroupNotFound)
		}
		resized, err := s.grouper.ResizeGroup(b.Groups[gi], d)
		if err != nil {
			return b, err
		}
		if resized.Duration == b.Groups[gi].Duration {
			return b, nil
		}
		b, err = s.reorderer.MoveToCell(b, groupID, resized.Cell(), reorder.PositionBottom)
		if err != nil {
			return b, err
		}
		b.Groups[b.GroupIndex(groupID)].UpdatedAt = resized.UpdatedAt
		return s.arrange(b), nil
	})
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to resize group: %w", err)
	}

	group, _ := findGroup(board, groupID)
	return group, nil
}

