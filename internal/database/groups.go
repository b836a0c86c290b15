package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const groupColumns = `id, user_id, title, task_ids, category, duration, order_index, is_priority,
	scheduled_day, created_at, updated_at`

// GroupRepository handles task group database operations
type GroupRepository struct {
	db *DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// GetByID retrieves one of the user's groups
func (r *GroupRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM task_groups WHERE id = $1 AND user_id = $2`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

// ListByUser retrieves the user's groups for a day
func (r *GroupRepository) ListByUser(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) ([]models.Group, error) {
	return listGroups(ctx, r.db, userID, day)
}

func listGroups(ctx context.Context, q querier, userID uuid.UUID, day models.ScheduledDay) ([]models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM task_groups
		WHERE user_id = $1 AND scheduled_day = $2
		ORDER BY category, duration DESC, order_index NULLS LAST, created_at`

	rows, err := q.QueryContext(ctx, query, userID, string(day))
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, nil
}

func scanGroup(row rowScanner) (models.Group, error) {
	var (
		group      models.Group
		taskIDs    []string
		orderIndex sql.NullInt64
	)

	err := row.Scan(
		&group.ID,
		&group.UserID,
		&group.Title,
		pq.Array(&taskIDs),
		&group.Category,
		&group.Duration,
		&orderIndex,
		&group.IsPriority,
		&group.ScheduledDay,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		return models.Group{}, err
	}

	ids, err := parseUUIDs(taskIDs)
	if err != nil {
		return models.Group{}, err
	}
	group.TaskIDs = ids
	if orderIndex.Valid {
		group.OrderIndex = models.IntPtr(int(orderIndex.Int64))
	}
	return group, nil
}

func upsertGroup(ctx context.Context, q querier, group *models.Group, now time.Time) error {
	query := `
		INSERT INTO task_groups (id, user_id, title, task_ids, category, duration, order_index,
			is_priority, scheduled_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4::uuid[], $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    task_ids = EXCLUDED.task_ids,
		    category = EXCLUDED.category,
		    duration = EXCLUDED.duration,
		    order_index = EXCLUDED.order_index,
		    is_priority = EXCLUDED.is_priority,
		    scheduled_day = EXCLUDED.scheduled_day,
		    updated_at = EXCLUDED.updated_at
		WHERE task_groups.user_id = EXCLUDED.user_id
		RETURNING created_at, updated_at
	`

	err := q.QueryRowContext(ctx, query,
		group.ID,
		group.UserID,
		group.Title,
		pq.Array(uuidStrings(group.TaskIDs)),
		string(group.Category),
		int(group.Duration),
		nullInt(group.OrderIndex),
		group.IsPriority,
		string(group.ScheduledDay),
		now,
	).Scan(&group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("group %s belongs to another user: %w", group.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}
	return nil
}

func deleteGroups(ctx context.Context, q querier, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM task_groups WHERE user_id = $1 AND id = ANY($2::uuid[])`
	if _, err := q.ExecContext(ctx, query, userID, pq.Array(uuidStrings(ids))); err != nil {
		return fmt.Errorf("failed to delete groups: %w", err)
	}
	return nil
}
