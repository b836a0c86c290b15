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

const taskColumns = `id, user_id, title, category, duration, completed, time_slot, scheduled_day,
	order_index, is_priority, is_grouped, group_id, classification, created_at, updated_at, completed_at`

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// GetByID retrieves one of the user's tasks
func (r *TaskRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// ListByUser retrieves the user's tasks, optionally filtered by day and completion
func (r *TaskRepository) ListByUser(ctx context.Context, userID uuid.UUID, day *models.ScheduledDay, includeCompleted bool) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}
	argIndex := 2

	if day != nil {
		query += fmt.Sprintf(" AND scheduled_day = $%d", argIndex)
		args = append(args, string(*day))
		argIndex++
	}
	if !includeCompleted {
		query += " AND completed = FALSE"
	}
	query += " ORDER BY category, duration DESC, order_index NULLS LAST, created_at"

	return queryTasks(ctx, r.db, query, args...)
}

// ListUnclassified returns the user's open tasks that are pending or fell back to defaults
func (r *TaskRepository) ListUnclassified(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = $1 AND classification IN ($2, $3) AND completed = FALSE
		ORDER BY created_at`
	return queryTasks(ctx, r.db, query, userID,
		string(models.ClassificationPending), string(models.ClassificationDefaulted))
}

func queryTasks(ctx context.Context, q querier, query string, args ...any) ([]models.Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		task        models.Task
		timeSlot    sql.NullString
		orderIndex  sql.NullInt64
		groupID     uuid.NullUUID
		completedAt sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Category,
		&task.Duration,
		&task.Completed,
		&timeSlot,
		&task.ScheduledDay,
		&orderIndex,
		&task.IsPriority,
		&task.IsGrouped,
		&groupID,
		&task.Classification,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	if timeSlot.Valid {
		task.TimeSlot = &timeSlot.String
	}
	if orderIndex.Valid {
		task.OrderIndex = models.IntPtr(int(orderIndex.Int64))
	}
	if groupID.Valid {
		task.GroupID = &groupID.UUID
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	return task, nil
}

func upsertTask(ctx context.Context, q querier, task *models.Task, now time.Time) error {
	query := `
		INSERT INTO tasks (id, user_id, title, category, duration, completed, time_slot, scheduled_day,
			order_index, is_priority, is_grouped, group_id, classification, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14, $15)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    category = EXCLUDED.category,
		    duration = EXCLUDED.duration,
		    completed = EXCLUDED.completed,
		    time_slot = EXCLUDED.time_slot,
		    scheduled_day = EXCLUDED.scheduled_day,
		    order_index = EXCLUDED.order_index,
		    is_priority = EXCLUDED.is_priority,
		    is_grouped = EXCLUDED.is_grouped,
		    group_id = EXCLUDED.group_id,
		    classification = EXCLUDED.classification,
		    updated_at = EXCLUDED.updated_at,
		    completed_at = EXCLUDED.completed_at
		WHERE tasks.user_id = EXCLUDED.user_id
		RETURNING created_at, updated_at
	`

	err := q.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		string(task.Category),
		int(task.Duration),
		task.Completed,
		nullString(task.TimeSlot),
		string(task.ScheduledDay),
		nullInt(task.OrderIndex),
		task.IsPriority,
		task.IsGrouped,
		nullUUID(task.GroupID),
		string(task.Classification),
		now,
		nullTime(task.CompletedAt),
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("task %s belongs to another user: %w", task.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func deleteTasks(ctx context.Context, q querier, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM tasks WHERE user_id = $1 AND id = ANY($2::uuid[])`
	if _, err := q.ExecContext(ctx, query, userID, pq.Array(uuidStrings(ids))); err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q: %w", v, err)
		}
		out = append(out, id)
	}
	return out, nil
}
