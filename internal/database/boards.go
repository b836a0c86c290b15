package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
)

// BoardRepository loads and saves a user's day as a single unit so that
// ordering and group membership are always written together.
type BoardRepository struct {
	db  *DB
	now func() time.Time
}

// NewBoardRepository creates a new board repository
func NewBoardRepository(db *DB) *BoardRepository {
	return &BoardRepository{db: db, now: time.Now}
}

// Load reads every task and group the user has on day
func (r *BoardRepository) Load(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) (models.Board, error) {
	return loadBoard(ctx, r.db, userID, day)
}

// Update loads the day under a per-user advisory lock, passes it to fn and
// persists the result. Tasks and groups missing from the returned board are deleted.
func (r *BoardRepository) Update(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, fn func(models.Board) (models.Board, error)) (models.Board, error) {
	var saved models.Board

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID.String()); err != nil {
			return fmt.Errorf("failed to lock board: %w", err)
		}

		prev, err := loadBoard(ctx, tx, userID, day)
		if err != nil {
			return err
		}

		next, err := fn(prev.Clone())
		if err != nil {
			return err
		}

		if err := saveBoard(ctx, tx, userID, prev, &next, r.now()); err != nil {
			return err
		}
		saved = next
		return nil
	})
	if err != nil {
		return models.Board{}, err
	}
	return saved, nil
}

func loadBoard(ctx context.Context, q querier, userID uuid.UUID, day models.ScheduledDay) (models.Board, error) {
	tasks, err := queryTasks(ctx, q, `SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1 AND scheduled_day = $2
		ORDER BY created_at`, userID, string(day))
	if err != nil {
		return models.Board{}, fmt.Errorf("failed to load board tasks: %w", err)
	}

	groups, err := listGroups(ctx, q, userID, day)
	if err != nil {
		return models.Board{}, fmt.Errorf("failed to load board groups: %w", err)
	}

	return models.Board{Tasks: tasks, Groups: groups}, nil
}

func saveBoard(ctx context.Context, q querier, userID uuid.UUID, prev models.Board, next *models.Board, now time.Time) error {
	keepGroups := make(map[uuid.UUID]bool, len(next.Groups))
	for i := range next.Groups {
		g := &next.Groups[i]
		g.UserID = userID
		keepGroups[g.ID] = true
		if err := upsertGroup(ctx, q, g, now); err != nil {
			return err
		}
	}

	keepTasks := make(map[uuid.UUID]bool, len(next.Tasks))
	for i := range next.Tasks {
		t := &next.Tasks[i]
		t.UserID = userID
		keepTasks[t.ID] = true
		if err := upsertTask(ctx, q, t, now); err != nil {
			return err
		}
	}

	if err := deleteTasks(ctx, q, userID, removedTasks(prev, keepTasks)); err != nil {
		return err
	}
	return deleteGroups(ctx, q, userID, removedGroups(prev, keepGroups))
}

func removedTasks(prev models.Board, keep map[uuid.UUID]bool) []uuid.UUID {
	var out []uuid.UUID
	for _, t := range prev.Tasks {
		if !keep[t.ID] {
			out = append(out, t.ID)
		}
	}
	return out
}

func removedGroups(prev models.Board, keep map[uuid.UUID]bool) []uuid.UUID {
	var out []uuid.UUID
	for _, g := range prev.Groups {
		if !keep[g.ID] {
			out = append(out, g.ID)
		}
	}
	return out
}
