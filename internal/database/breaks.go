package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
)

// BreakRepository handles user break database operations
type BreakRepository struct {
	db *DB
}

// NewBreakRepository creates a new break repository
func NewBreakRepository(db *DB) *BreakRepository {
	return &BreakRepository{db: db}
}

// Create stores a new break
func (r *BreakRepository) Create(ctx context.Context, b *models.Break) error {
	query := `
		INSERT INTO breaks (id, user_id, start_time, type, label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		b.ID,
		b.UserID,
		b.Start,
		string(b.Type),
		b.Label,
		time.Now(),
	).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create break: %w", err)
	}
	return nil
}

// ListByUser retrieves all of the user's breaks
func (r *BreakRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Break, error) {
	query := `
		SELECT id, user_id, start_time, type, label, created_at
		FROM breaks
		WHERE user_id = $1
		ORDER BY start_time, created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query breaks: %w", err)
	}
	defer rows.Close()

	var breaks []models.Break
	for rows.Next() {
		var b models.Break
		if err := rows.Scan(&b.ID, &b.UserID, &b.Start, &b.Type, &b.Label, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan break: %w", err)
		}
		breaks = append(breaks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating breaks: %w", err)
	}
	return breaks, nil
}

// Delete removes one of the user's breaks
func (r *BreakRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM breaks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete break: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("break not found: %w", ErrNotFound)
	}
	return nil
}
