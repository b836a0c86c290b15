package database

import (
	"context"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
)

// UserRepositoryInterface defines the user operations the auth layer needs
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
}

// TaskRepositoryInterface defines read access to tasks outside a board update
type TaskRepositoryInterface interface {
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error)
	ListByUser(ctx context.Context, userID uuid.UUID, day *models.ScheduledDay, includeCompleted bool) ([]models.Task, error)
	ListUnclassified(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
}

// GroupRepositoryInterface defines read access to task groups
type GroupRepositoryInterface interface {
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Group, error)
	ListByUser(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) ([]models.Group, error)
}

// BreakRepositoryInterface defines break operations
type BreakRepositoryInterface interface {
	Create(ctx context.Context, b *models.Break) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Break, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// BoardRepositoryInterface defines whole-day reads and atomic read-modify-write updates
type BoardRepositoryInterface interface {
	Load(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) (models.Board, error)
	Update(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, fn func(models.Board) (models.Board, error)) (models.Board, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface  = (*UserRepository)(nil)
	_ TaskRepositoryInterface  = (*TaskRepository)(nil)
	_ GroupRepositoryInterface = (*GroupRepository)(nil)
	_ BreakRepositoryInterface = (*BreakRepository)(nil)
	_ BoardRepositoryInterface = (*BoardRepository)(nil)
)
