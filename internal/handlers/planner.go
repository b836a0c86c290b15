package handlers

import (
	"context"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/services/planner"
	"github.com/benvon/smart-planner/internal/services/reorder"
	"github.com/google/uuid"
)

// Planner is the planning service the HTTP layer drives
type Planner interface {
	Board(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) (models.Board, error)

	CreateTask(ctx context.Context, userID uuid.UUID, in planner.NewTask) (models.Task, error)
	GetTask(ctx context.Context, userID, id uuid.UUID) (models.Task, error)
	ListTasks(ctx context.Context, userID uuid.UUID, day *models.ScheduledDay, includeCompleted bool) ([]models.Task, error)
	UpdateTask(ctx context.Context, userID, id uuid.UUID, patch planner.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, userID, id uuid.UUID) error
	CompleteTask(ctx context.Context, userID, id uuid.UUID, completed bool) (models.Task, error)
	TogglePriority(ctx context.Context, userID, id uuid.UUID) (models.Board, error)
	Reorder(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, ev reorder.Event) (models.Board, error)

	ListGroups(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) ([]models.Group, error)
	GetGroup(ctx context.Context, userID, id uuid.UUID) (models.Group, error)
	Regroup(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) (models.Board, int, error)
	AddTaskToGroup(ctx context.Context, userID, groupID, taskID uuid.UUID) (models.Group, error)
	RemoveTaskFromGroup(ctx context.Context, userID, groupID, taskID uuid.UUID) (*models.Group, error)
	DissolveGroup(ctx context.Context, userID, groupID uuid.UUID) (models.Board, error)
	ResizeGroup(ctx context.Context, userID, groupID uuid.UUID, d models.Duration) (models.Group, error)

	CreateBreak(ctx context.Context, userID uuid.UUID, in planner.NewBreak) (models.Break, error)
	ListBreaks(ctx context.Context, userID uuid.UUID) ([]models.Break, error)
	DeleteBreak(ctx context.Context, userID, id uuid.UUID) error

	Timeline(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, start string) ([]models.Segment, error)
	RequestReclassification(ctx context.Context, userID uuid.UUID) (*queue.Job, error)
}

var _ Planner = (*planner.Service)(nil)
