package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/smart-planner/internal/middleware"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/services/planner"
	"github.com/benvon/smart-planner/internal/services/reorder"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// mockPlanner implements Planner with optional per-method overrides
type mockPlanner struct {
	createTaskFunc     func(ctx context.Context, userID uuid.UUID, in planner.NewTask) (models.Task, error)
	getTaskFunc        func(ctx context.Context, userID, id uuid.UUID) (models.Task, error)
	listTasksFunc      func(ctx context.Context, userID uuid.UUID, day *models.ScheduledDay, includeCompleted bool) ([]models.Task, error)
	updateTaskFunc     func(ctx context.Context, userID, id uuid.UUID, patch planner.TaskPatch) (models.Task, error)
	deleteTaskFunc     func(ctx context.Context, userID, id uuid.UUID) error
	completeTaskFunc   func(ctx context.Context, userID, id uuid.UUID, completed bool) (models.Task, error)
	togglePriorityFunc func(ctx context.Context, userID, id uuid.UUID) (models.Board, error)
	reorderFunc        func(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, ev reorder.Event) (models.Board, error)
	addTaskFunc        func(ctx context.Context, userID, groupID, taskID uuid.UUID) (models.Group, error)
	removeTaskFunc     func(ctx context.Context, userID, groupID, taskID uuid.UUID) (*models.Group, error)
	regroupFunc        func(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) (models.Board, int, error)
	createBreakFunc    func(ctx context.Context, userID uuid.UUID, in planner.NewBreak) (models.Break, error)
	timelineFunc       func(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, start string) ([]models.Segment, error)
	reclassifyFunc     func(ctx context.Context, userID uuid.UUID) (*queue.Job, error)
}

func (m *mockPlanner) Board(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) (models.Board, error) {
	return models.Board{}, nil
}

func (m *mockPlanner) CreateTask(ctx context.Context, userID uuid.UUID, in planner.NewTask) (models.Task, error) {
	if m.createTaskFunc != nil {
		return m.createTaskFunc(ctx, userID, in)
	}
	return models.Task{ID: uuid.New(), UserID: userID, Title: in.Title}, nil
}

func (m *mockPlanner) GetTask(ctx context.Context, userID, id uuid.UUID) (models.Task, error) {
	if m.getTaskFunc != nil {
		return m.getTaskFunc(ctx, userID, id)
	}
	return models.Task{ID: id, UserID: userID}, nil
}

func (m *mockPlanner) ListTasks(ctx context.Context, userID uuid.UUID, day *models.ScheduledDay, includeCompleted bool) ([]models.Task, error) {
	if m.listTasksFunc != nil {
		return m.listTasksFunc(ctx, userID, day, includeCompleted)
	}
	return nil, nil
}

func (m *mockPlanner) UpdateTask(ctx context.Context, userID, id uuid.UUID, patch planner.TaskPatch) (models.Task, error) {
	if m.updateTaskFunc != nil {
		return m.updateTaskFunc(ctx, userID, id, patch)
	}
	return models.Task{ID: id}, nil
}

func (m *mockPlanner) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	if m.deleteTaskFunc != nil {
		return m.deleteTaskFunc(ctx, userID, id)
	}
	return nil
}

func (m *mockPlanner) CompleteTask(ctx context.Context, userID, id uuid.UUID, completed bool) (models.Task, error) {
	if m.completeTaskFunc != nil {
		return m.completeTaskFunc(ctx, userID, id, completed)
	}
	return models.Task{ID: id, Completed: completed}, nil
}

func (m *mockPlanner) TogglePriority(ctx context.Context, userID, id uuid.UUID) (models.Board, error) {
	if m.togglePriorityFunc != nil {
		return m.togglePriorityFunc(ctx, userID, id)
	}
	return models.Board{}, nil
}

func (m *mockPlanner) Reorder(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, ev reorder.Event) (models.Board, error) {
	if m.reorderFunc != nil {
		return m.reorderFunc(ctx, userID, day, ev)
	}
	return models.Board{}, nil
}

func (m *mockPlanner) ListGroups(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) ([]models.Group, error) {
	return nil, nil
}

func (m *mockPlanner) GetGroup(ctx context.Context, userID, id uuid.UUID) (models.Group, error) {
	return models.Group{ID: id}, nil
}

func (m *mockPlanner) Regroup(ctx context.Context, userID uuid.UUID, day models.ScheduledDay) (models.Board, int, error) {
	if m.regroupFunc != nil {
		return m.regroupFunc(ctx, userID, day)
	}
	return models.Board{}, 0, nil
}

func (m *mockPlanner) AddTaskToGroup(ctx context.Context, userID, groupID, taskID uuid.UUID) (models.Group, error) {
	if m.addTaskFunc != nil {
		return m.addTaskFunc(ctx, userID, groupID, taskID)
	}
	return models.Group{ID: groupID, TaskIDs: []uuid.UUID{taskID}}, nil
}

func (m *mockPlanner) RemoveTaskFromGroup(ctx context.Context, userID, groupID, taskID uuid.UUID) (*models.Group, error) {
	if m.removeTaskFunc != nil {
		return m.removeTaskFunc(ctx, userID, groupID, taskID)
	}
	return nil, nil
}

func (m *mockPlanner) DissolveGroup(ctx context.Context, userID, groupID uuid.UUID) (models.Board, error) {
	return models.Board{}, nil
}

func (m *mockPlanner) ResizeGroup(ctx context.Context, userID, groupID uuid.UUID, d models.Duration) (models.Group, error) {
	return models.Group{ID: groupID, Duration: d}, nil
}

func (m *mockPlanner) CreateBreak(ctx context.Context, userID uuid.UUID, in planner.NewBreak) (models.Break, error) {
	if m.createBreakFunc != nil {
		return m.createBreakFunc(ctx, userID, in)
	}
	return models.Break{ID: uuid.New(), Start: in.Start, Type: in.Type, Label: in.Label}, nil
}

func (m *mockPlanner) ListBreaks(ctx context.Context, userID uuid.UUID) ([]models.Break, error) {
	return nil, nil
}

func (m *mockPlanner) DeleteBreak(ctx context.Context, userID, id uuid.UUID) error {
	return nil
}

func (m *mockPlanner) Timeline(ctx context.Context, userID uuid.UUID, day models.ScheduledDay, start string) ([]models.Segment, error) {
	if m.timelineFunc != nil {
		return m.timelineFunc(ctx, userID, day, start)
	}
	return nil, nil
}

func (m *mockPlanner) RequestReclassification(ctx context.Context, userID uuid.UUID) (*queue.Job, error) {
	if m.reclassifyFunc != nil {
		return m.reclassifyFunc(ctx, userID)
	}
	return queue.NewJob(queue.JobTypeReclassifyUser, userID, nil), nil
}

var testUserID = uuid.MustParse("6f1c2a3e-0000-4000-8000-000000000001")

// newTestRouter mounts every planner handler the way the server does,
// authenticating each request as testUserID unless anonymous is set.
func newTestRouter(p Planner, anonymous bool) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	if !anonymous {
		api.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := middleware.SetUserInContext(req.Context(), &models.User{ID: testUserID})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}

	logger := zap.NewNop()
	NewTaskHandler(p, logger).RegisterRoutes(api.PathPrefix("/tasks").Subrouter())
	NewGroupHandler(p, logger).RegisterRoutes(api.PathPrefix("/groups").Subrouter())
	NewBreakHandler(p, logger).RegisterRoutes(api.PathPrefix("/breaks").Subrouter())
	NewPlanHandler(p, logger).RegisterRoutes(api.PathPrefix("/plan").Subrouter())
	return r
}
