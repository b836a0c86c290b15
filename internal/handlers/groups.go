package handlers

import (
	"net/http"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// GroupHandler handles task group requests
type GroupHandler struct {
	planner Planner
	logger  *zap.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(p Planner, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{planner: p, logger: logger}
}

// RegisterRoutes registers group routes. The router should already have the /groups prefix.
func (h *GroupHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListGroups).Methods("GET")
	r.HandleFunc("/{id}", h.GetGroup).Methods("GET")
	r.HandleFunc("/{id}", h.ResizeGroup).Methods("PATCH")
	r.HandleFunc("/{id}", h.DissolveGroup).Methods("DELETE")
	r.HandleFunc("/{id}/tasks", h.AddTask).Methods("POST")
	r.HandleFunc("/{id}/tasks/{taskId}", h.RemoveTask).Methods("DELETE")
	r.HandleFunc("/{id}/priority", h.TogglePriority).Methods("POST")
}

// AddTaskRequest names the task to add to a group
type AddTaskRequest struct {
	TaskID uuid.UUID `json:"task_id" validate:"required"`
}

// ResizeGroupRequest sets a group's duration bucket
type ResizeGroupRequest struct {
	Duration models.Duration `json:"duration" validate:"required,duration"`
}

// RemoveTaskResponse reports the group left behind, or null when it was dissolved
type RemoveTaskResponse struct {
	Group     *models.Group `json:"group"`
	Dissolved bool          `json:"dissolved"`
}

// ListGroups lists the user's groups for ?day=
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	day, ok := queryDay(w, r)
	if !ok {
		return
	}

	groups, err := h.planner.ListGroups(r.Context(), userID, day)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	respondJSON(w, http.StatusOK, groups)
}

// GetGroup retrieves a group by ID
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}

	group, err := h.planner.GetGroup(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// AddTask adds a task to a group
func (h *GroupHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}

	var req AddTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	group, err := h.planner.AddTaskToGroup(r.Context(), userID, id, req.TaskID)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// RemoveTask removes a task from a group, dissolving the group when too few members remain
func (h *GroupHandler) RemoveTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskId", "task")
	if !ok {
		return
	}

	group, err := h.planner.RemoveTaskFromGroup(r.Context(), userID, id, taskID)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, RemoveTaskResponse{Group: group, Dissolved: group == nil})
}

// DissolveGroup breaks a group up into its member tasks
func (h *GroupHandler) DissolveGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}

	board, err := h.planner.DissolveGroup(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// ResizeGroup changes a group's duration bucket
func (h *GroupHandler) ResizeGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}

	var req ResizeGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	group, err := h.planner.ResizeGroup(r.Context(), userID, id, req.Duration)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// TogglePriority flips a group's priority flag
func (h *GroupHandler) TogglePriority(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "group")
	if !ok {
		return
	}

	board, err := h.planner.TogglePriority(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}
