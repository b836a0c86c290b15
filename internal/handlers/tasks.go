package handlers

import (
	"net/http"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/planner"
	"github.com/benvon/smart-planner/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TaskHandler handles task requests
type TaskHandler struct {
	planner Planner
	logger  *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(p Planner, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{planner: p, logger: logger}
}

// RegisterRoutes registers task routes. The router should already have the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
	r.HandleFunc("/{id}/priority", h.TogglePriority).Methods("POST")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title        string              `json:"title" validate:"required,max=500"`
	Category     *models.Category    `json:"category,omitempty" validate:"omitempty,category"`
	Duration     *models.Duration    `json:"duration,omitempty" validate:"omitempty,duration"`
	TimeSlot     *string             `json:"time_slot,omitempty" validate:"omitempty,clock"`
	ScheduledDay models.ScheduledDay `json:"scheduled_day,omitempty" validate:"omitempty,scheduled_day"`
}

// UpdateTaskRequest represents a partial task update
type UpdateTaskRequest struct {
	Title         *string              `json:"title,omitempty" validate:"omitempty,max=500"`
	Category      *models.Category     `json:"category,omitempty" validate:"omitempty,category"`
	Duration      *models.Duration     `json:"duration,omitempty" validate:"omitempty,duration"`
	TimeSlot      *string              `json:"time_slot,omitempty" validate:"omitempty,clock"`
	ClearTimeSlot bool                 `json:"clear_time_slot,omitempty"`
	ScheduledDay  *models.ScheduledDay `json:"scheduled_day,omitempty" validate:"omitempty,scheduled_day"`
}

// CompleteTaskRequest reopens a task when Completed is false. An empty body completes it.
type CompleteTaskRequest struct {
	Completed *bool `json:"completed,omitempty"`
}

// ListTasks lists the user's tasks, optionally for one day
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var day *models.ScheduledDay
	if r.URL.Query().Get("day") != "" {
		d, ok := queryDay(w, r)
		if !ok {
			return
		}
		day = &d
	}

	tasks, err := h.planner.ListTasks(r.Context(), userID, day, queryBool(r, "include_completed"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "title is required and cannot be empty after sanitization")
		return
	}

	task, err := h.planner.CreateTask(r.Context(), userID, planner.NewTask{
		Title:        title,
		Category:     req.Category,
		Duration:     req.Duration,
		TimeSlot:     req.TimeSlot,
		ScheduledDay: req.ScheduledDay,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}

	task, err := h.planner.GetTask(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask applies a partial update
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TimeSlot != nil && req.ClearTimeSlot {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "time_slot and clear_time_slot are mutually exclusive")
		return
	}

	patch := planner.TaskPatch{
		Category:      req.Category,
		Duration:      req.Duration,
		TimeSlot:      req.TimeSlot,
		ClearTimeSlot: req.ClearTimeSlot,
		ScheduledDay:  req.ScheduledDay,
	}
	if req.Title != nil {
		title := validation.SanitizeText(*req.Title)
		patch.Title = &title
	}

	task, err := h.planner.UpdateTask(r.Context(), userID, id, patch)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}

	if err := h.planner.DeleteTask(r.Context(), userID, id); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask marks a task completed, or reopens it
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}

	completed := true
	if r.ContentLength != 0 {
		var req CompleteTaskRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Completed != nil {
			completed = *req.Completed
		}
	}

	task, err := h.planner.CompleteTask(r.Context(), userID, id, completed)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// TogglePriority flips the priority flag of a task or group and returns its day's board
func (h *TaskHandler) TogglePriority(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "task")
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
