package handlers

import (
	"net/http"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/planner"
	"github.com/benvon/smart-planner/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// BreakHandler handles user break requests
type BreakHandler struct {
	planner Planner
	logger  *zap.Logger
}

// NewBreakHandler creates a new break handler
func NewBreakHandler(p Planner, logger *zap.Logger) *BreakHandler {
	return &BreakHandler{planner: p, logger: logger}
}

// RegisterRoutes registers break routes. The router should already have the /breaks prefix.
func (h *BreakHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListBreaks).Methods("GET")
	r.HandleFunc("", h.CreateBreak).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteBreak).Methods("DELETE")
}

// CreateBreakRequest represents a create break request
type CreateBreakRequest struct {
	Start string           `json:"start" validate:"required,clock"`
	Type  models.BreakType `json:"type,omitempty" validate:"omitempty,break_type"`
	Label string           `json:"label,omitempty" validate:"max=100"`
}

// ListBreaks lists the user's breaks
func (h *BreakHandler) ListBreaks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	breaks, err := h.planner.ListBreaks(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	if breaks == nil {
		breaks = []models.Break{}
	}
	respondJSON(w, http.StatusOK, breaks)
}

// CreateBreak creates a fixed 30 minute break
func (h *BreakHandler) CreateBreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateBreakRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	brk, err := h.planner.CreateBreak(r.Context(), userID, planner.NewBreak{
		Start: req.Start,
		Type:  req.Type,
		Label: validation.SanitizeText(req.Label),
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, brk)
}

// DeleteBreak deletes a break
func (h *BreakHandler) DeleteBreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "break")
	if !ok {
		return
	}

	if err := h.planner.DeleteBreak(r.Context(), userID, id); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
