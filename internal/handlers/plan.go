package handlers

import (
	"net/http"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/reorder"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PlanHandler serves whole-day views and board-wide operations
type PlanHandler struct {
	planner Planner
	logger  *zap.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(p Planner, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{planner: p, logger: logger}
}

// RegisterRoutes registers plan routes. The router should already have the /plan prefix.
func (h *PlanHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/board", h.GetBoard).Methods("GET")
	r.HandleFunc("/timeline", h.GetTimeline).Methods("GET")
	r.HandleFunc("/regroup", h.Regroup).Methods("POST")
	r.HandleFunc("/reorder", h.Reorder).Methods("POST")
	r.HandleFunc("/reclassify", h.Reclassify).Methods("POST")
}

// TimelineResponse is a laid out day
type TimelineResponse struct {
	Day      models.ScheduledDay `json:"day"`
	Start    string              `json:"start,omitempty"`
	Segments []models.Segment    `json:"segments"`
}

// RegroupResponse reports the board after a regroup
type RegroupResponse struct {
	Board        models.Board `json:"board"`
	GroupsFormed int          `json:"groups_formed"`
}

// ReclassifyResponse identifies the queued job
type ReclassifyResponse struct {
	JobID string `json:"job_id"`
}

// GetBoard returns the tasks and groups of ?day=
func (h *PlanHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	day, ok := queryDay(w, r)
	if !ok {
		return
	}

	board, err := h.planner.Board(r.Context(), userID, day)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// GetTimeline lays out ?day= from ?start= (HH:MM, defaults to the configured day start)
func (h *PlanHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	day, ok := queryDay(w, r)
	if !ok {
		return
	}
	start := r.URL.Query().Get("start")

	segments, err := h.planner.Timeline(r.Context(), userID, day, start)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	if segments == nil {
		segments = []models.Segment{}
	}
	respondJSON(w, http.StatusOK, TimelineResponse{Day: day, Start: start, Segments: segments})
}

// Regroup runs automatic grouping over every ungrouped task of ?day=
func (h *PlanHandler) Regroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	day, ok := queryDay(w, r)
	if !ok {
		return
	}

	board, formed, err := h.planner.Regroup(r.Context(), userID, day)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, RegroupResponse{Board: board, GroupsFormed: formed})
}

// Reorder applies a drag-and-drop event to ?day=
func (h *PlanHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	day, ok := queryDay(w, r)
	if !ok {
		return
	}

	var ev reorder.Event
	if !decodeJSON(w, r, &ev) {
		return
	}

	board, err := h.planner.Reorder(r.Context(), userID, day, ev)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// Reclassify queues classification for every task still waiting on it
func (h *PlanHandler) Reclassify(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	job, err := h.planner.RequestReclassification(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, ReclassifyResponse{JobID: job.ID.String()})
}
