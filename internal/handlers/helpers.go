package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	logpkg "github.com/benvon/smart-planner/internal/logger"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/request"
	"github.com/benvon/smart-planner/internal/services/grouping"
	"github.com/benvon/smart-planner/internal/services/planner"
	"github.com/benvon/smart-planner/internal/services/reorder"
	"github.com/benvon/smart-planner/internal/services/timeline"
	"github.com/benvon/smart-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage strips control characters and bounds the length
func sanitizeErrorMessage(message string) string {
	return logpkg.SanitizeLine(message, 200)
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondServiceError maps planner errors onto HTTP statuses. Unknown
// errors are logged and reported without detail.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var validationErr *planner.ValidationError
	var membershipErr *grouping.IncompatibleMembershipError

	switch {
	case errors.As(err, &validationErr):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationErr.Error())
	case errors.Is(err, planner.ErrInvalidInput),
		errors.Is(err, reorder.ErrInvalidEvent),
		errors.Is(err, reorder.ErrDifferentCells),
		errors.Is(err, timeline.ErrMalformedTimeReference):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, planner.ErrTaskNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
	case errors.Is(err, planner.ErrGroupNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Group not found")
	case errors.Is(err, planner.ErrBreakNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Break not found")
	case errors.Is(err, reorder.ErrItemNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Item not found")
	case errors.As(err, &membershipErr):
		respondJSONError(w, http.StatusConflict, "Conflict", membershipErr.Error())
	case errors.Is(err, planner.ErrQueueUnavailable):
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Classification queue is not configured")
	default:
		logger.Error("request_failed",
			zap.String("method", r.Method),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.String("request_id", request.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}
}

// currentUser returns the authenticated user's id or answers 401
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses the named mux variable as a UUID or answers 400
func pathID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// queryDay reads ?day=, defaulting to today
func queryDay(w http.ResponseWriter, r *http.Request) (models.ScheduledDay, bool) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		return models.ScheduledDayToday, true
	}
	day := models.ScheduledDay(raw)
	if !day.Valid() {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "day must be today or tomorrow")
		return "", false
	}
	return day, true
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// decodeJSON decodes and validates the request body into dst. It answers
// the request and returns false on any failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+validation.Describe(err))
		return false
	}
	return true
}
