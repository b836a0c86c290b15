package ai

import (
	"context"

	"github.com/benvon/smart-planner/internal/logger"
	"github.com/google/uuid"
)

// Context key types for logging (to avoid collisions with string keys)
type contextKey string

const (
	userIDContextKey    contextKey = "user_id"
	taskIDContextKey    contextKey = "task_id"
	requestIDContextKey contextKey = "request_id"
)

const (
	// MaxPreviewLength is the maximum length for preview strings in logs
	MaxPreviewLength = 200
	// RedactedValue is the value used to replace sensitive data
	RedactedValue = "[REDACTED]"
)

// WithUserID tags ctx with the user a classification runs for
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}

// WithTaskID tags ctx with the task being classified
func WithTaskID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, taskIDContextKey, id)
}

// WithRequestID tags ctx with a correlation id (request id or job id)
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// SanitizeAPIKey sanitizes an API key for logging
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt creates a safe preview of a prompt for logging.
// fullLog raises the limit to the debug content size.
func SanitizePrompt(prompt string, fullLog bool) string {
	return preview(prompt, fullLog)
}

// SanitizeResponse creates a safe preview of a model response for logging
func SanitizeResponse(response string, fullLog bool) string {
	return preview(response, fullLog)
}

func preview(s string, fullLog bool) string {
	if fullLog {
		return logger.SanitizeDebugContent(s)
	}
	return logger.SanitizeString(s, MaxPreviewLength)
}

// ExtractRequestID extracts a request ID from context if available
func ExtractRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// ExtractUserID extracts a user ID from context if available
func ExtractUserID(ctx context.Context) string {
	return extractID(ctx, userIDContextKey)
}

// ExtractTaskID extracts a task ID from context if available
func ExtractTaskID(ctx context.Context) string {
	return extractID(ctx, taskIDContextKey)
}

func extractID(ctx context.Context, key contextKey) string {
	switch v := ctx.Value(key).(type) {
	case uuid.UUID:
		return v.String()
	case string:
		return v
	default:
		return ""
	}
}
