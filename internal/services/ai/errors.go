package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // true for quota errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// apiErrorBody is the provider's error object, either bare or under "error"
type apiErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 && !apiErr.IsPermanent
	}

	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}

	errStr := err.Error()
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError extracts API error details from an error
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var existing *APIError
	if errors.As(err, &existing) {
		return existing
	}

	// SDK errors carry the status code and, often, the JSON error body in the message
	errStr := err.Error()
	if strings.Contains(errStr, "429") {
		apiErr := &APIError{
			StatusCode: 429,
			Message:    errStr,
			Type:       "rate_limit_error",
		}

		if jsonStart := strings.Index(errStr, "{"); jsonStart != -1 {
			jsonStr := errStr[jsonStart:]
			if jsonEnd := strings.LastIndex(jsonStr, "}"); jsonEnd != -1 {
				jsonStr = jsonStr[:jsonEnd+1]
				var body struct {
					apiErrorBody
					Error *apiErrorBody `json:"error"`
				}
				if json.Unmarshal([]byte(jsonStr), &body) == nil {
					errorData := body.apiErrorBody
					if body.Error != nil {
						errorData = *body.Error
					}
					apiErr.Message = errorData.Message
					apiErr.Type = errorData.Type
					apiErr.Code = errorData.Code
					apiErr.IsPermanent = errorData.Code == "insufficient_quota"
				}
			}
		}

		retryAfter := 60 * time.Second
		if apiErr.IsPermanent {
			retryAfter = time.Hour
		}
		apiErr.RetryAfter = &retryAfter

		return apiErr
	}

	return nil
}

// GetRetryDelay calculates the delay before retrying based on error type.
// Delays double per attempt from a per-kind base and are capped per kind.
func GetRetryDelay(err error, attempt int) time.Duration {
	shift := uint(min(max(attempt, 0), 10))

	switch {
	case IsQuotaError(err):
		return min(time.Hour*time.Duration(1<<shift), 24*time.Hour)
	case IsRateLimitError(err):
		delay := min(60*time.Second*time.Duration(1<<shift), 15*time.Minute)
		if apiErr := ExtractAPIError(err); apiErr != nil && apiErr.RetryAfter != nil && *apiErr.RetryAfter > delay {
			delay = *apiErr.RetryAfter
		}
		return delay
	case errors.Is(err, ErrClassifierUnavailable):
		return min(30*time.Second*time.Duration(1<<shift), 10*time.Minute)
	default:
		return min(5*time.Second*time.Duration(1<<shift), 5*time.Minute)
	}
}

// IsPermanent reports whether retrying err cannot help
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidClassification) || errors.Is(err, context.Canceled)
}
