package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthPinger is anything that can report its own connectivity
type HealthPinger interface {
	HealthCheck(ctx context.Context) error
}

// PingFunc adapts a function to HealthPinger
type PingFunc func(ctx context.Context) error

// HealthCheck calls f
func (f PingFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// HealthChecker handles health check requests
type HealthChecker struct {
	db     HealthPinger
	redis  HealthPinger
	queue  HealthPinger
	logger *zap.Logger
}

// NewHealthChecker creates a new health checker. Nil dependencies are reported as not configured.
func NewHealthChecker(db, redis, queue HealthPinger, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{db: db, redis: redis, queue: queue, logger: logger}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended probes every dependency.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = map[string]string{
			"database": h.probe(r.Context(), "database", h.db),
			"redis":    h.probe(r.Context(), "redis", h.redis),
			"rabbitmq": h.probe(r.Context(), "rabbitmq", h.queue),
		}
		// Redis and RabbitMQ are optional; only the database makes the API unusable
		if response.Checks["database"] != "healthy" {
			response.Status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		} else {
			for _, v := range response.Checks {
				if v != "healthy" && v != "not configured" {
					response.Status = "degraded"
				}
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed_to_encode_health_response", zap.Error(err))
	}
}

func (h *HealthChecker) probe(ctx context.Context, name string, p HealthPinger) string {
	if p == nil {
		return "not configured"
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.HealthCheck(ctx); err != nil {
		h.logger.Warn("health_check_failed", zap.String("dependency", name), zap.Error(err))
		return "unhealthy"
	}
	return "healthy"
}
