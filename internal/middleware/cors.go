package middleware

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// CORS returns rs/cors middleware for the configured origins
func CORS(origins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		MaxAge:           600,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch,
			http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	})

	logger.Info("cors_configured", zap.Strings("allowed_origins", origins))
	return c.Handler
}
