package middleware

import (
	"net/http"

	logpkg "github.com/benvon/smart-planner/internal/logger"
	"github.com/benvon/smart-planner/internal/request"
	"go.uber.org/zap"
)

// Audit logs security-related events for monitoring
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r)

			var event string
			switch wrapped.statusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				event = "security_event"
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			default:
				return
			}

			fields := []zap.Field{
				zap.Int("status_code", wrapped.statusCode),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeLine(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
			}
			if id := request.RequestIDFromContext(r.Context()); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			logger.Warn(event, fields...)
		})
	}
}
