package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/benvon/smart-planner/internal/database"
	logpkg "github.com/benvon/smart-planner/internal/logger"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/request"
	"github.com/benvon/smart-planner/internal/services/oidc"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserStore is the subset of the user repository authentication needs
type UserStore interface {
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

// Auth creates authentication middleware that validates bearer tokens and
// resolves the caller to a local user, creating one on first sight.
func Auth(verifier oidc.TokenVerifier, users UserStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing or malformed Authorization header", logger)
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, token)
			if err != nil {
				switch {
				case oidc.IsInvalidToken(err):
					logger.Debug("token_rejected", zap.String("error", logpkg.SanitizeError(err)))
					respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token", logger)
				case errors.Is(err, oidc.ErrNotConfigured):
					respondErrorJSON(w, r, http.StatusServiceUnavailable, "Service Unavailable", "Authentication is not configured", logger)
				default:
					logger.Error("token_verification_failed", zap.Error(err))
					respondErrorJSON(w, r, http.StatusServiceUnavailable, "Service Unavailable", "Identity provider unavailable", logger)
				}
				return
			}

			user, err := resolveUser(ctx, users, claims, logger)
			if err != nil {
				logger.Error("failed_to_resolve_user",
					zap.String("provider_id", logpkg.SanitizeLine(claims.Sub, logpkg.MaxGeneralStringLength)),
					zap.Error(err),
				)
				respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to load user", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func resolveUser(ctx context.Context, users UserStore, claims *models.JWTClaims, logger *zap.Logger) (*models.User, error) {
	user, err := users.GetByProviderID(ctx, claims.Sub)
	if errors.Is(err, database.ErrNotFound) {
		sub := claims.Sub
		user = &models.User{
			ID:            uuid.New(),
			Email:         claims.Email,
			ProviderID:    &sub,
			EmailVerified: claims.EmailVerified,
		}
		if claims.Name != "" {
			user.Name = models.StringPtr(claims.Name)
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, err
		}
		logger.Info("user_created", zap.String("user_id", user.ID.String()))
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	changed := false
	if claims.Email != "" && user.Email != claims.Email {
		user.Email = claims.Email
		changed = true
	}
	if claims.Name != "" && (user.Name == nil || *user.Name != claims.Name) {
		user.Name = models.StringPtr(claims.Name)
		changed = true
	}
	if changed {
		if err := users.Update(ctx, user); err != nil {
			logger.Warn("failed_to_update_user_profile",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
		}
	}
	return user, nil
}
