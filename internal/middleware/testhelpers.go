package middleware

import (
	"context"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/request"
)

// SetUserInContext attaches user to ctx the way Auth does. Exported for handler tests.
func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return request.WithUser(ctx, user)
}
