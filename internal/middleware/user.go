package middleware

import (
	"context"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const UserKey = "user"

// UserLoader resolves the token subject to a stored user, creating the row on
// first sight.
type UserLoader interface {
	EnsureFromClaims(ctx context.Context, id uuid.UUID, email, name string) (*models.User, error)
}

// LoadUser must run after Auth.
func LoadUser(users UserLoader) drift.HandlerFunc {
	return func(c *drift.Context) {
		userID := GetUserID(c)
		if userID == uuid.Nil {
			c.Unauthorized("not authenticated")
			return
		}

		user, err := users.EnsureFromClaims(c.Request.Context(), userID, GetUserEmail(c), GetUserName(c))
		if err != nil {
			c.InternalServerError("failed to load user")
			return
		}
		if !user.IsActive() {
			c.Forbidden("account is inactive")
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

func CurrentUser(c *drift.Context) *models.User {
	if v, ok := c.Get(UserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func RequireAdmin() drift.HandlerFunc {
	return func(c *drift.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.Unauthorized("not authenticated")
			return
		}
		if !user.IsAdmin() {
			c.Forbidden("admin access required")
			return
		}
		c.Next()
	}
}
