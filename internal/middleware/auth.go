package middleware

import (
	"context"
	"strings"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/stefanm/authgate/internal/models"
)

const CurrentUserKey = "current_user"

// SessionResolver turns a bearer token back into a user. A nil user with a
// nil error means "not authenticated".
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

func Auth(sessions SessionResolver) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		user, err := sessions.Resolve(context.Background(), parts[1])
		if err != nil {
			c.InternalServerError("failed to resolve session")
			return
		}
		if user == nil {
			c.Unauthorized("invalid or expired session")
			return
		}

		c.Set(CurrentUserKey, user)

		c.Next()
	}
}

func GetCurrentUser(c *drift.Context) *models.User {
	if v, ok := c.Get(CurrentUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
