package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/auth"
)

// UserIDLocalKey is the fiber locals key holding the authenticated user's id.
const UserIDLocalKey = "user_id"

// RequireAuth resolves the request's bearer token into a user id and stores
// it in locals. Handlers behind this middleware read the owner id from
// UserID(c) and never from client input.
func RequireAuth(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "No token provided")
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "No token provided")
		}

		userID, err := tokens.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				return fiber.NewError(fiber.StatusUnauthorized, "No token provided")
			}
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		c.Locals(UserIDLocalKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by RequireAuth, or "" if
// the request is unauthenticated.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}
