package middleware

import (
	"strings"

	"tiffin/internal/services/session"
	"tiffin/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// SessionLocal is the fiber locals key holding the attached *session.Session.
const SessionLocal = "session"

// Session validates the bearer session token and attaches the session's
// services to the request.
func Session(registry *session.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			return response.Unauthorized(c)
		}

		sessionID, err := registry.ParseToken(token)
		if err != nil {
			return response.Unauthorized(c)
		}

		sess, err := registry.Attach(c.Context(), sessionID)
		if err != nil {
			return response.ServerError(c, "failed to load session state")
		}

		c.Locals(SessionLocal, sess)
		return c.Next()
	}
}
