// Package handlers exposes the cart, wallet, catalog and checkout services
// over HTTP for the presentation layer.
package handlers

import (
	"tiffin/internal/middleware"
	"tiffin/internal/services/session"
	"tiffin/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	registry *session.Registry
}

func NewSessionHandler(registry *session.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// Start opens a fresh session and returns its token. Existing persisted
// sessions stay reachable through their own tokens; a new session is the
// explicit reset.
func (h *SessionHandler) Start(c *fiber.Ctx) error {
	token, sess, err := h.registry.Start(c.Context())
	if err != nil {
		return response.ServerError(c, "failed to start session")
	}

	return response.Success(c, "Session started", fiber.Map{
		"token":      token,
		"session_id": sess.ID,
		"balance":    sess.Wallet.Balance(),
	})
}

// currentSession pulls the session attached by the middleware.
func currentSession(c *fiber.Ctx) (*session.Session, bool) {
	sess, ok := c.Locals(middleware.SessionLocal).(*session.Session)
	return sess, ok && sess != nil
}
