package portal

import (
	"github.com/gofiber/fiber/v2"
)

// ForbiddenView is rendered when the role gate rejects a request
const ForbiddenView = "errors/403"

// RequireRole lets the request through only when the session role
// allows role. It must be mounted after RequireSession. Rejected
// requests get a 403 and the forbidden view without page data.
func RequireRole(sessions *SessionManager, role UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state, err := sessions.Read(c)
		if err != nil {
			return err
		}

		if !state.IsAuthenticated(sessions.Now()) || !state.Role.Allows(role) {
			sessions.logger.Debug("role gate rejected request", "path", c.Path(), "role", state.Role)
			return c.Status(fiber.StatusForbidden).Render(ForbiddenView, nil)
		}

		return c.Next()
	}
}

// RequireAdmin is RequireRole for the admin role
func RequireAdmin(sessions *SessionManager) fiber.Handler {
	return RequireRole(sessions, RoleAdmin)
}
