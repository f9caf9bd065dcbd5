package portal

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

var sessionCtxKey = &contextKey{"session"}

// SessionLocalsKey is the fiber locals key holding the SessionState
const SessionLocalsKey = "portal.session"

type contextKey struct {
	name string
}

// WithSession sets the SessionState in the given context
func WithSession(ctx context.Context, state SessionState) context.Context {
	return context.WithValue(ctx, sessionCtxKey, state)
}

// SessionFromContext finds the SessionState in the context
func SessionFromContext(ctx context.Context) (SessionState, bool) {
	if ctx == nil {
		return AnonymousSession(), false
	}
	raw, ok := ctx.Value(sessionCtxKey).(SessionState)
	return raw, ok
}

// SessionFromFiber finds the SessionState stored by the session loader
func SessionFromFiber(c *fiber.Ctx) (SessionState, bool) {
	raw, ok := c.Locals(SessionLocalsKey).(SessionState)
	return raw, ok
}

func setSessionLocals(c *fiber.Ctx, state SessionState) {
	c.Locals(SessionLocalsKey, state)
	c.SetUserContext(WithSession(c.UserContext(), state))
}
