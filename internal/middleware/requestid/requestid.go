package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	Header = "X-Request-ID"

	// ContextKey is where handlers read the id back from fiber locals.
	ContextKey = "request_id"
)

// New tags each request with a UUID, honoring an id supplied by the caller so
// ids stay stable across proxy hops.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(ContextKey, id)
		c.Set(Header, id)

		return c.Next()
	}
}

// FromCtx returns the request id set by the middleware, or "" outside of it.
func FromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(ContextKey).(string)
	return id
}
