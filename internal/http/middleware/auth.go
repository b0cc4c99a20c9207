package middleware

import "github.com/gofiber/fiber/v2"

// AllowAll guards the staff routes without enforcing any authorization: every
// request passes. The upstream system deliberately runs the review workflow
// open, and downstream tooling relies on that, so this stub exists to make the
// policy explicit rather than to be a placeholder for real auth.
func AllowAll() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}
