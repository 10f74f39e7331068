package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-mastery-api/internal/utils"
)

// RequireReviewer admits parents, teachers and admins. Students and anonymous callers get 403.
func RequireReviewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !ActorFromContext(c).IsReviewer() {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
