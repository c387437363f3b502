package middleware

import (
	"log"
	"strings"

	"toto-stream/services"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware validates a `token` query param via the identity
// provider. EventSource clients cannot set headers, so personal SSE streams
// authenticate through the query string instead of the gateway headers.
func SSEAuthMiddleware(identity *services.IdentityClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "identity provider is not configured",
			})
		}

		sessionToken := strings.TrimSpace(c.Query("token"))
		if sessionToken == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing token in query",
			})
		}

		resp, err := identity.ValidateSession(sessionToken)
		if err != nil {
			log.Printf("[SSEAuth] ❌ Validation failed for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		c.Locals(LocalUserID, resp.UserID)
		c.Locals(LocalUserName, resp.DisplayName)
		c.Locals(LocalAvatar, resp.AvatarURL)

		return c.Next()
	}
}
