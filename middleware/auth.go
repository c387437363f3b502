package middleware

import (
	"errors"
	"log"
	"strings"

	"toto-stream/services"
	"toto-stream/store"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middlewares.
const (
	LocalUserID   = "user_id"
	LocalUserName = "user_name"
	LocalAvatar   = "user_avatar"
	LocalRoles    = "user_roles"
)

// UserContextMiddleware extracts the identity forwarded by the Gateway and
// rejects the request when none is present. The gateway has already
// authenticated against the identity provider; this service only provisions
// and reads the headers.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserName, c.Get("X-User-Name"))
		c.Locals(LocalAvatar, c.Get("X-User-Avatar"))
		c.Locals(LocalRoles, roles)

		return c.Next()
	}
}

// RequireUser loads the current user's record, provisioning it on first
// authentication (xp=0, Bronze, non-admin). Banned accounts are blocked from
// secured actions.
func RequireUser(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(LocalUserID).(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		name, _ := c.Locals(LocalUserName).(string)
		avatar, _ := c.Locals(LocalAvatar).(string)

		u, err := users.EnsureUser(c.Context(), userID, name, avatar)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load user record",
				"cause": err.Error(),
			})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// AdminRequired gates the admin console. The flag lives on the user record,
// not in the forwarded roles: the record is authoritative.
func AdminRequired(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(LocalUserID).(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		u, err := users.Get(c.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load user record",
				"cause": err.Error(),
			})
		}
		if !u.IsAdmin {
			log.Printf("🚫 [ADMIN] %s attempted admin route %s", userID, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}
