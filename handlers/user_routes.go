package handlers

import (
	"errors"
	"strconv"

	"toto-stream/middleware"
	"toto-stream/models"
	"toto-stream/services"
	"toto-stream/store"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes registers the leaderboard plus the signed-in user's own
// profile surface. Hitting any secured route provisions the record on first
// authentication.
func SetupUserRoutes(app *fiber.App, users *services.UserService, settings *services.SettingsService) {
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "30"))
		top, err := users.Leaderboard(c.Context(), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(top)
	})

	// Settings are read by every page on load; a store outage serves the
	// built-in defaults instead of an error.
	app.Get("/settings", func(c *fiber.Ctx) error {
		st, _ := settings.Get(c.Context())
		return c.JSON(st)
	})

	secured := app.Group("/", middleware.UserContextMiddleware(), middleware.RequireUser(users))

	secured.Get("/user/me", func(c *fiber.Ctx) error {
		u := c.Locals("user").(*models.User)
		return c.JSON(fiber.Map{
			"user":     u,
			"progress": models.ProgressToNext(u.XP),
		})
	})

	secured.Put("/user/me", func(c *fiber.Ctx) error {
		type Req struct {
			DisplayName *string `json:"display_name"`
			AvatarURL   *string `json:"avatar_url"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		userID := c.Locals(middleware.LocalUserID).(string)
		updated, err := users.UpdateProfile(c.Context(), userID, req.DisplayName, req.AvatarURL)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "profile update failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(updated)
	})
}
