package handlers

import (
	"errors"

	"toto-stream/middleware"
	"toto-stream/models"
	"toto-stream/services"
	"toto-stream/store"

	"github.com/gofiber/fiber/v2"
)

// SetupChatRoutes registers message sending and the watch-session endpoints
// that drive XP accrual. Both require an authenticated user: anonymous
// viewers can read streams and chat but never write or accrue.
func SetupChatRoutes(app *fiber.App, users *services.UserService, chat *services.ChatService, accrual *services.AccrualService) {
	secured := app.Group("/", middleware.UserContextMiddleware(), middleware.RequireUser(users))

	secured.Post("/matches/:id/chat", func(c *fiber.Ctx) error {
		type Req struct {
			Body string `json:"body"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		author := c.Locals("user").(*models.User)
		msg, err := chat.Send(c.Context(), c.Params("id"), author, req.Body, false)
		if err != nil {
			// A rejected send keeps the client's draft: the error is surfaced
			// and nothing is cleared server-side.
			switch {
			case errors.Is(err, services.ErrWriteRejected):
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error": "message rejected",
					"cause": err.Error(),
				})
			case errors.Is(err, store.ErrNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "send failed",
					"cause": err.Error(),
				})
			}
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	})

	// Watch sessions: Start when playback begins, Heartbeat while frames
	// flow, Stop on pause or teardown. XP accrues per full 30s interval.
	secured.Post("/matches/:id/watch/start", func(c *fiber.Ctx) error {
		userID := c.Locals(middleware.LocalUserID).(string)
		if err := accrual.Start(userID, c.Params("id")); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "active"})
	})

	secured.Post("/matches/:id/watch/heartbeat", func(c *fiber.Ctx) error {
		userID := c.Locals(middleware.LocalUserID).(string)
		if !accrual.Heartbeat(userID, c.Params("id")) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "no active session, start again",
			})
		}
		return c.JSON(fiber.Map{"status": "active"})
	})

	secured.Post("/matches/:id/watch/stop", func(c *fiber.Ctx) error {
		userID := c.Locals(middleware.LocalUserID).(string)
		accrual.Stop(userID, c.Params("id"))
		return c.JSON(fiber.Map{"status": "idle"})
	})
}
