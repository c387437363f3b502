package handlers

import (
	"errors"

	"toto-stream/services"
	"toto-stream/store"

	"github.com/gofiber/fiber/v2"
)

// SetupMatchRoutes registers the viewer-facing match reads. All of these are
// read-only; match writes live on the admin routes.
func SetupMatchRoutes(app *fiber.App, matches *services.MatchService, chat *services.ChatService) {
	app.Get("/matches", func(c *fiber.Ctx) error {
		ms, err := matches.List(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list matches",
				"cause": err.Error(),
			})
		}
		return c.JSON(ms)
	})

	app.Get("/matches/by-slug/:slug", func(c *fiber.Ctx) error {
		m, err := matches.GetBySlug(c.Context(), c.Params("slug"))
		if err != nil {
			return matchLookupError(c, err)
		}
		return c.JSON(m)
	})

	app.Get("/matches/:id", func(c *fiber.Ctx) error {
		m, err := matches.Get(c.Context(), c.Params("id"))
		if err != nil {
			return matchLookupError(c, err)
		}
		return c.JSON(m)
	})

	app.Get("/matches/:id/chat", func(c *fiber.Ctx) error {
		msgs, err := chat.History(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load chat history",
				"cause": err.Error(),
			})
		}
		return c.JSON(msgs)
	})
}

func matchLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "failed to load match",
		"cause": err.Error(),
	})
}
