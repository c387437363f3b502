package handlers

import (
	"errors"

	"toto-stream/middleware"
	"toto-stream/models"
	"toto-stream/services"
	"toto-stream/store"
	"toto-stream/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes registers the admin console surface: match CRUD, platform
// settings, user moderation. Everything here is gated on the user record's
// IsAdmin flag.
func SetupAdminRoutes(app *fiber.App, matches *services.MatchService, settings *services.SettingsService, users *services.UserService) {
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminRequired(users))

	// --- Matches ---

	admin.Post("/matches", func(c *fiber.Ctx) error {
		var m models.Match
		if err := c.BodyParser(&m); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		created, err := matches.Create(c.Context(), &m)
		if err != nil {
			return adminWriteError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	updateMatch := func(c *fiber.Ctx) error {
		var patch models.MatchPatch
		if err := c.BodyParser(&patch); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		updated, err := matches.Update(c.Context(), c.Params("id"), patch)
		if err != nil {
			return adminWriteError(c, err)
		}
		return c.JSON(updated)
	}
	admin.Put("/matches/:id", updateMatch)
	admin.Patch("/matches/:id", updateMatch)

	admin.Delete("/matches/:id", func(c *fiber.Ctx) error {
		if err := matches.Delete(c.Context(), c.Params("id")); err != nil {
			return adminWriteError(c, err)
		}
		return c.JSON(fiber.Map{"message": "match removed"})
	})

	admin.Post("/matches/:id/thumbnail", func(c *fiber.Ctx) error {
		file, err := c.FormFile("thumbnail")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "thumbnail file is required"})
		}
		url, err := utils.UploadAsset(file, "thumbnails")
		if err != nil {
			if errors.Is(err, utils.ErrUploadsDisabled) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "asset uploads are not configured"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "thumbnail upload failed",
				"cause": err.Error(),
			})
		}
		updated, err := matches.Update(c.Context(), c.Params("id"), models.MatchPatch{ThumbnailURL: &url})
		if err != nil {
			return adminWriteError(c, err)
		}
		return c.JSON(updated)
	})

	// --- Settings ---

	admin.Put("/settings", func(c *fiber.Ctx) error {
		var patch models.SettingsPatch
		if err := c.BodyParser(&patch); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		merged, err := settings.Update(c.Context(), patch)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "settings update failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(merged)
	})

	admin.Post("/settings/logo", func(c *fiber.Ctx) error {
		file, err := c.FormFile("logo")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "logo file is required"})
		}
		url, err := utils.UploadAsset(file, "logos")
		if err != nil {
			if errors.Is(err, utils.ErrUploadsDisabled) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "asset uploads are not configured"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "logo upload failed",
				"cause": err.Error(),
			})
		}
		merged, err := settings.Update(c.Context(), models.SettingsPatch{LogoURL: &url})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "settings update failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(merged)
	})

	// --- Users ---

	admin.Get("/users", func(c *fiber.Ctx) error {
		all, err := users.ListAll(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list users",
				"cause": err.Error(),
			})
		}
		return c.JSON(all)
	})

	admin.Post("/users/:id/xp", func(c *fiber.Ctx) error {
		type Req struct {
			XP int64 `json:"xp"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		// Rank is re-derived from the new XP in the same write.
		updated, err := users.ResetXP(c.Context(), c.Params("id"), req.XP)
		if err != nil {
			return adminWriteError(c, err)
		}
		return c.JSON(updated)
	})

	admin.Post("/users/:id/flags", func(c *fiber.Ctx) error {
		type Req struct {
			IsAdmin  *bool `json:"is_admin"`
			IsBanned *bool `json:"is_banned"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		updated, err := users.SetFlags(c.Context(), c.Params("id"), req.IsAdmin, req.IsBanned)
		if err != nil {
			return adminWriteError(c, err)
		}
		return c.JSON(updated)
	})

	admin.Delete("/users/:id", func(c *fiber.Ctx) error {
		if err := users.Delete(c.Context(), c.Params("id")); err != nil {
			return adminWriteError(c, err)
		}
		return c.JSON(fiber.Map{"message": "user removed"})
	})
}

func adminWriteError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrWriteRejected):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "write rejected",
			"cause": err.Error(),
		})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "record not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "operation failed",
			"cause": err.Error(),
		})
	}
}
