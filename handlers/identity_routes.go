package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"

	"toto-stream/models"
	"toto-stream/services"

	"github.com/gofiber/fiber/v2"
)

// SetupIdentityRoutes registers the chat-platform identity bridge: an
// embedded host (e.g. a messenger mini-app) supplies a pre-authenticated
// identity signed with a shared secret, bypassing the identity provider.
// The payload provisions or refreshes the user record and returns it.
func SetupIdentityRoutes(app *fiber.App, users *services.UserService) {
	bridgeSecret := os.Getenv("BRIDGE_SECRET")

	app.Post("/auth/bridge", func(c *fiber.Ctx) error {
		if bridgeSecret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "identity bridge is not configured",
			})
		}

		type Req struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
			AvatarURL   string `json:"avatar_url"`
			Signature   string `json:"signature"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if strings.TrimSpace(req.ID) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id is required"})
		}

		if !verifyBridgeSignature(bridgeSecret, req.ID, req.DisplayName, req.AvatarURL, req.Signature) {
			log.Printf("🚫 [BRIDGE] Bad signature for identity %s", req.ID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid bridge signature"})
		}

		// Bridge identities get a namespaced id so they never collide with
		// provider-issued ones.
		u, err := users.EnsureUser(c.Context(), "bridge:"+req.ID, req.DisplayName, req.AvatarURL)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "provisioning failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"user":     u,
			"progress": models.ProgressToNext(u.XP),
		})
	})
}

// verifyBridgeSignature checks the HMAC-SHA256 over the canonical field
// string, the host platform's standard mini-app attestation scheme.
func verifyBridgeSignature(secret, id, displayName, avatarURL, signature string) bool {
	payload := fmt.Sprintf("avatar_url=%s\ndisplay_name=%s\nid=%s", avatarURL, displayName, id)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
