package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"toto-stream/middleware"
	"toto-stream/services"

	"github.com/gofiber/fiber/v2"
)

// SetupStreamRoutes registers the SSE fan-out endpoints. Each stream delivers
// the current snapshot immediately, then every change until the client
// disconnects; updates are coalesced so a slow consumer always lands on the
// final state.
func SetupStreamRoutes(app *fiber.App, hub *services.LiveHub, identity *services.IdentityClient, users *services.UserService) {
	app.Get("/matches/stream", func(c *fiber.Ctx) error {
		setSSEHeaders(c)
		sub, cancel := hub.SubscribeMatches(context.Background())
		reqCtx := c.Context()

		reqCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()
			w.WriteString(":\n\n")
			w.Flush()
			for {
				select {
				case ms := <-sub:
					if !writeEvent(w, "matches", ms) {
						return
					}
				case <-reqCtx.Done():
					return
				}
			}
		})
		return nil
	})

	app.Get("/matches/:id/stream", func(c *fiber.Ctx) error {
		setSSEHeaders(c)
		sub, cancel := hub.SubscribeMatch(context.Background(), c.Params("id"))
		reqCtx := c.Context()

		reqCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()
			w.WriteString(":\n\n")
			w.Flush()
			for {
				select {
				case ev := <-sub:
					if ev.Deleted {
						// Record is gone; tell the client to navigate away and
						// end the stream.
						fmt.Fprintf(w, "event: deleted\ndata: {}\n\n")
						w.Flush()
						return
					}
					if !writeEvent(w, "match", ev.Match) {
						return
					}
				case <-reqCtx.Done():
					return
				}
			}
		})
		return nil
	})

	app.Get("/matches/:id/chat/stream", func(c *fiber.Ctx) error {
		setSSEHeaders(c)
		sub, cancel := hub.SubscribeChat(context.Background(), c.Params("id"))
		reqCtx := c.Context()

		reqCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()
			w.WriteString(":\n\n")
			w.Flush()
			for {
				select {
				case window := <-sub:
					if !writeEvent(w, "chat", window) {
						return
					}
				case <-reqCtx.Done():
					return
				}
			}
		})
		return nil
	})

	// Personal record stream (navbar XP/rank display). EventSource cannot set
	// headers, so this authenticates via query token against the identity
	// provider.
	app.Get("/user/stream", middleware.SSEAuthMiddleware(identity), func(c *fiber.Ctx) error {
		userID := c.Locals(middleware.LocalUserID).(string)
		name, _ := c.Locals(middleware.LocalUserName).(string)
		avatar, _ := c.Locals(middleware.LocalAvatar).(string)

		// Provision on first authentication so the stream opens with a
		// record rather than an absent marker.
		if _, err := users.EnsureUser(c.Context(), userID, name, avatar); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load user record",
				"cause": err.Error(),
			})
		}

		setSSEHeaders(c)
		sub, cancel := hub.SubscribeUser(context.Background(), userID)
		reqCtx := c.Context()

		reqCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()
			w.WriteString(":\n\n")
			w.Flush()
			for {
				select {
				case ev := <-sub:
					if ev.Absent {
						// Record deleted mid-stream; tell the client and end.
						fmt.Fprintf(w, "event: absent\ndata: {}\n\n")
						w.Flush()
						return
					}
					if !writeEvent(w, "user", ev.User) {
						return
					}
				case <-reqCtx.Done():
					return
				}
			}
		})
		return nil
	})
}

func setSSEHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx
}

// writeEvent flushes one SSE frame; false means the client disconnected.
func writeEvent(w *bufio.Writer, event string, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return true
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return w.Flush() == nil
}
