package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"toto-stream/models"
	"toto-stream/services"
	"toto-stream/store"

	"github.com/gofiber/fiber/v2"
)

type testApp struct {
	app     *fiber.App
	store   *store.MemStore
	users   *services.UserService
	matches *services.MatchService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	st := store.NewMemStore()
	st.SeedDemo()
	hub := services.NewLiveHub(st)
	users := services.NewUserService(st, hub)
	matches := services.NewMatchService(st, hub)
	chat := services.NewChatService(st, hub)
	accrual := services.NewAccrualService(users)

	app := fiber.New()
	SetupMatchRoutes(app, matches, chat)
	SetupUserRoutes(app, users, services.NewSettingsService(st))
	SetupChatRoutes(app, users, chat, accrual)
	return &testApp{app: app, store: st, users: users, matches: matches}
}

func (a *testApp) request(t *testing.T, method, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func viewerHeaders(id, name string) map[string]string {
	return map[string]string{"X-User-ID": id, "X-User-Name": name}
}

func TestListMatches(t *testing.T) {
	a := newTestApp(t)

	resp := a.request(t, "GET", "/matches", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ms []models.Match
	decodeJSON(t, resp, &ms)
	if len(ms) != 1 || ms[0].ID != "demo-1" {
		t.Fatalf("expected the seeded demo match, got %+v", ms)
	}
}

func TestGetMatchNotFound(t *testing.T) {
	a := newTestApp(t)

	resp := a.request(t, "GET", "/matches/nope", nil, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSecuredRouteRequiresIdentity(t *testing.T) {
	a := newTestApp(t)

	resp := a.request(t, "GET", "/user/me", nil, nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without X-User-ID, got %d", resp.StatusCode)
	}
}

func TestUserMeProvisionsOnFirstHit(t *testing.T) {
	a := newTestApp(t)

	resp := a.request(t, "GET", "/user/me", nil, viewerHeaders("u1", "alice"))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		User     models.User         `json:"user"`
		Progress models.RankProgress `json:"progress"`
	}
	decodeJSON(t, resp, &out)
	if out.User.ID != "u1" || out.User.Rank != models.RankBronze || out.User.XP != 0 {
		t.Fatalf("first hit must provision a Bronze record: %+v", out.User)
	}
	if out.Progress.Next == nil || *out.Progress.Next != models.RankSilver {
		t.Fatalf("progress must point at Silver: %+v", out.Progress)
	}
}

func TestSendChatMessage(t *testing.T) {
	a := newTestApp(t)

	resp := a.request(t, "POST", "/matches/demo-1/chat",
		fiber.Map{"body": "what a match"}, viewerHeaders("u1", "alice"))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var msg models.ChatMessage
	decodeJSON(t, resp, &msg)
	if msg.AuthorName != "alice" || msg.Body != "what a match" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	hist := a.request(t, "GET", "/matches/demo-1/chat", nil, nil)
	var window []models.ChatMessage
	decodeJSON(t, hist, &window)
	if len(window) != 1 {
		t.Fatalf("history must show the message, got %d", len(window))
	}
}

func TestSendChatRejectedKeepsNothing(t *testing.T) {
	a := newTestApp(t)

	resp := a.request(t, "POST", "/matches/demo-1/chat",
		fiber.Map{"body": "   "}, viewerHeaders("u1", "alice"))
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an empty message, got %d", resp.StatusCode)
	}

	hist := a.request(t, "GET", "/matches/demo-1/chat", nil, nil)
	var window []models.ChatMessage
	decodeJSON(t, hist, &window)
	if len(window) != 0 {
		t.Fatalf("a rejected send must store nothing, got %d", len(window))
	}
}

func TestWatchSessionLifecycle(t *testing.T) {
	a := newTestApp(t)
	hdr := viewerHeaders("u1", "alice")

	// Heartbeat without a session conflicts.
	if resp := a.request(t, "POST", "/matches/demo-1/watch/heartbeat", nil, hdr); resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 before start, got %d", resp.StatusCode)
	}

	if resp := a.request(t, "POST", "/matches/demo-1/watch/start", nil, hdr); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("start: expected 200, got %d", resp.StatusCode)
	}
	if resp := a.request(t, "POST", "/matches/demo-1/watch/heartbeat", nil, hdr); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("heartbeat: expected 200, got %d", resp.StatusCode)
	}
	if resp := a.request(t, "POST", "/matches/demo-1/watch/stop", nil, hdr); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("stop: expected 200, got %d", resp.StatusCode)
	}
	if resp := a.request(t, "POST", "/matches/demo-1/watch/heartbeat", nil, hdr); resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 after stop, got %d", resp.StatusCode)
	}
}

func TestUserStreamUnavailableWithoutIdentityProvider(t *testing.T) {
	st := store.NewMemStore()
	hub := services.NewLiveHub(st)
	users := services.NewUserService(st, hub)

	app := fiber.New()
	SetupStreamRoutes(app, hub, nil, users)

	req := httptest.NewRequest("GET", "/user/stream?token=abc", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an identity provider, got %d", resp.StatusCode)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	a := newTestApp(t)

	a.request(t, "GET", "/user/me", nil, viewerHeaders("u1", "alice"))
	if _, err := a.users.ResetXP(context.Background(), "u1", 600); err != nil {
		t.Fatalf("seed xp: %v", err)
	}

	resp := a.request(t, "GET", "/leaderboard?limit=5", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var top []models.User
	decodeJSON(t, resp, &top)
	if len(top) != 1 || top[0].Rank != models.RankPlatinum {
		t.Fatalf("expected one Platinum leader, got %+v", top)
	}
}
