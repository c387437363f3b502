package services

import (
	"context"
	"testing"
	"time"

	"toto-stream/models"
	"toto-stream/store"
)

func recvMatchEvent(t *testing.T, ch <-chan MatchEvent) MatchEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no delivery within 1s")
		return MatchEvent{}
	}
}

func TestSubscribeMatchDeliversSnapshotFirst(t *testing.T) {
	st := store.NewMemStore()
	st.SeedDemo()
	hub := NewLiveHub(st)

	ch, cancel := hub.SubscribeMatch(context.Background(), "demo-1")
	defer cancel()

	ev := recvMatchEvent(t, ch)
	if ev.Deleted || ev.Match == nil || ev.Match.ID != "demo-1" {
		t.Fatalf("first delivery must be the current snapshot, got %+v", ev)
	}
}

func TestSubscribeMatchCoalescesToLatest(t *testing.T) {
	st := store.NewMemStore()
	st.SeedDemo()
	hub := NewLiveHub(st)

	ch, cancel := hub.SubscribeMatch(context.Background(), "demo-1")
	defer cancel()
	recvMatchEvent(t, ch) // drain the snapshot

	// Publish faster than the (absent) consumer drains: intermediate states
	// may drop, the final one must not.
	for i := int64(1); i <= 5; i++ {
		hub.PublishMatch(&models.Match{ID: "demo-1", Title: "demo", Watching: i * 100})
	}
	ev := recvMatchEvent(t, ch)
	if ev.Match == nil || ev.Match.Watching != 500 {
		t.Fatalf("slow consumer must see the latest state, got %+v", ev)
	}
}

func TestSubscribeMatchDeletedEvent(t *testing.T) {
	st := store.NewMemStore()
	st.SeedDemo()
	hub := NewLiveHub(st)

	ch, cancel := hub.SubscribeMatch(context.Background(), "demo-1")
	defer cancel()
	recvMatchEvent(t, ch)

	hub.PublishMatchDeleted("demo-1")
	if ev := recvMatchEvent(t, ch); !ev.Deleted {
		t.Fatalf("expected a deleted event, got %+v", ev)
	}
}

func TestSubscribeMatchesTracksWrites(t *testing.T) {
	st := store.NewMemStore()
	hub := NewLiveHub(st)
	matches := NewMatchService(st, hub)
	ctx := context.Background()

	ch, cancel := hub.SubscribeMatches(ctx)
	defer cancel()

	select {
	case ms := <-ch:
		if len(ms) != 0 {
			t.Fatalf("expected an empty initial list, got %d", len(ms))
		}
	case <-time.After(time.Second):
		t.Fatalf("no initial list delivered")
	}

	if _, err := matches.Create(ctx, &models.Match{
		Title:   "New Fixture",
		Sport:   models.SportCricket,
		Primary: models.StreamSource{Kind: models.StreamHLS, URL: "https://example.com/a.m3u8"},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case ms := <-ch:
		if len(ms) != 1 || ms[0].Title != "New Fixture" {
			t.Fatalf("list subscription missed the create: %+v", ms)
		}
	case <-time.After(time.Second):
		t.Fatalf("no list update after create")
	}
}

func recvUserEvent(t *testing.T, ch <-chan UserEvent) UserEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no delivery within 1s")
		return UserEvent{}
	}
}

func TestSubscribeUserDeliversAbsentImmediately(t *testing.T) {
	st := store.NewMemStore()
	hub := NewLiveHub(st)

	ch, cancel := hub.SubscribeUser(context.Background(), "ghost")
	defer cancel()

	// The subscriber must be able to tell "no record" from "no update yet";
	// it is then responsible for provisioning.
	ev := recvUserEvent(t, ch)
	if !ev.Absent || ev.User != nil {
		t.Fatalf("absent record must deliver an absent event, got %+v", ev)
	}
}

func TestSubscribeUserAbsentOnDelete(t *testing.T) {
	st := store.NewMemStore()
	hub := NewLiveHub(st)
	users := NewUserService(st, hub)
	ctx := context.Background()

	if _, err := users.EnsureUser(ctx, "u1", "alice", ""); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	ch, cancel := hub.SubscribeUser(ctx, "u1")
	defer cancel()
	if ev := recvUserEvent(t, ch); ev.Absent || ev.User == nil || ev.User.ID != "u1" {
		t.Fatalf("first delivery must be the current record, got %+v", ev)
	}

	if err := users.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ev := recvUserEvent(t, ch); !ev.Absent {
		t.Fatalf("delete must deliver an absent event, got %+v", ev)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	st := store.NewMemStore()
	hub := NewLiveHub(st)

	ch, cancel := hub.SubscribeUser(context.Background(), "u1")
	recvUserEvent(t, ch) // drain the initial absent event
	cancel()

	hub.PublishUser(models.User{ID: "u1", XP: 10})
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("cancelled subscription must not receive, got %+v", ev)
		}
	default:
	}
}
