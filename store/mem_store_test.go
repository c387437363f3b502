package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"toto-stream/models"
)

func strPtr(s string) *string         { return &s }
func intPtr(n int64) *int64           { return &n }
func rankPtr(r models.Rank) *models.Rank { return &r }

func TestUpsertUserMergePreservesFields(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()

	_, err := st.UpsertUser(ctx, "u1", models.UserPatch{
		DisplayName: strPtr("alice"),
		XP:          intPtr(120),
		Rank:        rankPtr(models.ResolveRank(120)),
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// A patch touching only the display name must not disturb xp/rank.
	u, err := st.UpsertUser(ctx, "u1", models.UserPatch{DisplayName: strPtr("alice2")})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if u.DisplayName != "alice2" || u.XP != 120 || u.Rank != models.RankSilver {
		t.Fatalf("merge disturbed untouched fields: %+v", u)
	}
}

func TestUpsertUserIdempotent(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()
	patch := models.UserPatch{
		DisplayName: strPtr("bob"),
		XP:          intPtr(500),
		Rank:        rankPtr(models.ResolveRank(500)),
	}

	first, err := st.UpsertUser(ctx, "u2", patch)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	second, err := st.UpsertUser(ctx, "u2", patch)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if second.XP != first.XP || second.Rank != first.Rank || second.DisplayName != first.DisplayName {
		t.Fatalf("identical patch changed the record: %+v vs %+v", first, second)
	}
}

func TestGetUserAbsent(t *testing.T) {
	st := NewMemStore()
	if _, err := st.GetUser(context.Background(), "nobody"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChatWindowCap(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 60; i++ {
		msg := &models.ChatMessage{
			ID:      fmt.Sprintf("m%02d", i),
			MatchID: "match1",
			Body:    fmt.Sprintf("msg %d", i),
			SentAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := st.AppendChatMessage(ctx, msg); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	window, err := st.RecentChat(ctx, "match1", models.ChatWindowSize)
	if err != nil {
		t.Fatalf("window read failed: %v", err)
	}
	if len(window) != 50 {
		t.Fatalf("expected exactly 50 messages, got %d", len(window))
	}
	// Oldest 10 are absent; delivery is oldest-first.
	if window[0].ID != "m10" {
		t.Fatalf("expected window to start at m10, got %s", window[0].ID)
	}
	if window[len(window)-1].ID != "m59" {
		t.Fatalf("expected window to end at m59, got %s", window[len(window)-1].ID)
	}
	for i := 1; i < len(window); i++ {
		if window[i].SentAt.Before(window[i-1].SentAt) {
			t.Fatalf("window out of order at %d", i)
		}
	}
}

func TestPruneChatKeepsNewest(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 250; i++ {
		st.AppendChatMessage(ctx, &models.ChatMessage{
			ID:      fmt.Sprintf("m%03d", i),
			MatchID: "match1",
			SentAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	if err := st.PruneChat(ctx, "match1", models.ChatRetention); err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	all, _ := st.RecentChat(ctx, "match1", 0)
	if len(all) != models.ChatRetention {
		t.Fatalf("expected %d retained, got %d", models.ChatRetention, len(all))
	}
	if all[0].ID != "m050" {
		t.Fatalf("prune dropped the wrong end: oldest is %s", all[0].ID)
	}
}

func TestListMatchesNewestFirst(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		m := &models.Match{
			ID:     fmt.Sprintf("match%d", i),
			Slug:   fmt.Sprintf("slug-%d", i),
			Title:  fmt.Sprintf("Match %d", i),
			Sport:  models.SportFootball,
			Status: models.MatchLive,
			Primary: models.StreamSource{
				Kind: models.StreamHLS,
				URL:  "https://example.com/stream.m3u8",
			},
		}
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := st.CreateMatch(ctx, m); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	ms, err := st.ListMatches(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ms) != 3 || ms[0].ID != "match2" || ms[2].ID != "match0" {
		t.Fatalf("expected newest first, got %v %v %v", ms[0].ID, ms[1].ID, ms[2].ID)
	}
}

func TestDeleteMatchDropsChat(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()
	st.CreateMatch(ctx, &models.Match{ID: "m1", Slug: "m1", Title: "t", Sport: models.SportOther, Status: models.MatchLive,
		Primary: models.StreamSource{Kind: models.StreamHLS, URL: "u"}})
	st.AppendChatMessage(ctx, &models.ChatMessage{ID: "c1", MatchID: "m1", SentAt: time.Now()})

	if err := st.DeleteMatch(ctx, "m1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := st.GetMatch(ctx, "m1"); err != ErrNotFound {
		t.Fatalf("expected match gone, got %v", err)
	}
	msgs, _ := st.RecentChat(ctx, "m1", models.ChatWindowSize)
	if len(msgs) != 0 {
		t.Fatalf("chat must be dropped with its match, got %d messages", len(msgs))
	}
}

func TestSeedDemoIdempotent(t *testing.T) {
	st := NewMemStore()
	st.SeedDemo()
	st.SeedDemo()
	ms, _ := st.ListMatches(context.Background())
	if len(ms) != 1 {
		t.Fatalf("expected single demo match, got %d", len(ms))
	}
}
