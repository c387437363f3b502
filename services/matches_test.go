package services

import (
	"context"
	"testing"

	"toto-stream/models"
	"toto-stream/store"
)

func newMatchService() (*MatchService, *store.MemStore) {
	st := store.NewMemStore()
	return NewMatchService(st, NewLiveHub(st)), st
}

func srcHLS() models.StreamSource {
	return models.StreamSource{Kind: models.StreamHLS, URL: "https://example.com/a.m3u8"}
}

func TestCreateAssignsSlugSuffixOnCollision(t *testing.T) {
	matches, _ := newMatchService()
	ctx := context.Background()

	first, err := matches.Create(ctx, &models.Match{Title: "El Clasico", Sport: models.SportFootball, Primary: srcHLS()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := matches.Create(ctx, &models.Match{Title: "El Clasico", Sport: models.SportFootball, Primary: srcHLS()})
	if err != nil {
		t.Fatalf("create duplicate title: %v", err)
	}
	if first.Slug != "el-clasico" || second.Slug != "el-clasico-2" {
		t.Fatalf("expected suffix on collision, got %q and %q", first.Slug, second.Slug)
	}
}

func TestSlugReusableAfterDelete(t *testing.T) {
	matches, _ := newMatchService()
	ctx := context.Background()

	m, err := matches.Create(ctx, &models.Match{Title: "Grand Final", Sport: models.SportCricket, Primary: srcHLS()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := matches.Delete(ctx, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// A deleted match must fully release its slug; the same title creates
	// again without a suffix and without a unique-index conflict.
	again, err := matches.Create(ctx, &models.Match{Title: "Grand Final", Sport: models.SportCricket, Primary: srcHLS()})
	if err != nil {
		t.Fatalf("re-create after delete failed: %v", err)
	}
	if again.Slug != m.Slug {
		t.Fatalf("expected the released slug %q, got %q", m.Slug, again.Slug)
	}
	if again.ID == m.ID {
		t.Fatalf("re-created match must get a fresh id")
	}
}

func TestCreateRejectsInvalidMatch(t *testing.T) {
	matches, _ := newMatchService()
	ctx := context.Background()

	cases := []struct {
		name string
		m    models.Match
	}{
		{"missing title", models.Match{Sport: models.SportFootball, Primary: srcHLS()}},
		{"missing primary source", models.Match{Title: "No Stream", Sport: models.SportFootball}},
		{"unknown sport", models.Match{Title: "Mystery", Sport: models.Sport("curling"), Primary: srcHLS()}},
	}
	for _, tc := range cases {
		if _, err := matches.Create(ctx, &tc.m); err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
	}
}
