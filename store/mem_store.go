package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"toto-stream/models"
)

// MemStore is the offline revision of the backing store: plain maps behind a
// mutex, last-write-wins, no durability. It satisfies the same Store contract
// as Postgres and doubles as the test double.
type MemStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	settings *models.PlatformSettings
	matches  map[string]*models.Match
	chat     map[string][]models.ChatMessage

	now func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:   map[string]*models.User{},
		matches: map[string]*models.Match{},
		chat:    map[string][]models.ChatMessage{},
		now:     time.Now,
	}
}

// SeedDemo loads the demo fixture the offline revision ships with: one live
// cricket match so the empty state isn't a blank page.
func (s *MemStore) SeedDemo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.matches) > 0 {
		return
	}
	m := &models.Match{
		ID:    "demo-1",
		Slug:  "india-vs-australia-border-gavaskar-trophy",
		Title: "India vs Australia - Border Gavaskar Trophy",
		Sport: models.SportCricket,
		Primary: models.StreamSource{
			Kind: models.StreamHLS,
			URL:  "https://test-streams.mux.dev/x36xhzz/url_6/144p/index.m3u8",
		},
		Status:      models.MatchLive,
		ChatEnabled: true,
		Viewers:     14205,
		Watching:    4200,
	}
	m.CreatedAt = s.now()
	m.UpdatedAt = m.CreatedAt
	s.matches[m.ID] = m
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.LastActiveAt != nil {
		t := *u.LastActiveAt
		c.LastActiveAt = &t
	}
	return &c
}

// --- Users ---

func (s *MemStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemStore) UpsertUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		u = &models.User{ID: id, Rank: models.RankBronze}
		u.CreatedAt = s.now()
		s.users[id] = u
	}
	patch.Apply(u)
	u.UpdatedAt = s.now()
	return cloneUser(u), nil
}

func (s *MemStore) ListUsersByXP(ctx context.Context, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *cloneUser(u))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].XP != out[j].XP {
			return out[i].XP > out[j].XP
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *MemStore) UsersChangedSince(ctx context.Context, since time.Time) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if u.UpdatedAt.After(since) {
			out = append(out, *cloneUser(u))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

// --- Settings ---

func (s *MemStore) GetSettings(ctx context.Context) (*models.PlatformSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, ErrNotFound
	}
	c := *s.settings
	return &c, nil
}

func (s *MemStore) PutSettings(ctx context.Context, st models.PlatformSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = models.SettingsSingletonID
	st.UpdatedAt = s.now()
	s.settings = &st
	return nil
}

func (s *MemStore) MergeSettings(ctx context.Context, patch models.SettingsPatch) (*models.PlatformSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return nil, ErrNotFound
	}
	patch.Apply(s.settings)
	s.settings.UpdatedAt = s.now()
	c := *s.settings
	return &c, nil
}

// --- Matches ---

func (s *MemStore) CreateMatch(ctx context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	m.UpdatedAt = s.now()
	c := *m
	s.matches[m.ID] = &c
	return nil
}

func (s *MemStore) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *m
	return &c, nil
}

func (s *MemStore) GetMatchBySlug(ctx context.Context, slug string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.matches {
		if m.Slug == slug {
			c := *m
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) ListMatches(ctx context.Context) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, *m)
	}
	models.SortMatches(out)
	return out, nil
}

func (s *MemStore) UpdateMatch(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(m)
	m.UpdatedAt = s.now()
	c := *m
	return &c, nil
}

func (s *MemStore) DeleteMatch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	delete(s.chat, id)
	return nil
}

func (s *MemStore) MatchesChangedSince(ctx context.Context, since time.Time) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Match
	for _, m := range s.matches {
		if m.UpdatedAt.After(since) {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

// --- Chat ---

func (s *MemStore) AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat[msg.MatchID] = append(s.chat[msg.MatchID], *msg)
	return nil
}

func (s *MemStore) RecentChat(ctx context.Context, matchID string, limit int) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.chat[matchID]
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	models.SortChat(out)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemStore) ChatChangedSince(ctx context.Context, since time.Time) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ChatMessage
	for _, msgs := range s.chat {
		for _, m := range msgs {
			if m.SentAt.After(since) {
				out = append(out, m)
			}
		}
	}
	models.SortChat(out)
	return out, nil
}

func (s *MemStore) PruneChat(ctx context.Context, matchID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.chat[matchID]
	if len(msgs) <= keep {
		return nil
	}
	models.SortChat(msgs)
	trimmed := make([]models.ChatMessage, keep)
	copy(trimmed, msgs[len(msgs)-keep:])
	s.chat[matchID] = trimmed
	return nil
}
