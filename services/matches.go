package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"toto-stream/models"
	"toto-stream/store"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ErrWriteRejected means a write was refused by validation or moderation rules.
// The initiating UI keeps its input so the user can retry.
var ErrWriteRejected = errors.New("write rejected")

// MatchService owns the broadcastable live events. Only administrators write;
// viewer paths read and subscribe.
type MatchService struct {
	Store store.Store
	Hub   *LiveHub
}

func NewMatchService(st store.Store, hub *LiveHub) *MatchService {
	return &MatchService{Store: st, Hub: hub}
}

// Create validates and stores a new match with a server-assigned id, slug and
// creation time.
func (s *MatchService) Create(ctx context.Context, m *models.Match) (*models.Match, error) {
	if m.Status == "" {
		m.Status = models.MatchUpcoming
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteRejected, err)
	}
	m.ID = uuid.NewString()
	m.Slug = s.uniqueSlug(ctx, m.Title)
	m.CreatedAt = time.Now()
	if err := s.Store.CreateMatch(ctx, m); err != nil {
		return nil, err
	}
	log.Printf("📺 Match created: %s (%s)", m.Title, m.ID)
	s.Hub.PublishMatch(m)
	s.Hub.NotifyMatchesChanged(ctx)
	return m, nil
}

// uniqueSlug derives a URL slug from the title, suffixing on collision.
func (s *MatchService) uniqueSlug(ctx context.Context, title string) string {
	base := slug.Make(title)
	if base == "" {
		base = "match"
	}
	candidate := base
	for i := 2; ; i++ {
		if _, err := s.Store.GetMatchBySlug(ctx, candidate); errors.Is(err, store.ErrNotFound) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Update merge-writes an admin edit; untouched fields are preserved.
func (s *MatchService) Update(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error) {
	if patch.Primary != nil {
		if err := patch.Primary.Validate(); err != nil {
			return nil, fmt.Errorf("%w: primary source: %v", ErrWriteRejected, err)
		}
	}
	if patch.Secondary != nil && !patch.Secondary.IsZero() {
		if err := patch.Secondary.Validate(); err != nil {
			return nil, fmt.Errorf("%w: secondary source: %v", ErrWriteRejected, err)
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrWriteRejected, *patch.Status)
	}
	if patch.Sport != nil && !patch.Sport.Valid() {
		return nil, fmt.Errorf("%w: unknown sport %q", ErrWriteRejected, *patch.Sport)
	}
	updated, err := s.Store.UpdateMatch(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.Hub.PublishMatch(updated)
	s.Hub.NotifyMatchesChanged(ctx)
	return updated, nil
}

// Delete removes the match and its chat; single-match subscribers receive a
// deleted event and navigate away.
func (s *MatchService) Delete(ctx context.Context, id string) error {
	if err := s.Store.DeleteMatch(ctx, id); err != nil {
		return err
	}
	log.Printf("🗑️ Match deleted: %s", id)
	s.Hub.PublishMatchDeleted(id)
	s.Hub.NotifyMatchesChanged(ctx)
	return nil
}

func (s *MatchService) Get(ctx context.Context, id string) (*models.Match, error) {
	return s.Store.GetMatch(ctx, id)
}

func (s *MatchService) GetBySlug(ctx context.Context, sl string) (*models.Match, error) {
	return s.Store.GetMatchBySlug(ctx, sl)
}

// List returns all matches, newest first.
func (s *MatchService) List(ctx context.Context) ([]models.Match, error) {
	return s.Store.ListMatches(ctx)
}

// SetWatching updates the live watcher count; called by the maintenance job
// from active accrual sessions.
func (s *MatchService) SetWatching(ctx context.Context, id string, watching int64) {
	updated, err := s.Store.UpdateMatch(ctx, id, models.MatchPatch{Watching: &watching})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[WATCHING] update failed for %s: %v", id, err)
		}
		return
	}
	s.Hub.PublishMatch(updated)
}
