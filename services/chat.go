package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"toto-stream/models"
	"toto-stream/store"

	"github.com/google/uuid"
)

const maxChatBodyLen = 500

// ChatService appends immutable messages to a match's chat and serves the
// delivery window. A rejected send surfaces as an error so the caller keeps
// the user's draft, no fire-and-forget silent loss.
type ChatService struct {
	Store store.Store
	Hub   *LiveHub

	now func() time.Time
}

func NewChatService(st store.Store, hub *LiveHub) *ChatService {
	return &ChatService{Store: st, Hub: hub, now: time.Now}
}

// Send appends one message with a server-assigned timestamp and the author's
// rank denormalized as a send-time snapshot (it is never live-updated on the
// message afterwards).
func (s *ChatService) Send(ctx context.Context, matchID string, author *models.User, body string, isAssistant bool) (*models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: empty message", ErrWriteRejected)
	}
	if len(body) > maxChatBodyLen {
		return nil, fmt.Errorf("%w: message too long", ErrWriteRejected)
	}
	if author.IsBanned {
		return nil, fmt.Errorf("%w: author is banned", ErrWriteRejected)
	}
	match, err := s.Store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.ChatEnabled {
		return nil, fmt.Errorf("%w: chat is disabled for this match", ErrWriteRejected)
	}

	msg := &models.ChatMessage{
		ID:          uuid.NewString(),
		MatchID:     matchID,
		AuthorID:    author.ID,
		AuthorName:  author.DisplayName,
		AuthorRank:  author.Rank,
		AvatarURL:   author.AvatarURL,
		Body:        body,
		IsAssistant: isAssistant,
		SentAt:      s.now(),
	}
	if err := s.Store.AppendChatMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.publishWindow(ctx, matchID)
	return msg, nil
}

// History returns the windowed chat (most recent ChatWindowSize messages,
// oldest first).
func (s *ChatService) History(ctx context.Context, matchID string) ([]models.ChatMessage, error) {
	return s.Store.RecentChat(ctx, matchID, models.ChatWindowSize)
}

func (s *ChatService) publishWindow(ctx context.Context, matchID string) {
	window, err := s.Store.RecentChat(ctx, matchID, models.ChatWindowSize)
	if err != nil {
		log.Printf("[CHAT] window read failed for %s: %v", matchID, err)
		return
	}
	s.Hub.PublishChat(matchID, window)
}

// Prune trims stored history beyond the retention margin for every match.
// The delivery cap is enforced at read time regardless; this just keeps the
// tables from growing without bound.
func (s *ChatService) Prune(ctx context.Context) {
	matches, err := s.Store.ListMatches(ctx)
	if err != nil {
		log.Printf("[CHAT] prune skipped, match list failed: %v", err)
		return
	}
	for _, m := range matches {
		if err := s.Store.PruneChat(ctx, m.ID, models.ChatRetention); err != nil {
			log.Printf("[CHAT] prune failed for %s: %v", m.ID, err)
		}
	}
}
