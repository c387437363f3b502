package services

import (
	"context"
	"sync"

	"toto-stream/models"
	"toto-stream/store"
)

// MatchEvent is one delivery on a single-match subscription. Deleted marks
// the record as gone (subscribers navigate away).
type MatchEvent struct {
	Match   *models.Match
	Deleted bool
}

// UserEvent is one delivery on a user subscription. Absent marks a record
// that does not exist (never provisioned, or deleted); the subscriber is
// responsible for provisioning, not this hub.
type UserEvent struct {
	User   *models.User
	Absent bool
}

// LiveHub fans record changes out to in-process subscribers. Every
// subscription delivers the current snapshot immediately, then each
// subsequent change in commit order. Per-subscriber channels have capacity
// one and coalesce: a slow consumer sees last-value-wins per key, and the
// final state is never dropped. Unsubscribe funcs must be called on teardown
// to release the listener slot.
type LiveHub struct {
	st store.Store

	mu         sync.Mutex
	nextID     uint64
	matchLists map[uint64]chan []models.Match
	matches    map[string]map[uint64]chan MatchEvent
	chats      map[string]map[uint64]chan []models.ChatMessage
	users      map[string]map[uint64]chan UserEvent
}

func NewLiveHub(st store.Store) *LiveHub {
	return &LiveHub{
		st:         st,
		matchLists: map[uint64]chan []models.Match{},
		matches:    map[string]map[uint64]chan MatchEvent{},
		chats:      map[string]map[uint64]chan []models.ChatMessage{},
		users:      map[string]map[uint64]chan UserEvent{},
	}
}

// offer replaces any pending value so the channel always holds the latest
// snapshot. Capacity-1 channels make this race-free enough for fan-out:
// intermediate states may be skipped, the final one is not.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// SubscribeMatches delivers the full match list (newest first) now and on
// every add/update/delete.
func (h *LiveHub) SubscribeMatches(ctx context.Context) (<-chan []models.Match, func()) {
	ch := make(chan []models.Match, 1)
	if ms, err := h.st.ListMatches(ctx); err == nil {
		offer(ch, ms)
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.matchLists[id] = ch
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.matchLists, id)
		h.mu.Unlock()
	}
}

// SubscribeMatch delivers one match record and its live updates; a Deleted
// event ends the record's life.
func (h *LiveHub) SubscribeMatch(ctx context.Context, matchID string) (<-chan MatchEvent, func()) {
	ch := make(chan MatchEvent, 1)
	if m, err := h.st.GetMatch(ctx, matchID); err == nil {
		offer(ch, MatchEvent{Match: m})
	} else {
		offer(ch, MatchEvent{Deleted: true})
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.matches[matchID] == nil {
		h.matches[matchID] = map[uint64]chan MatchEvent{}
	}
	h.matches[matchID][id] = ch
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.matches[matchID], id)
		h.mu.Unlock()
	}
}

// SubscribeChat delivers the windowed message list (most recent, oldest
// first) now and after every append.
func (h *LiveHub) SubscribeChat(ctx context.Context, matchID string) (<-chan []models.ChatMessage, func()) {
	ch := make(chan []models.ChatMessage, 1)
	if msgs, err := h.st.RecentChat(ctx, matchID, models.ChatWindowSize); err == nil {
		offer(ch, msgs)
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.chats[matchID] == nil {
		h.chats[matchID] = map[uint64]chan []models.ChatMessage{}
	}
	h.chats[matchID][id] = ch
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.chats[matchID], id)
		h.mu.Unlock()
	}
}

// SubscribeUser delivers the current state immediately, an Absent event when
// no record exists, then every subsequent change. Provisioning of absent
// users is the caller's job.
func (h *LiveHub) SubscribeUser(ctx context.Context, userID string) (<-chan UserEvent, func()) {
	ch := make(chan UserEvent, 1)
	if u, err := h.st.GetUser(ctx, userID); err == nil {
		offer(ch, UserEvent{User: u})
	} else {
		offer(ch, UserEvent{Absent: true})
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.users[userID] == nil {
		h.users[userID] = map[uint64]chan UserEvent{}
	}
	h.users[userID][id] = ch
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.users[userID], id)
		h.mu.Unlock()
	}
}

// PublishMatchList pushes a fresh full list to every list subscriber.
func (h *LiveHub) PublishMatchList(ms []models.Match) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.matchLists {
		offer(ch, ms)
	}
}

func (h *LiveHub) PublishMatch(m *models.Match) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.matches[m.ID] {
		offer(ch, MatchEvent{Match: m})
	}
}

func (h *LiveHub) PublishMatchDeleted(matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.matches[matchID] {
		offer(ch, MatchEvent{Deleted: true})
	}
}

func (h *LiveHub) PublishChat(matchID string, window []models.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.chats[matchID] {
		offer(ch, window)
	}
}

func (h *LiveHub) PublishUser(u models.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.users[u.ID] {
		offer(ch, UserEvent{User: &u})
	}
}

// PublishUserAbsent tells subscribers the record no longer exists.
func (h *LiveHub) PublishUserAbsent(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.users[userID] {
		offer(ch, UserEvent{Absent: true})
	}
}

// NotifyMatchesChanged re-reads the list and fans it out; used after any
// match write so list subscribers track CRUD from any writer.
func (h *LiveHub) NotifyMatchesChanged(ctx context.Context) {
	if ms, err := h.st.ListMatches(ctx); err == nil {
		h.PublishMatchList(ms)
	}
}
