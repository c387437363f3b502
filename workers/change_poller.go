package workers

import (
	"context"
	"log"
	"time"

	"toto-stream/models"
	"toto-stream/services"
	"toto-stream/store"
)

// ChangePoller bridges externally-committed writes into the live hub. The
// in-process services publish their own writes directly; this worker covers
// writers in other processes (a second replica, the admin console talking to
// a different instance) by tailing updated_at cursors, so subscribers track
// every committed change in order regardless of which process wrote it.
type ChangePoller struct {
	store    store.Store
	hub      *services.LiveHub
	interval time.Duration

	userCursor  time.Time
	matchCursor time.Time
	chatCursor  time.Time
}

func NewChangePoller(st store.Store, hub *services.LiveHub, interval time.Duration) *ChangePoller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	now := time.Now()
	return &ChangePoller{
		store:       st,
		hub:         hub,
		interval:    interval,
		userCursor:  now,
		matchCursor: now,
		chatCursor:  now,
	}
}

func (p *ChangePoller) Run(ctx context.Context) {
	log.Println("🔁 Change poller running (store → live hub)…")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-ctx.Done():
			log.Println("⏹️ Change poller stopped")
			return
		}
	}
}

func (p *ChangePoller) poll(ctx context.Context) {
	if users, err := p.store.UsersChangedSince(ctx, p.userCursor); err != nil {
		log.Printf("[POLL] user changes failed: %v", err)
	} else {
		for _, u := range users {
			p.hub.PublishUser(u)
			if u.UpdatedAt.After(p.userCursor) {
				p.userCursor = u.UpdatedAt
			}
		}
	}

	if ms, err := p.store.MatchesChangedSince(ctx, p.matchCursor); err != nil {
		log.Printf("[POLL] match changes failed: %v", err)
	} else if len(ms) > 0 {
		for i := range ms {
			p.hub.PublishMatch(&ms[i])
			if ms[i].UpdatedAt.After(p.matchCursor) {
				p.matchCursor = ms[i].UpdatedAt
			}
		}
		p.hub.NotifyMatchesChanged(ctx)
	}

	if msgs, err := p.store.ChatChangedSince(ctx, p.chatCursor); err != nil {
		log.Printf("[POLL] chat changes failed: %v", err)
	} else if len(msgs) > 0 {
		touched := map[string]bool{}
		for _, m := range msgs {
			touched[m.MatchID] = true
			if m.SentAt.After(p.chatCursor) {
				p.chatCursor = m.SentAt
			}
		}
		for matchID := range touched {
			if window, err := p.store.RecentChat(ctx, matchID, models.ChatWindowSize); err == nil {
				p.hub.PublishChat(matchID, window)
			}
		}
	}
}
