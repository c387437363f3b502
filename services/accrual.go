package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"toto-stream/models"
)

// HeartbeatTTL is how long a session stays Active without a playback
// heartbeat before it is torn down as Idle. Clients beat every few seconds
// while the player is producing frames.
const HeartbeatTTL = 45 * time.Second

// sweepInterval is the accrual check cadence.
const sweepInterval = 1 * time.Second

var ErrAnonymousSession = errors.New("anonymous viewers do not accrue xp")

// watchSession is the per-viewing-session state: created on the transition to
// Active, destroyed on the transition back to Idle. Nothing survives across
// sessions: an incomplete interval's elapsed fraction is discarded, never
// carried over.
type watchSession struct {
	userID    string
	matchID   string
	lastGrant time.Time
	lastBeat  time.Time
}

// AccrualService runs the XP accrual loop server-side. While a session is
// Active, every sweep checks whether a full XPGainInterval has elapsed since
// the last grant and, if so, grants XPPerInterval through the user service
// (which re-derives the rank in the same write). Best-effort semantics: a
// grant in flight when the session is torn down may still land.
type AccrualService struct {
	Users *UserService

	mu       sync.Mutex
	sessions map[string]*watchSession

	now func() time.Time
}

func NewAccrualService(users *UserService) *AccrualService {
	return &AccrualService{
		Users:    users,
		sessions: map[string]*watchSession{},
		now:      time.Now,
	}
}

func sessionKey(userID, matchID string) string { return userID + "|" + matchID }

// Start transitions Idle → Active when playback begins. Anonymous viewers
// never accrue. Restarting an existing session resets its grant clock.
func (s *AccrualService) Start(userID, matchID string) error {
	if userID == "" {
		return ErrAnonymousSession
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionKey(userID, matchID)] = &watchSession{
		userID:    userID,
		matchID:   matchID,
		lastGrant: now,
		lastBeat:  now,
	}
	return nil
}

// Heartbeat reports continued playback. Returns false when no Active session
// exists (the client should Start again).
func (s *AccrualService) Heartbeat(userID, matchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionKey(userID, matchID)]
	if !ok {
		return false
	}
	sess.lastBeat = s.now()
	return true
}

// Stop transitions Active → Idle: playback paused, stopped, or the view was
// torn down. The incomplete interval is discarded with the session.
func (s *AccrualService) Stop(userID, matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(userID, matchID))
}

// ActiveByMatch counts Active sessions per match, for the watching-count job.
func (s *AccrualService) ActiveByMatch() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int64{}
	for _, sess := range s.sessions {
		counts[sess.matchID]++
	}
	return counts
}

// Run drives the accrual loop until ctx is cancelled. The sweep ticker and
// the session registry share the same lifecycle: cancellation stops the
// timer and drops every session.
func (s *AccrualService) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	log.Println("⏱️ XP accrual loop running")
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.mu.Lock()
			s.sessions = map[string]*watchSession{}
			s.mu.Unlock()
			log.Println("⏹️ XP accrual loop stopped")
			return
		}
	}
}

// Sweep performs one accrual check over every session: expire the ones whose
// heartbeats went stale, then grant a full interval's XP where one has
// elapsed. Exposed for the timer loop and for tests driving a fake clock.
func (s *AccrualService) Sweep(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*watchSession
	for key, sess := range s.sessions {
		if now.Sub(sess.lastBeat) > HeartbeatTTL {
			// Playback presumed stopped; back to Idle, no partial credit.
			delete(s.sessions, key)
			continue
		}
		if now.Sub(sess.lastGrant) >= models.XPGainInterval {
			sess.lastGrant = now
			due = append(due, sess)
		}
	}
	s.mu.Unlock()

	// Grants run outside the lock; one landing after a concurrent Stop is
	// accepted (at-most-once is not guaranteed).
	for _, sess := range due {
		if _, err := s.Users.GrantXP(ctx, sess.userID, models.XPPerInterval); err != nil {
			log.Printf("[SWEEP] XP grant failed for %s: %v", sess.userID, err)
		}
	}
}
