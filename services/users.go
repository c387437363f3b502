package services

import (
	"context"
	"errors"
	"log"
	"time"

	"toto-stream/models"
	"toto-stream/store"
	"toto-stream/utils"
)

// LeaderboardSize caps the global leaderboard query.
const LeaderboardSize = 30

// UserService owns the per-user profile record: reads, merge writes,
// first-seen provisioning and the admin moderation switches. All writes are
// last-write-wins merges: concurrent writers (XP grants, profile edits, the
// admin console) are accepted without locking, per the platform trust model.
type UserService struct {
	Store store.Store
	Hub   *LiveHub

	now func() time.Time
}

func NewUserService(st store.Store, hub *LiveHub) *UserService {
	return &UserService{Store: st, Hub: hub, now: time.Now}
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.Store.GetUser(ctx, id)
}

// EnsureUser provisions the record on first authentication: xp=0, Bronze,
// non-admin, avatar defaulted deterministically from the id when the provider
// supplied none. Two concurrent first-logins may both provision; last write
// wins and that is accepted. For existing users a changed identity payload
// (display name, avatar) is merged in.
func (s *UserService) EnsureUser(ctx context.Context, id, displayName, avatarURL string) (*models.User, error) {
	u, err := s.Store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		if avatarURL == "" {
			avatarURL = utils.DefaultAvatarURL(id)
		}
		if displayName == "" {
			displayName = "viewer-" + id
		}
		xp := int64(0)
		rank := models.ResolveRank(xp)
		admin := false
		now := s.now()
		created, err := s.Store.UpsertUser(ctx, id, models.UserPatch{
			DisplayName:  &displayName,
			XP:           &xp,
			Rank:         &rank,
			IsAdmin:      &admin,
			AvatarURL:    &avatarURL,
			LastActiveAt: &now,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("👤 Provisioned user %s (%s)", id, displayName)
		s.Hub.PublishUser(*created)
		return created, nil
	}
	if err != nil {
		return nil, err
	}

	patch := models.UserPatch{}
	if displayName != "" && displayName != u.DisplayName {
		patch.DisplayName = &displayName
	}
	if avatarURL != "" && avatarURL != u.AvatarURL {
		patch.AvatarURL = &avatarURL
	}
	if patch.DisplayName == nil && patch.AvatarURL == nil {
		return u, nil
	}
	updated, err := s.Store.UpsertUser(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.Hub.PublishUser(*updated)
	return updated, nil
}

// UpdateProfile applies a user-initiated edit. Only the user-editable fields
// are honored; everything else in the record is out of the owner's reach.
func (s *UserService) UpdateProfile(ctx context.Context, id string, displayName, avatarURL *string) (*models.User, error) {
	if _, err := s.Store.GetUser(ctx, id); err != nil {
		return nil, err
	}
	now := s.now()
	updated, err := s.Store.UpsertUser(ctx, id, models.UserPatch{
		DisplayName:  displayName,
		AvatarURL:    avatarURL,
		LastActiveAt: &now,
	})
	if err != nil {
		return nil, err
	}
	s.Hub.PublishUser(*updated)
	return updated, nil
}

// GrantXP adds amount to the user's XP and re-derives the rank in the same
// merge write. The read-then-write has no version check: concurrent grants
// may under-count, a documented limitation kept from the reference design.
func (s *UserService) GrantXP(ctx context.Context, id string, amount int64) (*models.User, error) {
	u, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	newXP := u.XP + amount
	if newXP < 0 {
		newXP = 0
	}
	newRank := models.ResolveRank(newXP)
	now := s.now()
	updated, err := s.Store.UpsertUser(ctx, id, models.UserPatch{
		XP:           &newXP,
		Rank:         &newRank,
		LastActiveAt: &now,
	})
	if err != nil {
		return nil, err
	}
	if updated.Rank != u.Rank {
		log.Printf("🏆 Rank up: %s %s → %s (xp=%d)", id, u.Rank, updated.Rank, updated.XP)
	}
	s.Hub.PublishUser(*updated)
	return updated, nil
}

// ResetXP is the admin override: it sets XP to an absolute value and always
// re-derives the rank in the same write, so a Diamond user reset to 0 lands
// back at Bronze, the cached rank is never left stale.
func (s *UserService) ResetXP(ctx context.Context, id string, xp int64) (*models.User, error) {
	if xp < 0 {
		xp = 0
	}
	if _, err := s.Store.GetUser(ctx, id); err != nil {
		return nil, err
	}
	rank := models.ResolveRank(xp)
	updated, err := s.Store.UpsertUser(ctx, id, models.UserPatch{XP: &xp, Rank: &rank})
	if err != nil {
		return nil, err
	}
	log.Printf("🛠️ Admin XP reset: %s → xp=%d rank=%s", id, xp, rank)
	s.Hub.PublishUser(*updated)
	return updated, nil
}

// SetFlags flips the moderation switches; both are independent of XP.
func (s *UserService) SetFlags(ctx context.Context, id string, isAdmin, isBanned *bool) (*models.User, error) {
	if _, err := s.Store.GetUser(ctx, id); err != nil {
		return nil, err
	}
	updated, err := s.Store.UpsertUser(ctx, id, models.UserPatch{IsAdmin: isAdmin, IsBanned: isBanned})
	if err != nil {
		return nil, err
	}
	s.Hub.PublishUser(*updated)
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.Store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.Hub.PublishUserAbsent(id)
	return nil
}

// Leaderboard returns the top champions by XP, highest first.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = LeaderboardSize
	}
	return s.Store.ListUsersByXP(ctx, limit)
}

// ListAll returns every user for the admin console.
func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.Store.ListUsersByXP(ctx, 0)
}
