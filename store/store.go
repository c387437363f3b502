package store

import (
	"context"
	"errors"
	"time"

	"toto-stream/models"
)

var (
	// ErrNotFound means the requested record does not exist. Callers surface this
	// as navigation-away (matches) or first-seen provisioning (users), never
	// as a crash.
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable means the backing store is not configured or not
	// reachable. Callers fall back to built-in defaults or stale state.
	ErrStoreUnavailable = errors.New("backing store unavailable")
)

// Store is the document-store boundary the platform core is written against.
// The production implementation is Postgres (GormStore); the offline revision
// is an in-memory shim (MemStore) with the same last-write-wins merge
// semantics and no concurrency control beyond a mutex. All writes are
// merge-on-write: patches touch only the fields they carry, and invariant
// maintenance (rank matching xp) is the caller's contract, not enforced here.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	// UpsertUser merge-writes the patch; the record is created if absent.
	UpsertUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	// ListUsersByXP returns up to limit users, highest XP first.
	ListUsersByXP(ctx context.Context, limit int) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error
	UsersChangedSince(ctx context.Context, since time.Time) ([]models.User, error)

	GetSettings(ctx context.Context) (*models.PlatformSettings, error)
	PutSettings(ctx context.Context, s models.PlatformSettings) error
	MergeSettings(ctx context.Context, patch models.SettingsPatch) (*models.PlatformSettings, error)

	CreateMatch(ctx context.Context, m *models.Match) error
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	GetMatchBySlug(ctx context.Context, slug string) (*models.Match, error)
	// ListMatches returns every match, newest first.
	ListMatches(ctx context.Context) ([]models.Match, error)
	UpdateMatch(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error)
	DeleteMatch(ctx context.Context, id string) error
	MatchesChangedSince(ctx context.Context, since time.Time) ([]models.Match, error)

	AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error
	// RecentChat returns at most limit messages for the match, oldest-first.
	// The cap is applied at the read boundary: only the most recent limit
	// messages are ever selected.
	RecentChat(ctx context.Context, matchID string, limit int) ([]models.ChatMessage, error)
	ChatChangedSince(ctx context.Context, since time.Time) ([]models.ChatMessage, error)
	// PruneChat drops everything but the most recent keep messages per match.
	PruneChat(ctx context.Context, matchID string, keep int) error
}
