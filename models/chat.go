package models

import (
	"sort"
	"time"
)

// ChatWindowSize is the hard ceiling on messages delivered per match. The cap
// is enforced at the read boundary: only the most recent window is ever
// transmitted, oldest-first.
const ChatWindowSize = 50

// ChatRetention is how many messages per match survive the pruning job.
// Anything beyond the delivery window is dead weight, but a margin is kept so
// the window never shrinks mid-prune.
const ChatRetention = 200

// ChatMessage belongs to exactly one Match and is immutable once created.
// AuthorRank is a denormalized snapshot taken at send time, never updated
// when the author later ranks up.
type ChatMessage struct {
	ID      string `gorm:"primaryKey" json:"id"`
	MatchID string `gorm:"index;not null" json:"match_id"`

	AuthorID   string `gorm:"index;not null" json:"author_id"`
	AuthorName string `json:"author_name"`
	AuthorRank Rank   `gorm:"type:varchar(16)" json:"author_rank"`
	AvatarURL  string `json:"avatar_url,omitempty"`

	Body        string `gorm:"type:text;not null" json:"body"`
	IsAssistant bool   `gorm:"default:false" json:"is_assistant,omitempty"`

	// Server-assigned at append; clients never supply it.
	SentAt time.Time `gorm:"index" json:"sent_at"`
}

// SortChat orders oldest-first in place (delivery order within the window).
func SortChat(msgs []ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
}
