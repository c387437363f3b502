package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Sport string

const (
	SportCricket    Sport = "Cricket"
	SportFootball   Sport = "Football"
	SportBasketball Sport = "Basketball"
	SportTennis     Sport = "Tennis"
	SportOther      Sport = "Other"
)

func (s Sport) Valid() bool {
	switch s {
	case SportCricket, SportFootball, SportBasketball, SportTennis, SportOther:
		return true
	}
	return false
}

type MatchStatus string

const (
	MatchLive     MatchStatus = "live"
	MatchUpcoming MatchStatus = "upcoming"
	MatchEnded    MatchStatus = "ended"
)

func (s MatchStatus) Valid() bool {
	return s == MatchLive || s == MatchUpcoming || s == MatchEnded
}

type StreamKind string

const (
	StreamHLS   StreamKind = "hls"
	StreamEmbed StreamKind = "embed"
)

// StreamSource is a tagged variant: an HLS playlist URL, or an embeddable
// player given either by URL or raw iframe markup. An empty Kind means the
// source slot is unused (matches carry one or two slots).
type StreamSource struct {
	Kind   StreamKind `gorm:"type:varchar(8)" json:"kind,omitempty"`
	URL    string     `json:"url,omitempty"`
	Markup string     `gorm:"type:text" json:"markup,omitempty"`
}

func (s StreamSource) IsZero() bool { return s.Kind == "" }

func (s StreamSource) Validate() error {
	switch s.Kind {
	case StreamHLS:
		if strings.TrimSpace(s.URL) == "" {
			return errors.New("hls source requires a playlist url")
		}
		if s.Markup != "" {
			return errors.New("hls source cannot carry embed markup")
		}
	case StreamEmbed:
		if strings.TrimSpace(s.URL) == "" && strings.TrimSpace(s.Markup) == "" {
			return errors.New("embed source requires a url or raw markup")
		}
	default:
		return fmt.Errorf("unknown stream kind %q", s.Kind)
	}
	return nil
}

// Match is a broadcastable live event. Created, edited and deleted only by
// administrators; viewer-facing paths consume it read-only.
type Match struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Slug  string `gorm:"uniqueIndex;not null" json:"slug"`
	Title string `gorm:"not null" json:"title"`
	Sport Sport  `gorm:"type:varchar(16);not null" json:"sport"`

	Primary   StreamSource `gorm:"embedded;embeddedPrefix:primary_" json:"primary"`
	Secondary StreamSource `gorm:"embedded;embeddedPrefix:secondary_" json:"secondary,omitempty"` // optional second server

	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	Description  string      `gorm:"type:text" json:"description,omitempty"`
	Status       MatchStatus `gorm:"type:varchar(10);index;not null" json:"status"`
	ChatEnabled  bool        `gorm:"default:true" json:"chat_enabled"`

	// Viewers is the advertised headline figure; Watching is maintained from
	// live accrual sessions by a background job.
	Viewers  int64 `gorm:"default:0" json:"viewers"`
	Watching int64 `gorm:"default:0" json:"watching"`

	Timestamps
}

// Source selects the active stream source by server slot (1 or 2). The second
// slot falls back to the primary when unused.
func (m *Match) Source(server int) StreamSource {
	if server == 2 && !m.Secondary.IsZero() {
		return m.Secondary
	}
	return m.Primary
}

func (m *Match) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("title is required")
	}
	if !m.Sport.Valid() {
		return fmt.Errorf("unknown sport %q", m.Sport)
	}
	if !m.Status.Valid() {
		return fmt.Errorf("unknown status %q", m.Status)
	}
	if err := m.Primary.Validate(); err != nil {
		return fmt.Errorf("primary source: %w", err)
	}
	if !m.Secondary.IsZero() {
		if err := m.Secondary.Validate(); err != nil {
			return fmt.Errorf("secondary source: %w", err)
		}
	}
	return nil
}

// MatchPatch is a merge write for admin edits; nil fields are preserved.
type MatchPatch struct {
	Title        *string       `json:"title,omitempty"`
	Sport        *Sport        `json:"sport,omitempty"`
	Primary      *StreamSource `json:"primary,omitempty"`
	Secondary    *StreamSource `json:"secondary,omitempty"`
	ThumbnailURL *string       `json:"thumbnail_url,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Status       *MatchStatus  `json:"status,omitempty"`
	ChatEnabled  *bool         `json:"chat_enabled,omitempty"`
	Viewers      *int64        `json:"viewers,omitempty"`
	Watching     *int64        `json:"watching,omitempty"`
}

func (p MatchPatch) Apply(m *Match) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Sport != nil {
		m.Sport = *p.Sport
	}
	if p.Primary != nil {
		m.Primary = *p.Primary
	}
	if p.Secondary != nil {
		m.Secondary = *p.Secondary
	}
	if p.ThumbnailURL != nil {
		m.ThumbnailURL = *p.ThumbnailURL
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.ChatEnabled != nil {
		m.ChatEnabled = *p.ChatEnabled
	}
	if p.Viewers != nil {
		m.Viewers = *p.Viewers
	}
	if p.Watching != nil {
		m.Watching = *p.Watching
	}
}

// Columns returns the gorm column assignments the patch touches.
func (p MatchPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Sport != nil {
		cols["sport"] = *p.Sport
	}
	if p.Primary != nil {
		cols["primary_kind"] = p.Primary.Kind
		cols["primary_url"] = p.Primary.URL
		cols["primary_markup"] = p.Primary.Markup
	}
	if p.Secondary != nil {
		cols["secondary_kind"] = p.Secondary.Kind
		cols["secondary_url"] = p.Secondary.URL
		cols["secondary_markup"] = p.Secondary.Markup
	}
	if p.ThumbnailURL != nil {
		cols["thumbnail_url"] = *p.ThumbnailURL
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.ChatEnabled != nil {
		cols["chat_enabled"] = *p.ChatEnabled
	}
	if p.Viewers != nil {
		cols["viewers"] = *p.Viewers
	}
	if p.Watching != nil {
		cols["watching"] = *p.Watching
	}
	return cols
}

// SortMatches orders newest-first in place, the order every listing and
// subscription delivers.
func SortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].CreatedAt.After(ms[j].CreatedAt)
	})
}
