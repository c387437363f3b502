package models

import (
	"time"

	"gorm.io/gorm"
)

// User is one platform account. XP is the sole driver of Rank: every write
// that changes XP must re-derive Rank via ResolveRank in the same update.
type User struct {
	ID          string `gorm:"primaryKey" json:"id"` // provider-issued or bridge-derived, immutable
	DisplayName string `gorm:"index;not null" json:"display_name"`

	XP   int64 `gorm:"default:0" json:"xp"`
	Rank Rank  `gorm:"type:varchar(16);default:'Bronze'" json:"rank"` // cached; always equals ResolveRank(XP)

	IsAdmin  bool `gorm:"default:false" json:"is_admin"`
	IsBanned bool `gorm:"default:false" json:"is_banned"`

	AvatarURL string `json:"avatar_url,omitempty"`

	// Advisory only, bumped on XP grants and profile activity.
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`

	Timestamps
}

// UserPatch is a merge write: nil fields are left untouched in the stored
// record. A patch that sets XP must carry the matching Rank: merge semantics
// are last-write-wins with no version check, so invariant maintenance is the
// writer's job.
type UserPatch struct {
	DisplayName  *string    `json:"display_name,omitempty"`
	XP           *int64     `json:"xp,omitempty"`
	Rank         *Rank      `json:"rank,omitempty"`
	IsAdmin      *bool      `json:"is_admin,omitempty"`
	IsBanned     *bool      `json:"is_banned,omitempty"`
	AvatarURL    *string    `json:"avatar_url,omitempty"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

// Apply merges the patch onto u in place.
func (p UserPatch) Apply(u *User) {
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.XP != nil {
		u.XP = *p.XP
	}
	if p.Rank != nil {
		u.Rank = *p.Rank
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	if p.IsBanned != nil {
		u.IsBanned = *p.IsBanned
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.LastActiveAt != nil {
		t := *p.LastActiveAt
		u.LastActiveAt = &t
	}
}

// Columns returns the gorm column assignments the patch touches.
func (p UserPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.DisplayName != nil {
		cols["display_name"] = *p.DisplayName
	}
	if p.XP != nil {
		cols["xp"] = *p.XP
	}
	if p.Rank != nil {
		cols["rank"] = *p.Rank
	}
	if p.IsAdmin != nil {
		cols["is_admin"] = *p.IsAdmin
	}
	if p.IsBanned != nil {
		cols["is_banned"] = *p.IsBanned
	}
	if p.AvatarURL != nil {
		cols["avatar_url"] = *p.AvatarURL
	}
	if p.LastActiveAt != nil {
		cols["last_active_at"] = *p.LastActiveAt
	}
	return cols
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
