package models

import "time"

// PlatformSettings is the single global configuration record, created with
// defaults on first read and mutated only by administrators. Writes are rare
// and last-write-wins.
type PlatformSettings struct {
	ID                  uint      `gorm:"primaryKey" json:"-"` // always SettingsSingletonID
	LogoURL             string    `json:"logo_url"`
	ExternalChannelLink string    `json:"external_channel_link"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// SettingsSingletonID is the fixed primary key of the one settings row.
const SettingsSingletonID uint = 1

func DefaultSettings() PlatformSettings {
	return PlatformSettings{
		ID:                  SettingsSingletonID,
		LogoURL:             "https://cdn-icons-png.flaticon.com/512/732/732232.png",
		ExternalChannelLink: "https://t.me/your_channel",
	}
}

// FillDefaults backfills any missing field so a settings read never returns a
// partial record.
func (s *PlatformSettings) FillDefaults() {
	def := DefaultSettings()
	s.ID = SettingsSingletonID
	if s.LogoURL == "" {
		s.LogoURL = def.LogoURL
	}
	if s.ExternalChannelLink == "" {
		s.ExternalChannelLink = def.ExternalChannelLink
	}
}

// SettingsPatch merges onto the existing record; nil fields are preserved,
// never cleared.
type SettingsPatch struct {
	LogoURL             *string `json:"logo_url,omitempty"`
	ExternalChannelLink *string `json:"external_channel_link,omitempty"`
}

func (p SettingsPatch) Apply(s *PlatformSettings) {
	if p.LogoURL != nil {
		s.LogoURL = *p.LogoURL
	}
	if p.ExternalChannelLink != nil {
		s.ExternalChannelLink = *p.ExternalChannelLink
	}
}

// Columns returns the gorm column assignments the patch touches.
func (p SettingsPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.LogoURL != nil {
		cols["logo_url"] = *p.LogoURL
	}
	if p.ExternalChannelLink != nil {
		cols["external_channel_link"] = *p.ExternalChannelLink
	}
	return cols
}
