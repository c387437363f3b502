package services

import (
	"context"
	"errors"
	"log"

	"toto-stream/models"
	"toto-stream/store"
)

// SettingsService adapts the singleton configuration record. Reads always
// produce a complete record; an unreachable store degrades to the built-in
// defaults instead of failing the page.
type SettingsService struct {
	Store store.Store
}

func NewSettingsService(st store.Store) *SettingsService {
	return &SettingsService{Store: st}
}

// Get returns the settings singleton, creating it with defaults on first
// read. Missing fields are backfilled; a store outage falls back to the
// defaults (and reports the error alongside them so callers can log it).
func (s *SettingsService) Get(ctx context.Context) (models.PlatformSettings, error) {
	st, err := s.Store.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		def := DefaultSettings()
		if putErr := s.Store.PutSettings(ctx, def); putErr != nil {
			log.Printf("⚠️ settings bootstrap failed, serving defaults: %v", putErr)
			return def, nil
		}
		return def, nil
	}
	if err != nil {
		log.Printf("⚠️ settings read failed, serving defaults: %v", err)
		return DefaultSettings(), err
	}
	st.FillDefaults()
	return *st, nil
}

// Update merges the patch onto the stored record, last-write-wins.
// Unspecified fields are preserved, never cleared.
func (s *SettingsService) Update(ctx context.Context, patch models.SettingsPatch) (models.PlatformSettings, error) {
	merged, err := s.Store.MergeSettings(ctx, patch)
	if errors.Is(err, store.ErrNotFound) {
		// First write before any read: start from defaults, then merge.
		st := DefaultSettings()
		patch.Apply(&st)
		if err := s.Store.PutSettings(ctx, st); err != nil {
			return DefaultSettings(), err
		}
		return st, nil
	}
	if err != nil {
		return DefaultSettings(), err
	}
	merged.FillDefaults()
	return *merged, nil
}

// DefaultSettings is re-exported so callers falling back on store outages
// share one source of truth with the models package.
func DefaultSettings() models.PlatformSettings {
	return models.DefaultSettings()
}
