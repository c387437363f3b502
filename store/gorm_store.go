package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"toto-stream/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore backs the platform with Postgres via GORM.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// AutoMigrate creates/updates the schema for every platform model.
func (s *GormStore) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.PlatformSettings{},
		&models.Match{},
		&models.ChatMessage{},
	)
}

func wrapDB(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// --- Users ---

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, wrapDB(err)
	}
	return &u, nil
}

func (s *GormStore) UpsertUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		err := tx.Where("id = ?", id).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u = models.User{ID: id, Rank: models.RankBronze}
			patch.Apply(&u)
			return tx.Create(&u).Error
		}
		if err != nil {
			return err
		}
		cols := patch.Columns()
		if len(cols) == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", id).Updates(cols).Error
	})
	if err != nil {
		return nil, wrapDB(err)
	}
	return s.GetUser(ctx, id)
}

func (s *GormStore) ListUsersByXP(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	q := s.DB.WithContext(ctx).Order("xp DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, wrapDB(err)
	}
	return users, nil
}

func (s *GormStore) DeleteUser(ctx context.Context, id string) error {
	// Hard delete: the id is an external identity and the same account must
	// be able to re-provision; a soft-deleted row would hold the primary key
	// and break the next first-login create.
	return wrapDB(s.DB.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&models.User{}).Error)
}

func (s *GormStore) UsersChangedSince(ctx context.Context, since time.Time) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Where("updated_at > ?", since).
		Order("updated_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	return users, nil
}

// --- Settings ---

func (s *GormStore) GetSettings(ctx context.Context) (*models.PlatformSettings, error) {
	var st models.PlatformSettings
	if err := s.DB.WithContext(ctx).Where("id = ?", models.SettingsSingletonID).First(&st).Error; err != nil {
		return nil, wrapDB(err)
	}
	return &st, nil
}

func (s *GormStore) PutSettings(ctx context.Context, st models.PlatformSettings) error {
	st.ID = models.SettingsSingletonID
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"logo_url", "external_channel_link"}),
	}).Create(&st).Error
	return wrapDB(err)
}

func (s *GormStore) MergeSettings(ctx context.Context, patch models.SettingsPatch) (*models.PlatformSettings, error) {
	cols := patch.Columns()
	if len(cols) > 0 {
		err := s.DB.WithContext(ctx).
			Model(&models.PlatformSettings{}).
			Where("id = ?", models.SettingsSingletonID).
			Updates(cols).Error
		if err != nil {
			return nil, wrapDB(err)
		}
	}
	return s.GetSettings(ctx)
}

// --- Matches ---

func (s *GormStore) CreateMatch(ctx context.Context, m *models.Match) error {
	return wrapDB(s.DB.WithContext(ctx).Create(m).Error)
}

func (s *GormStore) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	var m models.Match
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, wrapDB(err)
	}
	return &m, nil
}

func (s *GormStore) GetMatchBySlug(ctx context.Context, slug string) (*models.Match, error) {
	var m models.Match
	if err := s.DB.WithContext(ctx).Where("slug = ?", slug).First(&m).Error; err != nil {
		return nil, wrapDB(err)
	}
	return &m, nil
}

func (s *GormStore) ListMatches(ctx context.Context) ([]models.Match, error) {
	var ms []models.Match
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&ms).Error; err != nil {
		return nil, wrapDB(err)
	}
	return ms, nil
}

func (s *GormStore) UpdateMatch(ctx context.Context, id string, patch models.MatchPatch) (*models.Match, error) {
	cols := patch.Columns()
	if len(cols) > 0 {
		res := s.DB.WithContext(ctx).
			Model(&models.Match{}).
			Where("id = ?", id).
			Updates(cols)
		if res.Error != nil {
			return nil, wrapDB(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetMatch(ctx, id)
}

func (s *GormStore) DeleteMatch(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Chat is owned by the match; drop the sub-collection with it.
		if err := tx.Where("match_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return wrapDB(err)
		}
		// Hard delete so the slug's unique index frees up and the title can
		// be reused by a future match.
		return wrapDB(tx.Unscoped().Where("id = ?", id).Delete(&models.Match{}).Error)
	})
}

func (s *GormStore) MatchesChangedSince(ctx context.Context, since time.Time) ([]models.Match, error) {
	var ms []models.Match
	err := s.DB.WithContext(ctx).
		Where("updated_at > ?", since).
		Order("updated_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	return ms, nil
}

// --- Chat ---

func (s *GormStore) AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	return wrapDB(s.DB.WithContext(ctx).Create(msg).Error)
}

func (s *GormStore) RecentChat(ctx context.Context, matchID string, limit int) ([]models.ChatMessage, error) {
	// Window at the read boundary: select only the newest limit rows, then
	// flip to delivery order (oldest first).
	var msgs []models.ChatMessage
	err := s.DB.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("sent_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	models.SortChat(msgs)
	return msgs, nil
}

func (s *GormStore) ChatChangedSince(ctx context.Context, since time.Time) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := s.DB.WithContext(ctx).
		Where("sent_at > ?", since).
		Order("sent_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	return msgs, nil
}

func (s *GormStore) PruneChat(ctx context.Context, matchID string, keep int) error {
	err := s.DB.WithContext(ctx).Exec(`
		DELETE FROM chat_messages
		WHERE match_id = ? AND id NOT IN (
			SELECT id FROM chat_messages
			WHERE match_id = ?
			ORDER BY sent_at DESC
			LIMIT ?
		)`, matchID, matchID, keep).Error
	return wrapDB(err)
}
