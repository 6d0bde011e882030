package repository

import (
	"context"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository member interaction settings and chat-wide overrides
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// FindMemberSettings returns settings for member, zero value when none were saved
func (r *SettingsRepository) FindMemberSettings(ctx context.Context, memberID int64) (*domain.MemberSettings, error) {
	settings := domain.MemberSettings{MemberID: memberID}
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).Limit(1).Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveMemberSettings upserts member settings
func (r *SettingsRepository) SaveMemberSettings(ctx context.Context, settings *domain.MemberSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "member_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"hug_text", "slap_text"}),
		}).
		Create(settings).Error
}

// FindChatSetting returns the override for key, or nil
func (r *SettingsRepository) FindChatSetting(ctx context.Context, key string) (*domain.ChatSetting, error) {
	var setting domain.ChatSetting
	err := r.db.WithContext(ctx).Where("setting_key = ?", key).Limit(1).Find(&setting).Error
	if err != nil {
		return nil, err
	}
	if setting.Key == "" {
		return nil, nil
	}
	return &setting, nil
}

// SaveChatSetting upserts an override
func (r *SettingsRepository) SaveChatSetting(ctx context.Context, setting *domain.ChatSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at", "updated_by"}),
		}).
		Create(setting).Error
}
