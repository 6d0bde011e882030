package migration

import (
	"errors"
	"fmt"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"gorm.io/gorm"
)

// models 마이그레이션 대상 테이블 (순서대로 생성)
var models = []interface{}{
	&domain.Member{},
	&domain.AuditEntry{},
	&domain.Message{},
	&domain.Poll{},
	&domain.PollVote{},
	&domain.NativePollAnswer{},
	&domain.MuteVote{},
	&domain.Escalation{},
	&domain.MemberSettings{},
	&domain.ChatSetting{},
}

// Run executes AutoMigrate for every table. 테이블 없으면 생성, 있으면 컬럼만 보강
func Run(db *gorm.DB) error {
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// SeedOwner 소유자 계정이 없을 때만 생성
func SeedOwner(db *gorm.DB, id int64, nick string, now time.Time) (bool, error) {
	if id == 0 {
		return false, nil
	}

	var existing domain.Member
	err := db.Where("id = ?", id).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role == domain.RoleOwner {
			return false, nil
		}
		return true, db.Model(&domain.Member{}).Where("id = ?", id).Update("role", domain.RoleOwner).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		owner := &domain.Member{
			ID:           id,
			Nick:         nick,
			Role:         domain.RoleOwner,
			JoinTime:     now,
			Achievements: domain.AchievementSet{domain.AchievementWelcome},
		}
		return true, db.Create(owner).Error
	default:
		return false, err
	}
}
