package repository

import (
	"context"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MuteVoteStore time-stamped vote-to-mute records
type MuteVoteStore interface {
	// Add records vote unless the voter already has a vote on the target
	// newer than staleBefore; returns false in that case
	Add(ctx context.Context, vote domain.MuteVote, staleBefore time.Time) (bool, error)
	// Count returns votes on target with created_at strictly after since
	Count(ctx context.Context, target int64, since time.Time) (int64, error)
	// Prune drops votes created at or before cutoff
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// gormMuteVoteStore gorm 기반 투표 저장소
type gormMuteVoteStore struct {
	db *gorm.DB
}

// NewMuteVoteStore creates the database backed MuteVoteStore
func NewMuteVoteStore(db *gorm.DB) MuteVoteStore {
	return &gormMuteVoteStore{db: db}
}

// Add replaces a stale vote by the same voter and inserts the new one in one transaction
func (s *gormMuteVoteStore) Add(ctx context.Context, vote domain.MuteVote, staleBefore time.Time) (bool, error) {
	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("target_id = ? AND voter_id = ? AND created_at <= ?", vote.TargetID, vote.VoterID, staleBefore).
			Delete(&domain.MuteVote{}).Error; err != nil {
			return err
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected == 1
		return nil
	})
	return inserted, err
}

func (s *gormMuteVoteStore) Count(ctx context.Context, target int64, since time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&domain.MuteVote{}).
		Where("target_id = ? AND created_at > ?", target, since).
		Count(&n).Error
	return n, err
}

func (s *gormMuteVoteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at <= ?", cutoff).
		Delete(&domain.MuteVote{})
	return result.RowsAffected, result.Error
}

// EscalationRepository per-target escalation markers
type EscalationRepository struct {
	db *gorm.DB
}

// NewEscalationRepository creates a new EscalationRepository
func NewEscalationRepository(db *gorm.DB) *EscalationRepository {
	return &EscalationRepository{db: db}
}

// WithTx returns a new EscalationRepository with the given transaction
func (r *EscalationRepository) WithTx(tx *gorm.DB) *EscalationRepository {
	return &EscalationRepository{db: tx}
}

// Find returns the marker for target, or nil when the target was never escalated
func (r *EscalationRepository) Find(ctx context.Context, target int64) (*domain.Escalation, error) {
	var marker domain.Escalation
	err := r.db.WithContext(ctx).Where("target_id = ?", target).Limit(1).Find(&marker).Error
	if err != nil {
		return nil, err
	}
	if marker.TargetID == 0 {
		return nil, nil
	}
	return &marker, nil
}

// Upsert writes the marker
func (r *EscalationRepository) Upsert(ctx context.Context, marker *domain.Escalation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"escalated_at", "mute_until"}),
		}).
		Create(marker).Error
}
