package repository

import (
	"context"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"gorm.io/gorm"
)

// AuditRepository handles audit entry storage
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// WithTx returns a new AuditRepository with the given transaction
func (r *AuditRepository) WithTx(tx *gorm.DB) *AuditRepository {
	return &AuditRepository{db: tx}
}

// Create appends an entry
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindRecentBySubject returns entries where subject is the target or the actor, newest first
func (r *AuditRepository) FindRecentBySubject(ctx context.Context, subject int64, limit int) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	err := r.db.WithContext(ctx).
		Where("target_id = ? OR actor_id = ?", subject, subject).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// DeleteOlderThan removes entries written before cutoff
func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&domain.AuditEntry{})
	return result.RowsAffected, result.Error
}
