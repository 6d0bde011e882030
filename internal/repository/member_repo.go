package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberRepository member data access interface
type MemberRepository interface {
	// Read operations
	FindByID(ctx context.Context, id int64) (*domain.Member, error)
	FindByNick(ctx context.Context, nick string) (*domain.Member, error)
	ListActive(ctx context.Context) ([]*domain.Member, error)
	ActiveIDs(ctx context.Context) ([]int64, error)

	// Write operations
	Upsert(ctx context.Context, member *domain.Member) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) (*domain.Member, error)
	Delete(ctx context.Context, id int64) error

	// Transaction
	WithTx(tx *gorm.DB) MemberRepository
	DB() *gorm.DB
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *memberRepository) WithTx(tx *gorm.DB) MemberRepository {
	return &memberRepository{db: tx}
}

// DB returns the underlying database instance
func (r *memberRepository) DB() *gorm.DB {
	return r.db
}

// FindByID finds member by id
func (r *memberRepository) FindByID(ctx context.Context, id int64) (*domain.Member, error) {
	var member domain.Member
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	if err != nil {
		return nil, notFound(err, common.ErrMemberNotFound)
	}
	return &member, nil
}

// FindByNick finds the most recently joined member with nick
func (r *memberRepository) FindByNick(ctx context.Context, nick string) (*domain.Member, error) {
	var member domain.Member
	err := r.db.WithContext(ctx).
		Where("nick = ?", nick).
		Order("join_time DESC").
		First(&member).Error
	if err != nil {
		return nil, notFound(err, common.ErrMemberNotFound)
	}
	return &member, nil
}

// ListActive returns members currently in chat, oldest first
func (r *memberRepository) ListActive(ctx context.Context) ([]*domain.Member, error) {
	var members []*domain.Member
	err := r.db.WithContext(ctx).
		Where("exit_time IS NULL").
		Order("join_time ASC").
		Find(&members).Error
	return members, err
}

// ActiveIDs returns ids of members currently in chat
func (r *memberRepository) ActiveIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("exit_time IS NULL").
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// Upsert inserts the member or overwrites every column of an existing row
func (r *memberRepository) Upsert(ctx context.Context, member *domain.Member) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(member).Error
}

// UpdateFields applies column changes and returns the committed row.
// Existence is checked by reading, since MySQL reports 0 affected rows for no-op updates.
func (r *memberRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) (*domain.Member, error) {
	var updated domain.Member
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&updated).Error; err != nil {
			return notFound(err, common.ErrMemberNotFound)
		}
		if len(fields) > 0 {
			if err := tx.Model(&domain.Member{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return fmt.Errorf("update member %d: %w", id, err)
			}
		}
		updated = domain.Member{}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the member row
func (r *memberRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Member{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrMemberNotFound
	}
	return nil
}

// notFound maps gorm.ErrRecordNotFound to a tagged domain error
func notFound(err, tagged error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tagged
	}
	return err
}
