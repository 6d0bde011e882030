package repository

import (
	"context"
	"strings"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"gorm.io/gorm"
)

// MessageRepository message data access interface
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	LastPublic(ctx context.Context, limit int) ([]*domain.Message, error)
	Inbox(ctx context.Context, recipientID int64, limit int) ([]*domain.Message, error)
	SearchPublic(ctx context.Context, keyword string, limit int) ([]*domain.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create stores a message
func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// LastPublic returns the newest public messages
func (r *messageRepository) LastPublic(ctx context.Context, limit int) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.WithContext(ctx).
		Where("is_private = ?", false).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// Inbox returns the newest private messages received by recipientID
func (r *messageRepository) Inbox(ctx context.Context, recipientID int64, limit int) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.WithContext(ctx).
		Where("is_private = ? AND target_id = ?", true, recipientID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// SearchPublic finds public messages containing keyword (LIKE wildcards escaped with '!')
func (r *messageRepository) SearchPublic(ctx context.Context, keyword string, limit int) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.WithContext(ctx).
		Where("is_private = ? AND content LIKE ? ESCAPE '!'", false, "%"+escapeLike(keyword)+"%").
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
