package repository

import (
	"context"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PollRepository poll data access interface
type PollRepository interface {
	Create(ctx context.Context, poll *domain.Poll) error
	FindByID(ctx context.Context, id int64) (*domain.Poll, error)
	ListOpen(ctx context.Context) ([]*domain.Poll, error)

	// InsertVote returns false when the voter already voted on the poll
	InsertVote(ctx context.Context, vote *domain.PollVote) (bool, error)
	CountByOption(ctx context.Context, pollID int64) (map[int]int64, error)
	// CloseIfOpen returns false when the poll was already closed
	CloseIfOpen(ctx context.Context, id int64, at time.Time) (bool, error)

	InsertNativeAnswer(ctx context.Context, answer *domain.NativePollAnswer) (bool, error)
}

type pollRepository struct {
	db *gorm.DB
}

// NewPollRepository creates a new PollRepository
func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

// Create inserts a poll and assigns its id
func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	return r.db.WithContext(ctx).Create(poll).Error
}

// FindByID finds poll by id
func (r *pollRepository) FindByID(ctx context.Context, id int64) (*domain.Poll, error) {
	var poll domain.Poll
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&poll).Error; err != nil {
		return nil, notFound(err, common.ErrPollNotFound)
	}
	return &poll, nil
}

// ListOpen returns polls without end time, newest first
func (r *pollRepository) ListOpen(ctx context.Context) ([]*domain.Poll, error) {
	var polls []*domain.Poll
	err := r.db.WithContext(ctx).
		Where("end_time IS NULL").
		Order("start_time DESC").
		Find(&polls).Error
	return polls, err
}

// InsertVote relies on the (poll_id, voter_id) primary key; a conflicting insert affects no rows
func (r *pollRepository) InsertVote(ctx context.Context, vote *domain.PollVote) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(vote)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

type optionCount struct {
	OptionIndex int
	Votes       int64
}

// CountByOption returns vote counts keyed by option index (options without votes are absent)
func (r *pollRepository) CountByOption(ctx context.Context, pollID int64) (map[int]int64, error) {
	var rows []optionCount
	err := r.db.WithContext(ctx).
		Model(&domain.PollVote{}).
		Select("option_index, COUNT(*) AS votes").
		Where("poll_id = ?", pollID).
		Group("option_index").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.OptionIndex] = row.Votes
	}
	return counts, nil
}

// CloseIfOpen sets end_time only while it is still NULL
func (r *pollRepository) CloseIfOpen(ctx context.Context, id int64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Poll{}).
		Where("id = ? AND end_time IS NULL", id).
		Update("end_time", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// InsertNativeAnswer relies on the (poll_key, voter_id) primary key
func (r *pollRepository) InsertNativeAnswer(ctx context.Context, answer *domain.NativePollAnswer) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(answer)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
