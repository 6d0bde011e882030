package repository

import (
	"context"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"gorm.io/gorm"
)

// StatsRepository chat-wide counters
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Collect counts members, messages and polls
func (r *StatsRepository) Collect(ctx context.Context) (*domain.ChatStats, error) {
	db := r.db.WithContext(ctx)
	var stats domain.ChatStats

	counters := []struct {
		dest  *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.ActiveUsers, &domain.Member{}, "exit_time IS NULL", nil},
		{&stats.BannedUsers, &domain.Member{}, "banned = ?", []interface{}{true}},
		{&stats.TotalMessages, &domain.Message{}, "", nil},
		{&stats.TotalPMs, &domain.Message{}, "is_private = ?", []interface{}{true}},
		{&stats.ActivePolls, &domain.Poll{}, "end_time IS NULL", nil},
	}

	for _, c := range counters {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}
