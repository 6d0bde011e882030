package service

import (
	"context"
	"errors"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/pkg/cache"
	"github.com/chatwarden/chatwarden-backend/pkg/logger"
)

const statsScope = "chat"

// StatsService 채팅 통계 (Redis 캐시 우선, 없으면 로컬 캐시)
type StatsService struct {
	repo   *repository.StatsRepository
	remote cache.Service
	local  *cache.Local[string, domain.ChatStats]
}

// NewStatsService creates a StatsService. remote may be nil or unavailable.
func NewStatsService(repo *repository.StatsRepository, remote cache.Service, local *cache.Local[string, domain.ChatStats]) *StatsService {
	return &StatsService{repo: repo, remote: remote, local: local}
}

// Get returns chat stats, cached for cache.TTLStats
func (s *StatsService) Get(ctx context.Context) (*domain.ChatStats, error) {
	if s.useRemote() {
		var stats domain.ChatStats
		err := s.remote.GetStats(ctx, statsScope, &stats)
		if err == nil {
			return &stats, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logger.GetLogger().Warn().Err(err).Msg("stats cache read failed")
		}
	} else if stats, ok := s.local.Get(statsScope); ok {
		return &stats, nil
	}

	stats, err := s.repo.Collect(ctx)
	if err != nil {
		return nil, err
	}

	if s.useRemote() {
		if err := s.remote.SetStats(ctx, statsScope, stats); err != nil {
			logger.GetLogger().Warn().Err(err).Msg("stats cache write failed")
		}
	} else {
		s.local.Set(statsScope, *stats)
	}
	return stats, nil
}

// Invalidate drops cached stats
func (s *StatsService) Invalidate(ctx context.Context) error {
	s.local.Delete(statsScope)
	if s.useRemote() {
		return s.remote.InvalidateStats(ctx)
	}
	return nil
}

func (s *StatsService) useRemote() bool {
	return s.remote != nil && s.remote.IsAvailable()
}
