package service

import (
	"context"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	"github.com/chatwarden/chatwarden-backend/pkg/logger"
)

// VoteAggregator 투표 뮤트 집계 (sliding window)
type VoteAggregator struct {
	store     repository.MuteVoteStore
	directory *Directory
	clock     clock.Clock
	window    time.Duration
}

// NewVoteAggregator creates a VoteAggregator; window bounds duplicate detection and pruning
func NewVoteAggregator(store repository.MuteVoteStore, directory *Directory, clk clock.Clock, window time.Duration) *VoteAggregator {
	if clk == nil {
		clk = clock.Real()
	}
	return &VoteAggregator{store: store, directory: directory, clock: clk, window: window}
}

// Window returns the configured aggregation window
func (v *VoteAggregator) Window() time.Duration {
	return v.window
}

// AddVote records voter's vote against target.
// A vote older than the window is stale and is replaced.
func (v *VoteAggregator) AddVote(ctx context.Context, targetID, voterID int64) error {
	if targetID == voterID {
		return common.ErrSelfVote
	}

	target, err := v.directory.Get(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role.IsProtected() {
		return common.ErrProtectedTarget
	}

	now := v.clock.Now()
	vote := domain.MuteVote{TargetID: targetID, VoterID: voterID, CreatedAt: now}
	inserted, err := v.store.Add(ctx, vote, now.Add(-v.window))
	if err != nil {
		return err
	}
	if !inserted {
		return common.ErrAlreadyVoted
	}

	votesRecorded.WithLabelValues(vote.Key().Namespace()).Inc()
	logger.ForActor(ctx, voterID).Info().
		Int64("target_id", targetID).
		Str("key", vote.Key().String()).
		Msg("mute vote recorded")
	return nil
}

// CountVotes returns votes on target cast strictly within the last window.
// window <= 0 uses the configured window.
func (v *VoteAggregator) CountVotes(ctx context.Context, targetID int64, window time.Duration) (int64, error) {
	if window <= 0 {
		window = v.window
	}
	return v.store.Count(ctx, targetID, v.clock.Now().Add(-window))
}

// PruneExpired drops votes that fell out of the window
func (v *VoteAggregator) PruneExpired(ctx context.Context) (int64, error) {
	return v.store.Prune(ctx, v.clock.Now().Add(-v.window))
}

// RunPruner calls PruneExpired every interval until ctx is done
func (v *VoteAggregator) RunPruner(ctx context.Context, interval time.Duration) {
	runEvery(ctx, interval, func(ctx context.Context) {
		n, err := v.PruneExpired(ctx)
		if err != nil {
			logger.GetLogger().Error().Err(err).Msg("mute vote prune failed")
			return
		}
		if n > 0 {
			logger.GetLogger().Debug().Int64("removed", n).Msg("expired mute votes pruned")
		}
	})
}
