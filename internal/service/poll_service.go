package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/pkg/cache"
	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	"github.com/chatwarden/chatwarden-backend/pkg/logger"
)

// PollService 투표(poll) 생성/투표/마감
type PollService struct {
	repo      repository.PollRepository
	directory *Directory
	cache     *cache.Local[int64, *domain.Poll]
	clock     clock.Clock
}

// NewPollService creates a new PollService
func NewPollService(repo repository.PollRepository, directory *Directory, c *cache.Local[int64, *domain.Poll], clk clock.Clock) *PollService {
	if clk == nil {
		clk = clock.Real()
	}
	return &PollService{repo: repo, directory: directory, cache: c, clock: clk}
}

// Create opens a new poll. Labels are trimmed; commas are not allowed in labels.
func (s *PollService) Create(ctx context.Context, creatorID int64, question string, options []string) (*domain.Poll, error) {
	creator, err := s.directory.Get(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if !creator.IsActive() {
		return nil, common.ErrNotActive
	}

	question = strings.TrimSpace(question)
	if n := utf8.RuneCountInString(question); n == 0 || n > domain.MaxPollQuestionLen {
		return nil, common.Invalid("question must be 1-%d characters", domain.MaxPollQuestionLen)
	}
	if len(options) < domain.MinPollOptions || len(options) > domain.MaxPollOptions {
		return nil, common.Invalid("poll needs %d-%d options", domain.MinPollOptions, domain.MaxPollOptions)
	}
	labels := make(domain.OptionList, len(options))
	for i, opt := range options {
		opt = strings.TrimSpace(opt)
		if n := utf8.RuneCountInString(opt); n == 0 || n > domain.MaxPollOptionLabel {
			return nil, common.Invalid("option %d must be 1-%d characters", i+1, domain.MaxPollOptionLabel)
		}
		if strings.Contains(opt, ",") {
			return nil, common.Invalid("option %d must not contain a comma", i+1)
		}
		labels[i] = opt
	}

	poll := &domain.Poll{
		CreatorID: creatorID,
		Question:  question,
		Options:   labels,
		StartTime: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, poll); err != nil {
		return nil, err
	}
	s.cache.Set(poll.ID, poll.Clone())

	logger.ForActor(ctx, creatorID).Info().
		Int64("poll_id", poll.ID).
		Int("options", len(labels)).
		Msg("poll created")
	return poll, nil
}

// Get returns the poll, reading through the poll cache
func (s *PollService) Get(ctx context.Context, id int64) (*domain.Poll, error) {
	if p, ok := s.cache.Get(id); ok {
		return p.Clone(), nil
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, p.Clone())
	return p, nil
}

// ListOpen returns polls that are still open, newest first
func (s *PollService) ListOpen(ctx context.Context) ([]*domain.Poll, error) {
	return s.repo.ListOpen(ctx)
}

// Vote records one vote per voter; optionIndex is 0-based
func (s *PollService) Vote(ctx context.Context, pollID, voterID int64, optionIndex int) error {
	poll, err := s.Get(ctx, pollID)
	if err != nil {
		return err
	}
	if !poll.IsOpen() {
		return common.ErrPollClosed
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return common.ErrInvalidOption
	}

	voter, err := s.directory.Get(ctx, voterID)
	if err != nil {
		return err
	}
	if !voter.IsActive() {
		return common.ErrNotActive
	}

	inserted, err := s.repo.InsertVote(ctx, &domain.PollVote{
		PollID:      pollID,
		VoterID:     voterID,
		OptionIndex: optionIndex,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		return common.ErrAlreadyVoted
	}
	votesRecorded.WithLabelValues(poll.Ref().Namespace()).Inc()
	return nil
}

// Results returns the current tally of a poll, open or closed
func (s *PollService) Results(ctx context.Context, pollID int64) (*domain.Tally, error) {
	poll, err := s.Get(ctx, pollID)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByOption(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return domain.NewTally(poll, counts), nil
}

// Close ends the poll and returns its final tally.
// Only the creator or a moderator and above may close; closing twice fails.
func (s *PollService) Close(ctx context.Context, pollID, byID int64) (*domain.Tally, error) {
	poll, err := s.Get(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.CreatorID != byID {
		actor, err := s.directory.Get(ctx, byID)
		if err != nil {
			return nil, common.ErrForbidden
		}
		if !actor.Role.AtLeast(domain.RoleModerator) {
			return nil, common.ErrForbidden
		}
	}

	closed, err := s.repo.CloseIfOpen(ctx, pollID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	fresh, err := s.repo.FindByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(pollID, fresh.Clone())
	if !closed {
		return nil, common.ErrAlreadyClosed
	}

	counts, err := s.repo.CountByOption(ctx, pollID)
	if err != nil {
		return nil, err
	}
	tally := domain.NewTally(fresh, counts)

	logger.ForActor(ctx, byID).Info().
		Int64("poll_id", pollID).
		Int64("total_votes", tally.Total).
		Msg("poll closed")
	return tally, nil
}

// RecordNativeAnswer stores an answer to a transport-issued poll, one per voter
func (s *PollService) RecordNativeAnswer(ctx context.Context, pollKey domain.NativePollID, voterID int64, optionIndex int) error {
	if pollKey == "" || len(pollKey) > 128 {
		return common.Invalid("native poll id must be 1-128 bytes")
	}
	if optionIndex < 0 {
		return common.ErrInvalidOption
	}
	inserted, err := s.repo.InsertNativeAnswer(ctx, &domain.NativePollAnswer{
		PollKey:     pollKey.String(),
		VoterID:     voterID,
		OptionIndex: optionIndex,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		return common.ErrAlreadyVoted
	}
	votesRecorded.WithLabelValues(pollKey.Namespace()).Inc()
	return nil
}
