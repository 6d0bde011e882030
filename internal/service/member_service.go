package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	"github.com/chatwarden/chatwarden-backend/pkg/logger"
)

// MemberService handles self-service member operations
type MemberService interface {
	Join(ctx context.Context, id int64, nick string) (*domain.Member, error)
	Leave(ctx context.Context, id int64) (*domain.Member, error)
	ChangeNick(ctx context.Context, id int64, nick string) (*domain.Member, error)
	Info(ctx context.Context, ref string) (*domain.MemberInfo, error)
	ListActive(ctx context.Context) ([]*domain.Member, error)
	Settings(ctx context.Context, id int64) (*domain.MemberSettings, error)
	UpdateSettings(ctx context.Context, id int64, hugText, slapText *string) (*domain.MemberSettings, error)
	Interact(ctx context.Context, actorID, targetID int64, kind string) (*domain.Interaction, error)
}

type memberService struct {
	directory *Directory
	settings  *repository.SettingsRepository
	clock     clock.Clock
}

// NewMemberService creates a new MemberService
func NewMemberService(directory *Directory, settings *repository.SettingsRepository, clk clock.Clock) MemberService {
	if clk == nil {
		clk = clock.Real()
	}
	return &memberService{directory: directory, settings: settings, clock: clk}
}

// Join 채팅 참여. 첫 참여 시 welcome 업적 부여, 만료된 차단은 해제
func (s *memberService) Join(ctx context.Context, id int64, nick string) (*domain.Member, error) {
	nick = strings.TrimSpace(nick)
	if !domain.ValidNick(nick) {
		return nil, common.ErrInvalidNick
	}
	now := s.clock.Now()

	existing, err := s.directory.Get(ctx, id)
	if err != nil && !errors.Is(err, common.ErrMemberNotFound) {
		return nil, err
	}

	if existing == nil {
		m := &domain.Member{
			ID:           id,
			Nick:         nick,
			Role:         domain.RoleUser,
			JoinTime:     now,
			Achievements: domain.AchievementSet{domain.AchievementWelcome},
		}
		if err := s.directory.Upsert(ctx, m); err != nil {
			return nil, err
		}
		logger.ForActor(ctx, id).Info().Str("nick", nick).Msg("member joined")
		return m.Clone(), nil
	}

	if existing.IsActive() {
		return nil, common.ErrAlreadyActive
	}
	if existing.BanInForce(now) {
		return nil, common.ErrBanned
	}

	update := domain.NewMemberUpdate()
	if existing.Banned {
		update.Unban()
	}
	update.Rejoin(now)
	if !existing.FrozenNick {
		update.Nick(nick)
	}
	m, err := s.directory.Mutate(ctx, id, update)
	if err != nil {
		return nil, err
	}
	logger.ForActor(ctx, id).Info().Str("nick", m.Nick).Msg("member rejoined")
	return m, nil
}

// Leave sets exit_time
func (s *memberService) Leave(ctx context.Context, id int64) (*domain.Member, error) {
	m, err := s.directory.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, common.ErrNotActive
	}
	m, err = s.directory.Mutate(ctx, id, domain.NewMemberUpdate().Exit(s.clock.Now()))
	if err != nil {
		return nil, err
	}
	logger.ForActor(ctx, id).Info().Msg("member left")
	return m, nil
}

// ChangeNick 본인 닉네임 변경 (닉네임 고정 상태면 거부)
func (s *memberService) ChangeNick(ctx context.Context, id int64, nick string) (*domain.Member, error) {
	nick = strings.TrimSpace(nick)
	if !domain.ValidNick(nick) {
		return nil, common.ErrInvalidNick
	}
	m, err := s.activeMember(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.FrozenNick {
		return nil, common.ErrNickFrozen
	}
	return s.directory.Mutate(ctx, id, domain.NewMemberUpdate().Nick(nick))
}

// Info resolves "@nick" or an id and returns the profile
func (s *memberService) Info(ctx context.Context, ref string) (*domain.MemberInfo, error) {
	m, err := s.directory.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &domain.MemberInfo{
		Member:       m,
		Achievements: m.Achievements.Resolve(),
		Muted:        m.IsMuted(s.clock.Now()),
	}, nil
}

func (s *memberService) ListActive(ctx context.Context) ([]*domain.Member, error) {
	return s.directory.ListActive(ctx)
}

func (s *memberService) Settings(ctx context.Context, id int64) (*domain.MemberSettings, error) {
	if _, err := s.directory.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.settings.FindMemberSettings(ctx, id)
}

// UpdateSettings changes the non-nil texts; an empty string clears a text
func (s *memberService) UpdateSettings(ctx context.Context, id int64, hugText, slapText *string) (*domain.MemberSettings, error) {
	if _, err := s.activeMember(ctx, id); err != nil {
		return nil, err
	}
	current, err := s.settings.FindMemberSettings(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.HugText, err = interactionText(hugText, current.HugText); err != nil {
		return nil, err
	}
	if current.SlapText, err = interactionText(slapText, current.SlapText); err != nil {
		return nil, err
	}
	if err := s.settings.SaveMemberSettings(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Interact returns a hug or slap between two active members with the actor's custom text
func (s *memberService) Interact(ctx context.Context, actorID, targetID int64, kind string) (*domain.Interaction, error) {
	if kind != domain.InteractionHug && kind != domain.InteractionSlap {
		return nil, common.Invalid("unknown interaction %q", kind)
	}
	actor, err := s.activeMember(ctx, actorID)
	if err != nil {
		return nil, err
	}
	target, err := s.activeMember(ctx, targetID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.FindMemberSettings(ctx, actorID)
	if err != nil {
		return nil, err
	}

	out := &domain.Interaction{
		Kind:       kind,
		ActorID:    actor.ID,
		ActorNick:  actor.Nick,
		TargetID:   target.ID,
		TargetNick: target.Nick,
	}
	text := settings.HugText
	if kind == domain.InteractionSlap {
		text = settings.SlapText
	}
	if text != nil {
		out.Text = *text
	}
	return out, nil
}

func (s *memberService) activeMember(ctx context.Context, id int64) (*domain.Member, error) {
	m, err := s.directory.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, common.ErrNotActive
	}
	return m, nil
}

func interactionText(in, current *string) (*string, error) {
	if in == nil {
		return current, nil
	}
	v := strings.TrimSpace(*in)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > domain.MaxInteractionTextLength {
		return nil, common.ErrTextTooLong
	}
	return &v, nil
}
