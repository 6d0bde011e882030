package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	"github.com/chatwarden/chatwarden-backend/pkg/logger"
	"gorm.io/gorm"
)

// 제재 기간 제한 (분)
const (
	MinSanctionMinutes = 1
	MaxMuteMinutes     = 1440
	MaxBanMinutes      = 10080
	DefaultMuteMinutes = 60
	DefaultBanMinutes  = 1440
)

// notifyDetailRunes 공지 감사 기록에 남기는 앞부분 길이
const notifyDetailRunes = 50

// Audit action names
const (
	ActionMute              = "mute"
	ActionBan               = "ban"
	ActionUnban             = "unban"
	ActionKick              = "kick"
	ActionRename            = "rename"
	ActionFreeze            = "freeze"
	ActionTextOnly          = "text_only"
	ActionResident          = "resident"
	ActionStepDown          = "step_down"
	ActionErase             = "erase"
	ActionVoteMute          = "vote_mute"
	ActionAddAchievement    = "add_achievement"
	ActionRemoveAchievement = "remove_achievement"
	ActionSetRole           = "set_role"
	ActionNotify            = "notify"
	ActionSay               = "say"
	ActionSetMuteDuration   = "set_mute_duration"
	ActionPollClose         = "poll_close"
)

// AuditReader reads decrypted audit entries
type AuditReader interface {
	ReadRecent(ctx context.Context, subjectID int64, limit int) ([]domain.AuditRecord, error)
}

// ModerationConfig vote-to-mute parameters
type ModerationConfig struct {
	VoteThreshold      int
	MuteDuration       time.Duration
	EscalationCooldown time.Duration
}

// ModerationDeps collaborators of ModerationService
type ModerationDeps struct {
	Directory   *Directory
	Audit       AuditWriter
	AuditReader AuditReader
	Votes       *VoteAggregator
	Polls       *PollService
	Escalations *repository.EscalationRepository
	Settings    *repository.SettingsRepository
	Clock       clock.Clock
}

// ModerationService 권한 확인 → 상태 변경 → 감사 기록 (best-effort)
type ModerationService struct {
	directory   *Directory
	audit       AuditWriter
	auditReader AuditReader
	votes       *VoteAggregator
	polls       *PollService
	escalations *repository.EscalationRepository
	settings    *repository.SettingsRepository
	clock       clock.Clock
	cfg         ModerationConfig
}

// NewModerationService creates a new ModerationService
func NewModerationService(deps ModerationDeps, cfg ModerationConfig) *ModerationService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &ModerationService{
		directory:   deps.Directory,
		audit:       deps.Audit,
		auditReader: deps.AuditReader,
		votes:       deps.Votes,
		polls:       deps.Polls,
		escalations: deps.Escalations,
		settings:    deps.Settings,
		clock:       clk,
		cfg:         cfg,
	}
}

// ========================================
// 공통 전처리
// ========================================

// authorize loads the actor and checks its role. An unknown actor is forbidden.
func (s *ModerationService) authorize(ctx context.Context, actorID int64, min domain.Role) (*domain.Member, error) {
	actor, err := s.directory.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrForbidden
		}
		return nil, err
	}
	if !actor.Role.AtLeast(min) {
		logger.ForActor(ctx, actorID).Warn().
			Str("role", actor.Role.String()).
			Str("required", min.String()).
			Msg("moderation refused: insufficient role")
		return nil, common.ErrForbidden
	}
	return actor, nil
}

// Authorize reports whether the actor holds at least min. Adapters call it before
// resolving a target reference.
func (s *ModerationService) Authorize(ctx context.Context, actorID int64, min domain.Role) error {
	_, err := s.authorize(ctx, actorID, min)
	return err
}

// loadTarget loads the target and applies the protection rule
func (s *ModerationService) loadTarget(ctx context.Context, actor *domain.Member, targetID int64) (*domain.Member, error) {
	target, err := s.directory.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role.IsProtected() && !actor.Role.Outranks(target.Role) {
		logger.ForActor(ctx, actor.ID).Warn().
			Int64("target_id", targetID).
			Str("target_role", target.Role.String()).
			Msg("moderation refused: protected target")
		return nil, common.ErrProtectedTarget
	}
	return target, nil
}

// prepare runs authorize and loadTarget
func (s *ModerationService) prepare(ctx context.Context, actorID, targetID int64, min domain.Role) (*domain.Member, *domain.Member, error) {
	actor, err := s.authorize(ctx, actorID, min)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.loadTarget(ctx, actor, targetID)
	if err != nil {
		return nil, nil, err
	}
	return actor, target, nil
}

// record appends an audit entry after a committed mutation. Failure never undoes the mutation.
func (s *ModerationService) record(ctx context.Context, actorID int64, action string, targetID int64, detail string) {
	moderationActions.WithLabelValues(action).Inc()
	log := logger.ForActor(ctx, actorID)
	log.Info().
		Int64("target_id", targetID).
		Str("action", action).
		Msg("moderation action applied")

	if err := s.audit.Append(ctx, actorID, action, targetID, detail); err != nil {
		auditFailures.WithLabelValues("append").Inc()
		log.Error().
			Err(err).
			Int64("target_id", targetID).
			Str("action", action).
			Msg("audit append failed, action kept")
	}
}

// ========================================
// 제재
// ========================================

// Mute sets mute_until = now + minutes (1..1440)
func (s *ModerationService) Mute(ctx context.Context, actorID, targetID int64, minutes int) (*domain.Member, error) {
	if minutes < MinSanctionMinutes || minutes > MaxMuteMinutes {
		return nil, common.Invalid("mute duration must be %d-%d minutes", MinSanctionMinutes, MaxMuteMinutes)
	}
	_, _, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}

	until := s.clock.Now().Add(time.Duration(minutes) * time.Minute)
	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().MuteUntil(until))
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionMute, targetID, fmt.Sprintf("%d minutes", minutes))
	return m, nil
}

// Ban sets banned, ban_until = now + minutes (1..10080) and exit_time = now together
func (s *ModerationService) Ban(ctx context.Context, actorID, targetID int64, minutes int, reason string) (*domain.Member, error) {
	if minutes < MinSanctionMinutes || minutes > MaxBanMinutes {
		return nil, common.Invalid("ban duration must be %d-%d minutes", MinSanctionMinutes, MaxBanMinutes)
	}
	_, _, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	until := now.Add(time.Duration(minutes) * time.Minute)
	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().Ban(until, now))
	if err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("%d minutes", minutes)
	if reason = strings.TrimSpace(reason); reason != "" {
		detail += ": " + reason
	}
	s.record(ctx, actorID, ActionBan, targetID, detail)
	return m, nil
}

// Unban clears banned, ban_until and exit_time
func (s *ModerationService) Unban(ctx context.Context, actorID, targetID int64) (*domain.Member, error) {
	_, target, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}
	if !target.Banned {
		return nil, common.ErrNotBanned
	}

	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().Unban())
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionUnban, targetID, "")
	return m, nil
}

// Kick sets exit_time only
func (s *ModerationService) Kick(ctx context.Context, actorID, targetID int64) (*domain.Member, error) {
	_, target, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}
	if !target.IsActive() {
		return nil, common.ErrNotActive
	}

	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().Exit(s.clock.Now()))
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionKick, targetID, "")
	return m, nil
}

// Rename sets the target's nick
func (s *ModerationService) Rename(ctx context.Context, actorID, targetID int64, nick string) (*domain.Member, error) {
	nick = strings.TrimSpace(nick)
	if !domain.ValidNick(nick) {
		return nil, common.ErrInvalidNick
	}
	_, target, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}

	old := target.Nick
	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().Nick(nick))
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionRename, targetID, old+" -> "+nick)
	return m, nil
}

// ToggleFreeze flips frozen_nick; the returned member carries the new state
func (s *ModerationService) ToggleFreeze(ctx context.Context, actorID, targetID int64) (*domain.Member, error) {
	_, target, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}

	frozen := !target.FrozenNick
	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().FrozenNick(frozen))
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionFreeze, targetID, "frozen="+strconv.FormatBool(frozen))
	return m, nil
}

// ToggleTextOnly flips text_only; the returned member carries the new state
func (s *ModerationService) ToggleTextOnly(ctx context.Context, actorID, targetID int64) (*domain.Member, error) {
	_, target, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}

	textOnly := !target.TextOnly
	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().TextOnly(textOnly))
	if err != nil {
		return nil, err
	}
	state := "normal"
	if textOnly {
		state = "text_only"
	}
	s.record(ctx, actorID, ActionTextOnly, targetID, "state="+state)
	return m, nil
}

// PromoteResident raises a base-role member to resident
func (s *ModerationService) PromoteResident(ctx context.Context, actorID, targetID int64) (*domain.Member, error) {
	_, target, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}
	if target.Role != domain.RoleUser {
		return nil, common.ErrNotBaseRole
	}

	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().Role(domain.RoleResident))
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionResident, targetID, "")
	return m, nil
}

// DemoteSelf steps a moderator or admin down to resident. The owner cannot step down.
func (s *ModerationService) DemoteSelf(ctx context.Context, actorID int64) (*domain.Member, error) {
	actor, err := s.authorize(ctx, actorID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleOwner {
		return nil, common.ErrForbidden
	}

	m, err := s.directory.Mutate(ctx, actorID, domain.NewMemberUpdate().Role(domain.RoleResident))
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionStepDown, actorID, "from "+actor.Role.String())
	return m, nil
}

// Erase hard-deletes the member row and evicts it from the cache.
// Moderators and above are never erased, whoever the actor is.
func (s *ModerationService) Erase(ctx context.Context, actorID, targetID int64) error {
	_, target, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return err
	}
	if target.Role.IsProtected() {
		logger.ForActor(ctx, actorID).Warn().
			Int64("target_id", targetID).
			Str("target_role", target.Role.String()).
			Msg("erase refused: protected target")
		return common.ErrProtectedTarget
	}
	if err := s.directory.Delete(ctx, targetID); err != nil {
		return err
	}
	s.record(ctx, actorID, ActionErase, targetID, target.Nick)
	return nil
}

// ========================================
// 투표 뮤트
// ========================================

// VoteMute records the actor's vote and escalates to a mute once the threshold is reached.
// The escalation mute and its marker commit in one transaction; a target escalated within
// the cooldown is not escalated again.
func (s *ModerationService) VoteMute(ctx context.Context, actorID, targetID int64) (*domain.VoteMuteResult, error) {
	actor, err := s.directory.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrForbidden
		}
		return nil, err
	}
	if !actor.IsActive() {
		return nil, common.ErrNotActive
	}

	if err := s.votes.AddVote(ctx, targetID, actorID); err != nil {
		return nil, err
	}
	count, err := s.votes.CountVotes(ctx, targetID, 0)
	if err != nil {
		return nil, err
	}

	result := &domain.VoteMuteResult{TargetID: targetID, Count: count, Threshold: s.cfg.VoteThreshold}
	if count < int64(s.cfg.VoteThreshold) {
		return result, nil
	}

	now := s.clock.Now()
	marker, err := s.escalations.Find(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if marker != nil && s.cfg.EscalationCooldown > 0 && now.Before(marker.EscalatedAt.Add(s.cfg.EscalationCooldown)) {
		logger.Ctx(ctx).Debug().
			Int64("target_id", targetID).
			Time("escalated_at", marker.EscalatedAt).
			Msg("escalation skipped: cooldown")
		return result, nil
	}

	duration, err := s.EffectiveMuteDuration(ctx)
	if err != nil {
		return nil, err
	}
	target, err := s.directory.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	// a longer mute already in place is kept
	until := now.Add(duration)
	if target.MuteUntil != nil && target.MuteUntil.After(until) {
		until = *target.MuteUntil
	}
	_, err = s.directory.MutateTx(ctx, targetID, domain.NewMemberUpdate().MuteUntil(until), func(tx *gorm.DB) error {
		return s.escalations.WithTx(tx).Upsert(ctx, &domain.Escalation{
			TargetID:    targetID,
			EscalatedAt: now,
			MuteUntil:   until,
		})
	})
	if err != nil {
		return nil, err
	}

	escalationsTotal.Inc()
	result.Escalated = true
	result.MuteUntil = &until
	s.record(ctx, domain.SystemActorID, ActionVoteMute, targetID,
		fmt.Sprintf("%d votes, %d minutes", count, int(duration/time.Minute)))
	return result, nil
}

// EffectiveMuteDuration returns the runtime override or the configured escalation mute duration
func (s *ModerationService) EffectiveMuteDuration(ctx context.Context) (time.Duration, error) {
	setting, err := s.settings.FindChatSetting(ctx, domain.SettingMuteDuration)
	if err != nil {
		return 0, err
	}
	if setting == nil {
		return s.cfg.MuteDuration, nil
	}
	minutes, err := strconv.Atoi(setting.Value)
	if err != nil || minutes < MinSanctionMinutes || minutes > MaxMuteMinutes {
		logger.GetLogger().Warn().Str("value", setting.Value).Msg("ignoring invalid mute_duration override")
		return s.cfg.MuteDuration, nil
	}
	return time.Duration(minutes) * time.Minute, nil
}

// SetMuteDuration stores the escalation mute duration override (admin)
func (s *ModerationService) SetMuteDuration(ctx context.Context, actorID int64, minutes int) error {
	if minutes < MinSanctionMinutes || minutes > MaxMuteMinutes {
		return common.Invalid("mute duration must be %d-%d minutes", MinSanctionMinutes, MaxMuteMinutes)
	}
	if _, err := s.authorize(ctx, actorID, domain.RoleAdmin); err != nil {
		return err
	}
	err := s.settings.SaveChatSetting(ctx, &domain.ChatSetting{
		Key:       domain.SettingMuteDuration,
		Value:     strconv.Itoa(minutes),
		UpdatedAt: s.clock.Now(),
		UpdatedBy: actorID,
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, ActionSetMuteDuration, actorID, fmt.Sprintf("%d minutes", minutes))
	return nil
}

// ========================================
// 업적 / 권한
// ========================================

// AddAchievement grants a catalog achievement
func (s *ModerationService) AddAchievement(ctx context.Context, actorID, targetID int64, achievementID string) (*domain.Member, error) {
	if _, ok := domain.LookupAchievement(achievementID); !ok {
		return nil, common.Invalid("unknown achievement %q", achievementID)
	}
	_, target, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}
	if target.Achievements.Has(achievementID) {
		return nil, fmt.Errorf("achievement %s already granted: %w", achievementID, common.ErrInvalidState)
	}

	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().Achievements(target.Achievements.With(achievementID)))
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionAddAchievement, targetID, achievementID)
	return m, nil
}

// RemoveAchievement revokes an achievement
func (s *ModerationService) RemoveAchievement(ctx context.Context, actorID, targetID int64, achievementID string) (*domain.Member, error) {
	if _, ok := domain.LookupAchievement(achievementID); !ok {
		return nil, common.Invalid("unknown achievement %q", achievementID)
	}
	_, target, err := s.prepare(ctx, actorID, targetID, domain.RoleModerator)
	if err != nil {
		return nil, err
	}
	if !target.Achievements.Has(achievementID) {
		return nil, fmt.Errorf("achievement %s not granted: %w", achievementID, common.ErrInvalidState)
	}

	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().Achievements(target.Achievements.Without(achievementID)))
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionRemoveAchievement, targetID, achievementID)
	return m, nil
}

// SetRole assigns any role below owner (admin). The actor must outrank both the old and the new role.
func (s *ModerationService) SetRole(ctx context.Context, actorID, targetID int64, role domain.Role) (*domain.Member, error) {
	if role < domain.RoleUser || role >= domain.RoleOwner {
		return nil, common.ErrForbidden
	}
	actor, err := s.authorize(ctx, actorID, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if actorID == targetID {
		return nil, common.ErrForbidden
	}
	target, err := s.directory.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Outranks(target.Role) {
		return nil, common.ErrProtectedTarget
	}
	if !actor.Role.Outranks(role) {
		return nil, common.ErrForbidden
	}

	old := target.Role
	m, err := s.directory.Mutate(ctx, targetID, domain.NewMemberUpdate().Role(role))
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionSetRole, targetID, old.String()+" -> "+role.String())
	return m, nil
}

// ========================================
// 공지 / 로그 / 투표 마감
// ========================================

// Notify returns the notice text and every active member except the actor as recipients
func (s *ModerationService) Notify(ctx context.Context, actorID int64, text string) (*domain.Notification, error) {
	text = strings.TrimSpace(text)
	if err := checkMessageText(text); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actorID, domain.RoleModerator); err != nil {
		return nil, err
	}

	ids, err := s.directory.ActiveIDs(ctx)
	if err != nil {
		return nil, err
	}
	recipients := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}

	s.record(ctx, actorID, ActionNotify, actorID, truncateRunes(text, notifyDetailRunes))
	return &domain.Notification{Text: text, Recipients: recipients}, nil
}

// Say returns text to broadcast on behalf of the bot
func (s *ModerationService) Say(ctx context.Context, actorID int64, text string) (string, error) {
	text = strings.TrimSpace(text)
	if err := checkMessageText(text); err != nil {
		return "", err
	}
	if _, err := s.authorize(ctx, actorID, domain.RoleModerator); err != nil {
		return "", err
	}
	s.record(ctx, domain.SystemActorID, ActionSay, actorID, truncateRunes(text, notifyDetailRunes))
	return text, nil
}

// ViewLogs returns recent audit entries about subject (admin)
func (s *ModerationService) ViewLogs(ctx context.Context, actorID, subjectID int64, limit int) ([]domain.AuditRecord, error) {
	if _, err := s.authorize(ctx, actorID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.auditReader.ReadRecent(ctx, subjectID, limit)
}

// ForceClosePoll closes any poll regardless of its creator
func (s *ModerationService) ForceClosePoll(ctx context.Context, actorID, pollID int64) (*domain.Tally, error) {
	if _, err := s.authorize(ctx, actorID, domain.RoleModerator); err != nil {
		return nil, err
	}
	tally, err := s.polls.Close(ctx, pollID, actorID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, ActionPollClose, actorID, "poll "+strconv.FormatInt(pollID, 10))
	return tally, nil
}

func checkMessageText(text string) error {
	if text == "" {
		return common.Invalid("text must not be empty")
	}
	if utf8.RuneCountInString(text) > domain.MaxMessageLength {
		return common.ErrTextTooLong
	}
	return nil
}

// truncateRunes cuts s to at most n runes
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
