package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	ownerID int64 = 1
	adminID int64 = 2
	modID   int64 = 3
	mod2ID  int64 = 4
	userID  int64 = 10
	user2ID int64 = 11
)

// MockAuditWriter is a mock implementation of AuditWriter
type MockAuditWriter struct {
	mock.Mock
}

func (m *MockAuditWriter) Append(ctx context.Context, actorID int64, action string, targetID int64, detail string) error {
	args := m.Called(ctx, actorID, action, targetID, detail)
	return args.Error(0)
}

type ModerationSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func TestModerationSuite(t *testing.T) {
	suite.Run(t, new(ModerationSuite))
}

func (s *ModerationSuite) SetupTest() {
	s.ctx = context.Background()
	s.f = newFixture(s.T())
	s.f.seed(s.T(), ownerID, "owner", domain.RoleOwner)
	s.f.seed(s.T(), adminID, "admin", domain.RoleAdmin)
	s.f.seed(s.T(), modID, "mod", domain.RoleModerator)
	s.f.seed(s.T(), mod2ID, "mod2", domain.RoleModerator)
	s.f.seed(s.T(), userID, "alice", domain.RoleUser)
	s.f.seed(s.T(), user2ID, "bob", domain.RoleUser)
}

func (s *ModerationSuite) member(id int64) *domain.Member {
	m, err := s.f.dir.Get(s.ctx, id)
	s.Require().NoError(err)
	return m
}

func (s *ModerationSuite) lastAudit(subject int64) domain.AuditRecord {
	recs, err := s.f.audit.ReadRecent(s.ctx, subject, 1)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	return recs[0]
}

func (s *ModerationSuite) TestMuteBanUnbanScenario() {
	now := s.f.clock.Now()

	m, err := s.f.mod.Mute(s.ctx, modID, userID, 60)
	s.Require().NoError(err)
	s.Require().NotNil(m.MuteUntil)
	s.True(now.Add(60 * time.Minute).Equal(*m.MuteUntil))
	s.True(s.member(userID).IsMuted(now))

	m, err = s.f.mod.Ban(s.ctx, modID, userID, 1440, "spam")
	s.Require().NoError(err)
	s.True(m.Banned)
	s.Require().NotNil(m.ExitTime)
	s.True(now.Equal(*m.ExitTime))
	s.Require().NotNil(m.BanUntil)
	s.True(now.Add(24 * time.Hour).Equal(*m.BanUntil))

	audit := s.lastAudit(userID)
	s.Equal(ActionBan, audit.Action)
	s.Equal("1440 minutes: spam", audit.Detail)
	s.Equal(modID, audit.ActorID)

	m, err = s.f.mod.Unban(s.ctx, modID, userID)
	s.Require().NoError(err)
	s.False(m.Banned)
	s.Nil(m.BanUntil)
	s.Nil(m.ExitTime)

	stored := s.member(userID)
	s.False(stored.Banned)
	s.Nil(stored.BanUntil)
	s.Nil(stored.ExitTime)
}

func (s *ModerationSuite) TestMuteDurationBounds() {
	for _, minutes := range []int{0, -5, MaxMuteMinutes + 1} {
		_, err := s.f.mod.Mute(s.ctx, modID, userID, minutes)
		s.ErrorIs(err, common.ErrInvalidInput, "minutes=%d", minutes)
	}
	for _, minutes := range []int{1, 720, MaxMuteMinutes} {
		m, err := s.f.mod.Mute(s.ctx, modID, userID, minutes)
		s.Require().NoError(err)
		want := s.f.clock.Now().Add(time.Duration(minutes) * time.Minute)
		s.True(want.Equal(*m.MuteUntil))
		s.True(want.Equal(*s.member(userID).MuteUntil))
	}

	_, err := s.f.mod.Ban(s.ctx, modID, userID, MaxBanMinutes+1, "")
	s.ErrorIs(err, common.ErrInvalidInput)
	_, err = s.f.mod.Ban(s.ctx, modID, userID, MaxBanMinutes, "")
	s.NoError(err)
}

func (s *ModerationSuite) TestRoleChecks() {
	_, err := s.f.mod.Mute(s.ctx, userID, user2ID, 10)
	s.ErrorIs(err, common.ErrForbidden, "plain user cannot mute")

	_, err = s.f.mod.Mute(s.ctx, 999, user2ID, 10)
	s.ErrorIs(err, common.ErrForbidden, "unknown actor")

	_, err = s.f.mod.Mute(s.ctx, modID, mod2ID, 10)
	s.ErrorIs(err, common.ErrProtectedTarget, "moderator cannot mute a peer")

	_, err = s.f.mod.Kick(s.ctx, modID, adminID)
	s.ErrorIs(err, common.ErrProtectedTarget)

	_, err = s.f.mod.Mute(s.ctx, adminID, modID, 10)
	s.NoError(err, "admin outranks moderator")

	_, err = s.f.mod.Mute(s.ctx, modID, 999, 10)
	s.ErrorIs(err, common.ErrMemberNotFound)
}

func (s *ModerationSuite) TestUnbanRequiresBan() {
	_, err := s.f.mod.Unban(s.ctx, modID, userID)
	s.ErrorIs(err, common.ErrNotBanned)
	s.ErrorIs(err, common.ErrInvalidInput)
}

func (s *ModerationSuite) TestKick() {
	now := s.f.clock.Now()
	m, err := s.f.mod.Kick(s.ctx, modID, userID)
	s.Require().NoError(err)
	s.True(now.Equal(*m.ExitTime))
	s.False(m.Banned)

	_, err = s.f.mod.Kick(s.ctx, modID, userID)
	s.ErrorIs(err, common.ErrNotActive)
}

func (s *ModerationSuite) TestRename() {
	m, err := s.f.mod.Rename(s.ctx, modID, userID, "Алиса_2")
	s.Require().NoError(err)
	s.Equal("Алиса_2", m.Nick)
	s.Equal("alice -> Алиса_2", s.lastAudit(userID).Detail)

	for _, bad := range []string{"", "bad!nick", "<b>x</b>"} {
		_, err = s.f.mod.Rename(s.ctx, modID, userID, bad)
		s.ErrorIs(err, common.ErrInvalidNick, bad)
	}
}

func (s *ModerationSuite) TestToggles() {
	m, err := s.f.mod.ToggleFreeze(s.ctx, modID, userID)
	s.Require().NoError(err)
	s.True(m.FrozenNick)
	m, err = s.f.mod.ToggleFreeze(s.ctx, modID, userID)
	s.Require().NoError(err)
	s.False(m.FrozenNick)

	m, err = s.f.mod.ToggleTextOnly(s.ctx, modID, userID)
	s.Require().NoError(err)
	s.True(m.TextOnly)
	s.Equal("state=text_only", s.lastAudit(userID).Detail)
	m, err = s.f.mod.ToggleTextOnly(s.ctx, modID, userID)
	s.Require().NoError(err)
	s.False(m.TextOnly)
}

func (s *ModerationSuite) TestPromoteResident() {
	m, err := s.f.mod.PromoteResident(s.ctx, modID, userID)
	s.Require().NoError(err)
	s.Equal(domain.RoleResident, m.Role)

	_, err = s.f.mod.PromoteResident(s.ctx, modID, userID)
	s.ErrorIs(err, common.ErrNotBaseRole)
	s.ErrorIs(err, common.ErrInvalidState)
}

func (s *ModerationSuite) TestDemoteSelf() {
	m, err := s.f.mod.DemoteSelf(s.ctx, modID)
	s.Require().NoError(err)
	s.Equal(domain.RoleResident, m.Role)

	_, err = s.f.mod.DemoteSelf(s.ctx, modID)
	s.ErrorIs(err, common.ErrForbidden, "no longer a moderator")

	_, err = s.f.mod.DemoteSelf(s.ctx, ownerID)
	s.ErrorIs(err, common.ErrForbidden)
	s.Equal(domain.RoleOwner, s.member(ownerID).Role)
}

func (s *ModerationSuite) TestErase() {
	s.Require().NoError(s.f.mod.Erase(s.ctx, modID, userID))
	_, err := s.f.dir.Get(s.ctx, userID)
	s.ErrorIs(err, common.ErrMemberNotFound)
	s.Equal(ActionErase, s.lastAudit(userID).Action)

	s.ErrorIs(s.f.mod.Erase(s.ctx, modID, mod2ID), common.ErrProtectedTarget)
	s.ErrorIs(s.f.mod.Erase(s.ctx, modID, userID), common.ErrMemberNotFound)

	// protected roles stay even when the actor outranks them
	s.ErrorIs(s.f.mod.Erase(s.ctx, ownerID, modID), common.ErrProtectedTarget)
	s.ErrorIs(s.f.mod.Erase(s.ctx, ownerID, adminID), common.ErrProtectedTarget)
	s.ErrorIs(s.f.mod.Erase(s.ctx, adminID, mod2ID), common.ErrProtectedTarget)
	s.Equal(domain.RoleModerator, s.member(modID).Role)
	s.Equal(domain.RoleAdmin, s.member(adminID).Role)
}

func (s *ModerationSuite) TestVoteMuteKeepsLongerMute() {
	_, err := s.f.mod.Mute(s.ctx, modID, userID, MaxMuteMinutes)
	s.Require().NoError(err)
	manual := *s.member(userID).MuteUntil

	for _, id := range []int64{30, 31, 32} {
		s.f.seed(s.T(), id, "w"+string(rune('a'+id-30)), domain.RoleUser)
		_, err := s.f.mod.VoteMute(s.ctx, id, userID)
		s.Require().NoError(err)
	}

	s.True(manual.Equal(*s.member(userID).MuteUntil), "escalation never shortens a mute")

	var marker domain.Escalation
	s.Require().NoError(s.f.db.First(&marker, "target_id = ?", userID).Error)
	s.True(manual.Equal(marker.MuteUntil))
}

func (s *ModerationSuite) TestVoteMuteEscalationAndCooldown() {
	voters := []int64{11, 12, 13, 14}
	for _, id := range voters[1:] {
		s.f.seed(s.T(), id, "voter"+string(rune('a'+id)), domain.RoleUser)
	}

	res, err := s.f.mod.VoteMute(s.ctx, voters[0], userID)
	s.Require().NoError(err)
	s.False(res.Escalated)
	s.Equal(int64(1), res.Count)
	s.Equal(testThreshold, res.Threshold)

	_, err = s.f.mod.VoteMute(s.ctx, voters[0], userID)
	s.ErrorIs(err, common.ErrAlreadyVoted)

	_, err = s.f.mod.VoteMute(s.ctx, voters[1], userID)
	s.Require().NoError(err)

	now := s.f.clock.Now()
	res, err = s.f.mod.VoteMute(s.ctx, voters[2], userID)
	s.Require().NoError(err)
	s.True(res.Escalated)
	s.Require().NotNil(res.MuteUntil)
	s.True(now.Add(testMuteFor).Equal(*res.MuteUntil))
	s.True(now.Add(testMuteFor).Equal(*s.member(userID).MuteUntil))

	var marker domain.Escalation
	s.Require().NoError(s.f.db.First(&marker, "target_id = ?", userID).Error)
	s.True(now.Equal(marker.EscalatedAt))

	audit := s.lastAudit(userID)
	s.Equal(ActionVoteMute, audit.Action)
	s.Equal(domain.SystemActorID, audit.ActorID)

	// within cooldown: counted, not escalated again
	s.f.clock.Advance(10 * time.Minute)
	res, err = s.f.mod.VoteMute(s.ctx, voters[3], userID)
	s.Require().NoError(err)
	s.Equal(int64(4), res.Count)
	s.False(res.Escalated)
}

func (s *ModerationSuite) TestVoteMuteRefusals() {
	_, err := s.f.mod.VoteMute(s.ctx, user2ID, modID)
	s.ErrorIs(err, common.ErrProtectedTarget)

	_, err = s.f.mod.VoteMute(s.ctx, userID, userID)
	s.ErrorIs(err, common.ErrSelfVote)

	_, err = s.f.mod.Kick(s.ctx, modID, user2ID)
	s.Require().NoError(err)
	_, err = s.f.mod.VoteMute(s.ctx, user2ID, userID)
	s.ErrorIs(err, common.ErrNotActive)
}

func (s *ModerationSuite) TestSetMuteDurationOverridesEscalation() {
	s.ErrorIs(s.f.mod.SetMuteDuration(s.ctx, modID, 10), common.ErrForbidden)
	s.ErrorIs(s.f.mod.SetMuteDuration(s.ctx, adminID, 0), common.ErrInvalidInput)
	s.Require().NoError(s.f.mod.SetMuteDuration(s.ctx, adminID, 5))

	d, err := s.f.mod.EffectiveMuteDuration(s.ctx)
	s.Require().NoError(err)
	s.Equal(5*time.Minute, d)

	for _, id := range []int64{20, 21, 22} {
		s.f.seed(s.T(), id, "v"+string(rune('a'+id-20)), domain.RoleUser)
		_, err := s.f.mod.VoteMute(s.ctx, id, userID)
		s.Require().NoError(err)
	}
	s.True(s.f.clock.Now().Add(5 * time.Minute).Equal(*s.member(userID).MuteUntil))
}

func (s *ModerationSuite) TestAchievements() {
	m, err := s.f.mod.AddAchievement(s.ctx, modID, userID, "helper")
	s.Require().NoError(err)
	s.True(m.Achievements.Has("helper"))
	s.True(m.Achievements.Has(domain.AchievementWelcome))

	_, err = s.f.mod.AddAchievement(s.ctx, modID, userID, "helper")
	s.ErrorIs(err, common.ErrInvalidState)
	_, err = s.f.mod.AddAchievement(s.ctx, modID, userID, "nope")
	s.ErrorIs(err, common.ErrInvalidInput)

	m, err = s.f.mod.RemoveAchievement(s.ctx, modID, userID, "helper")
	s.Require().NoError(err)
	s.False(m.Achievements.Has("helper"))
	_, err = s.f.mod.RemoveAchievement(s.ctx, modID, userID, "helper")
	s.ErrorIs(err, common.ErrInvalidState)
}

func (s *ModerationSuite) TestSetRole() {
	m, err := s.f.mod.SetRole(s.ctx, adminID, userID, domain.RoleModerator)
	s.Require().NoError(err)
	s.Equal(domain.RoleModerator, m.Role)

	_, err = s.f.mod.SetRole(s.ctx, adminID, user2ID, domain.RoleAdmin)
	s.ErrorIs(err, common.ErrForbidden, "admin cannot create a peer")
	_, err = s.f.mod.SetRole(s.ctx, ownerID, user2ID, domain.RoleOwner)
	s.ErrorIs(err, common.ErrForbidden)
	_, err = s.f.mod.SetRole(s.ctx, modID, user2ID, domain.RoleResident)
	s.ErrorIs(err, common.ErrForbidden)
	_, err = s.f.mod.SetRole(s.ctx, adminID, ownerID, domain.RoleUser)
	s.ErrorIs(err, common.ErrProtectedTarget)

	m, err = s.f.mod.SetRole(s.ctx, ownerID, adminID, domain.RoleUser)
	s.Require().NoError(err)
	s.Equal(domain.RoleUser, m.Role)
}

func (s *ModerationSuite) TestNotifyAndSay() {
	_, err := s.f.mod.Kick(s.ctx, modID, user2ID)
	s.Require().NoError(err)

	n, err := s.f.mod.Notify(s.ctx, modID, "  meeting at noon  ")
	s.Require().NoError(err)
	s.Equal("meeting at noon", n.Text)
	s.ElementsMatch([]int64{ownerID, adminID, mod2ID, userID}, n.Recipients)

	_, err = s.f.mod.Notify(s.ctx, userID, "hi")
	s.ErrorIs(err, common.ErrForbidden)
	_, err = s.f.mod.Notify(s.ctx, modID, "")
	s.ErrorIs(err, common.ErrInvalidInput)

	text, err := s.f.mod.Say(s.ctx, modID, "hello")
	s.Require().NoError(err)
	s.Equal("hello", text)
	recs, err := s.f.audit.ReadRecent(s.ctx, modID, 1)
	s.Require().NoError(err)
	s.Equal(ActionSay, recs[0].Action)
	s.Equal(domain.SystemActorID, recs[0].ActorID)
}

func (s *ModerationSuite) TestViewLogs() {
	_, err := s.f.mod.Mute(s.ctx, modID, userID, 10)
	s.Require().NoError(err)

	_, err = s.f.mod.ViewLogs(s.ctx, modID, userID, 5)
	s.ErrorIs(err, common.ErrForbidden)

	recs, err := s.f.mod.ViewLogs(s.ctx, adminID, userID, 5)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal("10 minutes", recs[0].Detail)

	_, err = s.f.mod.ViewLogs(s.ctx, adminID, userID, 50)
	s.ErrorIs(err, common.ErrInvalidInput)
}

func (s *ModerationSuite) TestForceClosePoll() {
	p, err := s.f.polls.Create(s.ctx, userID, "q", []string{"a", "b"})
	s.Require().NoError(err)

	_, err = s.f.mod.ForceClosePoll(s.ctx, user2ID, p.ID)
	s.ErrorIs(err, common.ErrForbidden)

	tally, err := s.f.mod.ForceClosePoll(s.ctx, modID, p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, tally.PollID)

	_, err = s.f.mod.ForceClosePoll(s.ctx, modID, p.ID)
	s.ErrorIs(err, common.ErrAlreadyClosed)
}

func TestModeration_AuditIsBestEffort(t *testing.T) {
	ctx := context.Background()
	w := new(MockAuditWriter)
	f := newFixtureWithAudit(t, w)
	f.seed(t, modID, "mod", domain.RoleModerator)
	f.seed(t, userID, "alice", domain.RoleUser)

	w.On("Append", mock.Anything, modID, ActionMute, userID, "15 minutes").
		Return(errors.New("disk full")).Once()

	m, err := f.mod.Mute(ctx, modID, userID, 15)
	require.NoError(t, err)
	require.NotNil(t, m.MuteUntil)

	var stored domain.Member
	require.NoError(t, f.db.First(&stored, userID).Error)
	require.NotNil(t, stored.MuteUntil)
	assert.True(t, testutil.T0.Add(15*time.Minute).Equal(*stored.MuteUntil))
	w.AssertExpectations(t)
}

func TestModeration_NoAuditWhenMutationFails(t *testing.T) {
	ctx := context.Background()
	w := new(MockAuditWriter)
	f := newFixtureWithAudit(t, w)
	f.seed(t, modID, "mod", domain.RoleModerator)
	f.seed(t, userID, "alice", domain.RoleUser)

	// warm the cache, then remove the row underneath so the store write fails
	_, err := f.dir.Get(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, f.db.Delete(&domain.Member{}, userID).Error)

	_, err = f.mod.Mute(ctx, modID, userID, 15)
	assert.ErrorIs(t, err, common.ErrMemberNotFound)
	w.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
