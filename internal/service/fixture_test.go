package service

import (
	"testing"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/internal/testutil"
	"github.com/chatwarden/chatwarden-backend/pkg/cache"
	"github.com/chatwarden/chatwarden-backend/pkg/cipher"
	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testWindow    = 60 * time.Minute
	testThreshold = 3
	testMuteFor   = 30 * time.Minute
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// fixture wires every service over one in-memory database and a fake clock
type fixture struct {
	db       *gorm.DB
	clock    *clock.Fake
	cipher   *cipher.Cipher
	dir      *Directory
	audit    *AuditLog
	votes    *VoteAggregator
	polls    *PollService
	mod      *ModerationService
	members  MemberService
	messages MessageService
	settings *repository.SettingsRepository
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithAudit(t, nil)
}

// newFixtureWithAudit replaces the moderation audit writer when w is not nil
func newFixtureWithAudit(t *testing.T, w AuditWriter) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	clk := clock.NewFake(testutil.T0)
	c, err := cipher.New(testKey)
	require.NoError(t, err)

	memberCache, err := cache.NewLocal[int64, *domain.Member](100, 5*time.Minute, clk)
	require.NoError(t, err)
	pollCache, err := cache.NewLocal[int64, *domain.Poll](10, 5*time.Minute, clk)
	require.NoError(t, err)

	dir := NewDirectory(repository.NewMemberRepository(db), memberCache)
	audit := NewAuditLog(repository.NewAuditRepository(db), c, clk, 30*24*time.Hour)
	votes := NewVoteAggregator(repository.NewMuteVoteStore(db), dir, clk, testWindow)
	polls := NewPollService(repository.NewPollRepository(db), dir, pollCache, clk)
	settings := repository.NewSettingsRepository(db)

	var writer AuditWriter = audit
	if w != nil {
		writer = w
	}
	mod := NewModerationService(ModerationDeps{
		Directory:   dir,
		Audit:       writer,
		AuditReader: audit,
		Votes:       votes,
		Polls:       polls,
		Escalations: repository.NewEscalationRepository(db),
		Settings:    settings,
		Clock:       clk,
	}, ModerationConfig{
		VoteThreshold:      testThreshold,
		MuteDuration:       testMuteFor,
		EscalationCooldown: testWindow,
	})

	return &fixture{
		db:       db,
		clock:    clk,
		cipher:   c,
		dir:      dir,
		audit:    audit,
		votes:    votes,
		polls:    polls,
		mod:      mod,
		members:  NewMemberService(dir, settings, clk),
		messages: NewMessageService(repository.NewMessageRepository(db), dir, clk),
		settings: settings,
	}
}

func (f *fixture) seed(t *testing.T, id int64, nick string, role domain.Role) *domain.Member {
	t.Helper()
	return testutil.SeedMember(t, f.db, id, nick, role)
}
