package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/pkg/cipher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type failingEncrypter struct{}

func (failingEncrypter) Encrypt(string) (string, error) { return "", errors.New("no entropy") }
func (failingEncrypter) Decrypt(string) (string, error) { return "", errors.New("no key") }

func TestAuditLog_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	details := []string{"reason text", "спам в чате 🚫", "a,b;c\n\"quoted\""}
	for _, detail := range details {
		require.NoError(t, f.audit.Append(ctx, 1, "ban", 2, detail))
		f.clock.Advance(time.Second)

		recs, err := f.audit.ReadRecent(ctx, 2, 1)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, detail, recs[0].Detail)
		assert.Equal(t, "ban", recs[0].Action)
		assert.False(t, recs[0].Undecryptable)
	}

	var stored domain.AuditEntry
	require.NoError(t, f.db.Order("id DESC").First(&stored).Error)
	require.NotNil(t, stored.Detail)
	assert.NotContains(t, *stored.Detail, "quoted", "detail is stored encrypted")
}

func TestAuditLog_EmptyDetailIsAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.audit.Append(ctx, 1, "kick", 2, ""))

	var stored domain.AuditEntry
	require.NoError(t, f.db.First(&stored).Error)
	assert.Nil(t, stored.Detail)

	recs, err := f.audit.ReadRecent(ctx, 2, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Detail)
}

func TestAuditLog_ReadRecentOrderAndSubject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.audit.Append(ctx, 1, "mute", 2, "first"))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.audit.Append(ctx, 2, "notify", 2, "as actor"))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.audit.Append(ctx, 1, "mute", 3, "other target"))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.audit.Append(ctx, 3, "rename", 2, "latest"))

	recs, err := f.audit.ReadRecent(ctx, 2, 20)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "latest", recs[0].Detail)
	assert.Equal(t, "as actor", recs[1].Detail)
	assert.Equal(t, "first", recs[2].Detail)

	recs, err = f.audit.ReadRecent(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestAuditLog_ReadRecentLimitBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, limit := range []int{-1, 0, 21} {
		_, err := f.audit.ReadRecent(ctx, 1, limit)
		assert.ErrorIs(t, err, common.ErrInvalidInput, "limit %d", limit)
	}
	_, err := f.audit.ReadRecent(ctx, 1, 20)
	assert.NoError(t, err)
}

func TestAuditLog_DecryptFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.audit.Append(ctx, 1, "mute", 2, "readable"))
	f.clock.Advance(time.Minute)

	// entry sealed with a different key
	otherKey := []byte(strings.Repeat("k", cipher.KeySize))
	other, err := cipher.New(otherKey)
	require.NoError(t, err)
	foreign, err := other.Encrypt("secret")
	require.NoError(t, err)
	require.NoError(t, repository.NewAuditRepository(f.db).Create(ctx, &domain.AuditEntry{
		ActorID: 1, Action: "ban", TargetID: 2, Detail: &foreign, Timestamp: f.clock.Now(),
	}))

	recs, err := f.audit.ReadRecent(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.True(t, recs[0].Undecryptable)
	assert.Equal(t, domain.DecryptionFailedDetail, recs[0].Detail)
	assert.False(t, recs[1].Undecryptable)
	assert.Equal(t, "readable", recs[1].Detail)
}

func TestAuditLog_AppendRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.audit.Append(ctx, 1, strings.Repeat("a", domain.MaxActionLength+1), 2, "x")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.NoError(t, f.audit.Append(ctx, 1, strings.Repeat("я", domain.MaxActionLength), 2, ""))

	broken := NewAuditLog(repository.NewAuditRepository(f.db), failingEncrypter{}, f.clock, time.Hour)
	err = broken.Append(ctx, 1, "ban", 2, "reason")
	assert.ErrorIs(t, err, common.ErrEncryption)

	var n int64
	require.NoError(t, f.db.Model(&domain.AuditEntry{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestAuditLog_PurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.audit.Append(ctx, 1, "mute", 2, "old"))
	f.clock.Advance(40 * 24 * time.Hour)
	require.NoError(t, f.audit.Append(ctx, 1, "mute", 2, "new"))

	n, err := f.audit.PurgeOlderThan(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err := f.audit.ReadRecent(ctx, 2, 20)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "new", recs[0].Detail)

	_, err = f.audit.PurgeOlderThan(ctx, 0)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestAuditLog_RunRetentionStops(t *testing.T) {
	f := newFixture(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	require.NoError(t, f.audit.Append(context.Background(), 1, "mute", 2, "old"))
	f.clock.Advance(31 * 24 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.audit.RunRetention(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		var n int64
		_ = f.db.Model(&domain.AuditEntry{}).Count(&n).Error
		return n == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("retention loop did not stop")
	}
}
