package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDirectory_GetAfterMutate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 1, "alice", domain.RoleUser)

	_, err := f.dir.Get(ctx, 1)
	require.NoError(t, err)

	m, err := f.dir.Mutate(ctx, 1, domain.NewMemberUpdate().Nick("X"))
	require.NoError(t, err)
	assert.Equal(t, "X", m.Nick)

	got, err := f.dir.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "X", got.Nick)
}

func TestDirectory_ReadsThroughCacheUntilTTL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 1, "alice", domain.RoleUser)

	_, err := f.dir.Get(ctx, 1)
	require.NoError(t, err)

	// change the row behind the directory's back
	require.NoError(t, f.db.Model(&domain.Member{}).Where("id = ?", 1).Update("nick", "sneaky").Error)

	got, err := f.dir.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Nick, "cached copy served within TTL")

	f.clock.Advance(5*time.Minute + time.Second)
	got, err = f.dir.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "sneaky", got.Nick)
}

func TestDirectory_ReturnedMembersAreCopies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 1, "alice", domain.RoleUser)

	m, err := f.dir.Get(ctx, 1)
	require.NoError(t, err)
	m.Nick = "mutated"

	again, err := f.dir.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Nick)
}

func TestDirectory_DeleteEvicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 1, "alice", domain.RoleUser)

	_, err := f.dir.Get(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, f.dir.Delete(ctx, 1))
	_, err = f.dir.Get(ctx, 1)
	assert.ErrorIs(t, err, common.ErrMemberNotFound)

	assert.ErrorIs(t, f.dir.Delete(ctx, 1), common.ErrMemberNotFound)
}

func TestDirectory_StalePopulateSkipped(t *testing.T) {
	f := newFixture(t)

	stale := &domain.Member{ID: 7, Nick: "old"}
	fresh := &domain.Member{ID: 7, Nick: "new"}

	seq := f.dir.writeSeq()
	f.dir.patch(7, fresh)
	f.dir.populate(seq, stale)

	cached, ok := f.dir.cache.Get(7)
	require.True(t, ok)
	assert.Equal(t, "new", cached.Nick)
}

func TestDirectory_MutateTxRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 1, "alice", domain.RoleUser)

	boom := errors.New("boom")
	_, err := f.dir.MutateTx(ctx, 1, domain.NewMemberUpdate().Nick("bob"), func(tx *gorm.DB) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := f.dir.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Nick)

	var stored domain.Member
	require.NoError(t, f.db.First(&stored, 1).Error)
	assert.Equal(t, "alice", stored.Nick)
}

func TestDirectory_Resolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 42, "alice", domain.RoleUser)

	m, err := f.dir.Resolve(ctx, "@alice")
	require.NoError(t, err)
	assert.Equal(t, int64(42), m.ID)

	m, err = f.dir.Resolve(ctx, " 42 ")
	require.NoError(t, err)
	assert.Equal(t, "alice", m.Nick)

	_, err = f.dir.Resolve(ctx, "@nobody")
	assert.ErrorIs(t, err, common.ErrMemberNotFound)

	for _, bad := range []string{"", "@", "abc", "-3", "0"} {
		_, err = f.dir.Resolve(ctx, bad)
		assert.ErrorIs(t, err, common.ErrInvalidInput, bad)
	}
}
