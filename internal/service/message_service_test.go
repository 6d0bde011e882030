package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageService_PostRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 3, "mod", domain.RoleModerator)
	f.seed(t, 10, "alice", domain.RoleUser)

	msg, err := f.messages.Post(ctx, 10, " hello ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.False(t, msg.IsPrivate)

	_, err = f.messages.Post(ctx, 10, strings.Repeat("я", domain.MaxMessageLength+1))
	assert.ErrorIs(t, err, common.ErrTextTooLong)

	_, err = f.mod.Mute(ctx, 3, 10, 5)
	require.NoError(t, err)
	_, err = f.messages.Post(ctx, 10, "still here?")
	assert.ErrorIs(t, err, common.ErrMuted)

	f.clock.Advance(5 * time.Minute)
	_, err = f.messages.Post(ctx, 10, "back")
	assert.NoError(t, err, "mute ends at mute_until")
}

func TestMessageService_AllowMedia(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 3, "mod", domain.RoleModerator)
	f.seed(t, 10, "alice", domain.RoleUser)

	assert.NoError(t, f.messages.AllowMedia(ctx, 10))
	_, err := f.mod.ToggleTextOnly(ctx, 3, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, f.messages.AllowMedia(ctx, 10), common.ErrForbidden)
}

func TestMessageService_PrivateAndInbox(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 10, "alice", domain.RoleUser)
	f.seed(t, 11, "bob", domain.RoleUser)

	d, err := f.messages.SendPrivate(ctx, 10, 11, "psst")
	require.NoError(t, err)
	assert.Equal(t, int64(11), d.RecipientID)
	assert.Equal(t, "alice", d.SenderNick)
	assert.NotZero(t, d.MessageID)

	_, err = f.messages.SendPrivate(ctx, 10, 10, "me")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = f.messages.SendPrivate(ctx, 10, 99, "ghost")
	assert.ErrorIs(t, err, common.ErrMemberNotFound)

	inbox, err := f.messages.Inbox(ctx, 11)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "psst", inbox[0].Content)

	last, err := f.messages.Last(ctx)
	require.NoError(t, err)
	assert.Empty(t, last, "private messages are not public history")
}

func TestMessageService_LastAndSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 10, "alice", domain.RoleUser)

	for i := 0; i < 12; i++ {
		_, err := f.messages.Post(ctx, 10, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}
	_, err := f.messages.Post(ctx, 10, "100% sure")
	require.NoError(t, err)

	last, err := f.messages.Last(ctx)
	require.NoError(t, err)
	require.Len(t, last, LastMessagesLimit)
	assert.Equal(t, "100% sure", last[0].Content)
	assert.Equal(t, "alice", last[0].SenderNick)

	found, err := f.messages.Search(ctx, 10, "message")
	require.NoError(t, err)
	assert.Len(t, found, SearchResultLimit)

	found, err = f.messages.Search(ctx, 10, "%")
	require.NoError(t, err)
	require.Len(t, found, 1, "wildcards are matched literally")

	_, err = f.messages.Search(ctx, 10, strings.Repeat("k", MaxSearchKeywordLen+1))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
