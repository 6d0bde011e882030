package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidNick(t *testing.T) {
	valid := []string{"alice", "Bob_42", "Иван Петров", "kim-min jun", "김민준", strings.Repeat("a", 50)}
	for _, n := range valid {
		assert.True(t, ValidNick(n), n)
	}

	invalid := []string{"", strings.Repeat("a", 51), "<b>bold</b>", "semi;colon", "emoji🙂"}
	for _, n := range invalid {
		assert.False(t, ValidNick(n), n)
	}
}

func TestMember_CloneIsDeep(t *testing.T) {
	until := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &Member{ID: 1, MuteUntil: &until, Achievements: AchievementSet{"welcome"}}

	c := m.Clone()
	*c.MuteUntil = until.Add(time.Hour)
	c.Achievements[0] = "changed"

	assert.Equal(t, until, *m.MuteUntil)
	assert.Equal(t, "welcome", m.Achievements[0])
}

func TestMember_States(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)
	m := &Member{MuteUntil: &later}

	assert.True(t, m.IsActive())
	assert.True(t, m.IsMuted(now))
	assert.False(t, m.IsMuted(later))

	m.Banned = true
	m.BanUntil = &later
	assert.True(t, m.BanInForce(now))
	assert.False(t, m.BanInForce(later.Add(time.Second)))
}

func TestMemberUpdate_BanColumnsTogether(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	cols := NewMemberUpdate().Ban(now.Add(time.Hour), now).Columns()
	assert.Equal(t, true, cols["banned"])
	assert.Equal(t, now.Add(time.Hour), cols["ban_until"])
	assert.Equal(t, now, cols["exit_time"])

	cols = NewMemberUpdate().Unban().Columns()
	assert.Equal(t, false, cols["banned"])
	assert.Nil(t, cols["ban_until"])
	assert.Nil(t, cols["exit_time"])
}
