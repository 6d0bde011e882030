package domain

import (
	"regexp"
	"time"
	"unicode/utf8"
)

// MaxNickLength 닉네임 최대 길이 (문자 수)
const MaxNickLength = 50

var nickPattern = regexp.MustCompile(`^[\p{L}\p{N}_\s-]{1,50}$`)

// ValidNick reports whether nick is 1-50 letters, digits, spaces, '_' or '-'
func ValidNick(nick string) bool {
	return utf8.RuneCountInString(nick) <= MaxNickLength && nickPattern.MatchString(nick)
}

// Member domain model (members table)
type Member struct {
	JoinTime     time.Time      `gorm:"column:join_time;not null" json:"join_time"`
	ExitTime     *time.Time     `gorm:"column:exit_time;index" json:"exit_time,omitempty"`
	MuteUntil    *time.Time     `gorm:"column:mute_until" json:"mute_until,omitempty"`
	BanUntil     *time.Time     `gorm:"column:ban_until" json:"ban_until,omitempty"`
	Nick         string         `gorm:"column:nick;size:64;not null;index" json:"nick"`
	Achievements AchievementSet `gorm:"column:achievements;type:text" json:"achievements"`
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Role         Role           `gorm:"column:role;type:varchar(16);not null" json:"role"`
	Banned       bool           `gorm:"column:banned;not null" json:"banned"`
	FrozenNick   bool           `gorm:"column:frozen_nick;not null" json:"frozen_nick"`
	TextOnly     bool           `gorm:"column:text_only;not null" json:"text_only"`
}

func (Member) TableName() string {
	return "members"
}

// IsActive exit_time 이 없으면 채팅 참여 중
func (m *Member) IsActive() bool {
	return m.ExitTime == nil
}

// IsMuted reports whether a mute is in force at now
func (m *Member) IsMuted(now time.Time) bool {
	return m.MuteUntil != nil && now.Before(*m.MuteUntil)
}

// BanInForce reports whether the member is banned and the ban has not expired at now
func (m *Member) BanInForce(now time.Time) bool {
	if !m.Banned {
		return false
	}
	return m.BanUntil == nil || now.Before(*m.BanUntil)
}

// Clone returns a deep copy so cached values are never shared
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	c := *m
	c.ExitTime = cloneTime(m.ExitTime)
	c.MuteUntil = cloneTime(m.MuteUntil)
	c.BanUntil = cloneTime(m.BanUntil)
	if m.Achievements != nil {
		c.Achievements = append(AchievementSet(nil), m.Achievements...)
	}
	return &c
}

// MemberInfo member profile with resolved achievements
type MemberInfo struct {
	Member       *Member       `json:"member"`
	Achievements []Achievement `json:"achievements"`
	Muted        bool          `json:"muted"`
}

// MemberUpdate column changes applied by Directory.Mutate.
// Ban state is only settable through Ban/Unban so banned and ban_until change together.
type MemberUpdate struct {
	cols map[string]interface{}
}

// NewMemberUpdate creates an empty change set
func NewMemberUpdate() *MemberUpdate {
	return &MemberUpdate{cols: make(map[string]interface{})}
}

func (u *MemberUpdate) Nick(nick string) *MemberUpdate {
	u.cols["nick"] = nick
	return u
}

func (u *MemberUpdate) Role(r Role) *MemberUpdate {
	u.cols["role"] = r
	return u
}

// Exit sets exit_time
func (u *MemberUpdate) Exit(at time.Time) *MemberUpdate {
	u.cols["exit_time"] = at
	return u
}

// Rejoin clears exit_time and restarts join_time at
func (u *MemberUpdate) Rejoin(at time.Time) *MemberUpdate {
	u.cols["exit_time"] = nil
	u.cols["join_time"] = at
	return u
}

func (u *MemberUpdate) MuteUntil(until time.Time) *MemberUpdate {
	u.cols["mute_until"] = until
	return u
}

// Ban sets banned, ban_until and exit_time together
func (u *MemberUpdate) Ban(until, at time.Time) *MemberUpdate {
	u.cols["banned"] = true
	u.cols["ban_until"] = until
	u.cols["exit_time"] = at
	return u
}

// Unban clears banned, ban_until and exit_time together
func (u *MemberUpdate) Unban() *MemberUpdate {
	u.cols["banned"] = false
	u.cols["ban_until"] = nil
	u.cols["exit_time"] = nil
	return u
}

func (u *MemberUpdate) FrozenNick(v bool) *MemberUpdate {
	u.cols["frozen_nick"] = v
	return u
}

func (u *MemberUpdate) TextOnly(v bool) *MemberUpdate {
	u.cols["text_only"] = v
	return u
}

func (u *MemberUpdate) Achievements(set AchievementSet) *MemberUpdate {
	u.cols["achievements"] = set
	return u
}

// Columns returns a copy of the column map for the repository
func (u *MemberUpdate) Columns() map[string]interface{} {
	out := make(map[string]interface{}, len(u.cols))
	for k, v := range u.cols {
		out[k] = v
	}
	return out
}

// Empty reports whether no column is changed
func (u *MemberUpdate) Empty() bool {
	return len(u.cols) == 0
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
