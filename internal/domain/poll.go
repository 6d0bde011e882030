package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Poll limits
const (
	MinPollOptions       = 2
	MaxPollOptions       = 10
	MaxPollQuestionLen   = 255
	MaxPollOptionLabel   = 100
	pollOptionsSeparator = ","
)

// OptionList ordered option labels, stored as CSV
type OptionList []string

func (o OptionList) Value() (driver.Value, error) {
	return strings.Join(o, pollOptionsSeparator), nil
}

func (o *OptionList) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*o = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into OptionList", src)
	}
	if raw == "" {
		*o = nil
		return nil
	}
	*o = strings.Split(raw, pollOptionsSeparator)
	return nil
}

// Poll ad-hoc poll (polls table). EndTime 이 nil 이면 진행 중
type Poll struct {
	StartTime time.Time  `gorm:"column:start_time;not null;index" json:"start_time"`
	EndTime   *time.Time `gorm:"column:end_time;index" json:"end_time,omitempty"`
	Question  string     `gorm:"column:question;size:255;not null" json:"question"`
	Options   OptionList `gorm:"column:options;type:text;not null" json:"options"`
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CreatorID int64      `gorm:"column:creator_id;not null;index" json:"creator_id"`
}

func (Poll) TableName() string {
	return "polls"
}

// IsOpen reports whether the poll has not been closed
func (p *Poll) IsOpen() bool {
	return p.EndTime == nil
}

// Ref returns the tagged identifier of the poll
func (p *Poll) Ref() PollID {
	return PollID(p.ID)
}

// Clone returns a deep copy
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	c := *p
	c.EndTime = cloneTime(p.EndTime)
	c.Options = append(OptionList(nil), p.Options...)
	return &c
}

// PollVote one vote per (poll_id, voter_id)
type PollVote struct {
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
	PollID      int64     `gorm:"column:poll_id;primaryKey;autoIncrement:false" json:"poll_id"`
	VoterID     int64     `gorm:"column:voter_id;primaryKey;autoIncrement:false" json:"voter_id"`
	OptionIndex int       `gorm:"column:option_index;not null" json:"option_index"`
}

func (PollVote) TableName() string {
	return "poll_votes"
}

// NativePollAnswer answer to a transport-issued poll
type NativePollAnswer struct {
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
	PollKey     string    `gorm:"column:poll_key;primaryKey;size:128" json:"poll_key"`
	VoterID     int64     `gorm:"column:voter_id;primaryKey;autoIncrement:false" json:"voter_id"`
	OptionIndex int       `gorm:"column:option_index;not null" json:"option_index"`
}

func (NativePollAnswer) TableName() string {
	return "native_poll_answers"
}

// OptionCount per-option tally
type OptionCount struct {
	Label string `json:"label"`
	Index int    `json:"index"`
	Votes int64  `json:"votes"`
}

// Tally poll result, every option present
type Tally struct {
	ClosedAt *time.Time    `json:"closed_at,omitempty"`
	Question string        `json:"question"`
	Options  []OptionCount `json:"options"`
	PollID   int64         `json:"poll_id"`
	Total    int64         `json:"total"`
}

// NewTally builds a tally from raw per-index counts
func NewTally(p *Poll, counts map[int]int64) *Tally {
	t := &Tally{
		PollID:   p.ID,
		Question: p.Question,
		ClosedAt: cloneTime(p.EndTime),
		Options:  make([]OptionCount, len(p.Options)),
	}
	for i, label := range p.Options {
		n := counts[i]
		t.Options[i] = OptionCount{Index: i, Label: label, Votes: n}
		t.Total += n
	}
	return t
}
