package domain

import "time"

// MuteVote 투표 뮤트 (target, voter) 1건
type MuteVote struct {
	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
	TargetID  int64     `gorm:"column:target_id;primaryKey;autoIncrement:false" json:"target_id"`
	VoterID   int64     `gorm:"column:voter_id;primaryKey;autoIncrement:false" json:"voter_id"`
}

func (MuteVote) TableName() string {
	return "mute_votes"
}

// Key returns the escalation namespace key of the vote
func (v MuteVote) Key() EscalationKey {
	return EscalationKey{Target: v.TargetID}
}

// Escalation last threshold-triggered mute of a target
type Escalation struct {
	EscalatedAt time.Time `gorm:"column:escalated_at;not null" json:"escalated_at"`
	MuteUntil   time.Time `gorm:"column:mute_until;not null" json:"mute_until"`
	TargetID    int64     `gorm:"column:target_id;primaryKey;autoIncrement:false" json:"target_id"`
}

func (Escalation) TableName() string {
	return "escalations"
}

// VoteMuteResult outcome of a vote-to-mute
type VoteMuteResult struct {
	MuteUntil *time.Time `json:"mute_until,omitempty"`
	Count     int64      `json:"count"`
	Threshold int        `json:"threshold"`
	TargetID  int64      `json:"target_id"`
	Escalated bool       `json:"escalated"`
}
