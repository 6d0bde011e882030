package domain

import "time"

// MaxActionLength 액션 이름 최대 길이
const MaxActionLength = 100

// DecryptionFailedDetail 복호화 실패 시 상세 내용 대체값
const DecryptionFailedDetail = "[DECRYPTION FAILED]"

// SystemActorID actor id used for automatic actions (escalation, say)
const SystemActorID int64 = 0

// AuditEntry 권한 행위 기록 (audit table). Detail 은 항상 암호문
type AuditEntry struct {
	Timestamp time.Time `gorm:"column:timestamp;not null;index" json:"timestamp"`
	Detail    *string   `gorm:"column:detail;type:text" json:"-"`
	Action    string    `gorm:"column:action;size:100;not null" json:"action"`
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ActorID   int64     `gorm:"column:actor_id;not null;index" json:"actor_id"`
	TargetID  int64     `gorm:"column:target_id;not null;index" json:"target_id"`
}

func (AuditEntry) TableName() string {
	return "audit"
}

// AuditRecord decrypted view of an AuditEntry
type AuditRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Action        string    `json:"action"`
	Detail        string    `json:"detail,omitempty"`
	ID            int64     `json:"id"`
	ActorID       int64     `json:"actor_id"`
	TargetID      int64     `json:"target_id"`
	Undecryptable bool      `json:"undecryptable,omitempty"`
}
