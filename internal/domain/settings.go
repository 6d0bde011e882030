package domain

import "time"

// MaxInteractionTextLength hug/slap 문구 최대 길이
const MaxInteractionTextLength = 100

// MemberSettings per-member interaction texts
type MemberSettings struct {
	HugText  *string `gorm:"column:hug_text;size:100" json:"hug_text,omitempty"`
	SlapText *string `gorm:"column:slap_text;size:100" json:"slap_text,omitempty"`
	MemberID int64   `gorm:"column:member_id;primaryKey;autoIncrement:false" json:"member_id"`
}

func (MemberSettings) TableName() string {
	return "member_settings"
}

// Chat-wide runtime setting keys
const (
	SettingMuteDuration = "mute_duration"
)

// ChatSetting runtime override of a configuration value
type ChatSetting struct {
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
	Key       string    `gorm:"column:setting_key;primaryKey;size:64" json:"key"`
	Value     string    `gorm:"column:setting_value;size:255;not null" json:"value"`
	UpdatedBy int64     `gorm:"column:updated_by;not null" json:"updated_by"`
}

func (ChatSetting) TableName() string {
	return "chat_settings"
}

// ChatStats chat-wide counters
type ChatStats struct {
	ActiveUsers   int64 `json:"active_users"`
	BannedUsers   int64 `json:"banned_users"`
	TotalMessages int64 `json:"total_messages"`
	TotalPMs      int64 `json:"total_pms"`
	ActivePolls   int64 `json:"active_polls"`
}

// Interaction hug/slap between two members; Text is the actor's custom text, empty for the default
type Interaction struct {
	Kind       string `json:"kind"`
	Text       string `json:"text,omitempty"`
	ActorNick  string `json:"actor_nick"`
	TargetNick string `json:"target_nick"`
	ActorID    int64  `json:"actor_id"`
	TargetID   int64  `json:"target_id"`
}

// Interaction kinds
const (
	InteractionHug  = "hug"
	InteractionSlap = "slap"
)
