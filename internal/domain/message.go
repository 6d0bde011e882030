package domain

import "time"

// MaxMessageLength 메시지/공지 최대 길이
const MaxMessageLength = 1000

// Message chat message record (messages table)
type Message struct {
	Timestamp time.Time `gorm:"column:timestamp;not null;index" json:"timestamp"`
	TargetID  *int64    `gorm:"column:target_id;index" json:"target_id,omitempty"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SenderID  int64     `gorm:"column:sender_id;not null;index" json:"sender_id"`
	IsPrivate bool      `gorm:"column:is_private;not null;index" json:"is_private"`
}

func (Message) TableName() string {
	return "messages"
}

// MessageView message with the sender nick resolved
type MessageView struct {
	Timestamp  time.Time `json:"timestamp"`
	Content    string    `json:"content"`
	SenderNick string    `json:"sender_nick"`
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
}

// PrivateDelivery tells the transport what to deliver and to whom
type PrivateDelivery struct {
	Content     string `json:"content"`
	SenderNick  string `json:"sender_nick"`
	MessageID   int64  `json:"message_id"`
	SenderID    int64  `json:"sender_id"`
	RecipientID int64  `json:"recipient_id"`
}

// Notification broadcast text and its recipients
type Notification struct {
	Text       string  `json:"text"`
	Recipients []int64 `json:"recipients"`
}
