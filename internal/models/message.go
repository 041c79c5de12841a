package models

import "github.com/google/uuid"

// Message is a chat message inside a conversation. Content is immutable after
// insert; only Read mutates, and only monotonically (false -> true, never
// back). Seq is a per-conversation monotonic sequence used as the ordering
// key, with CreatedAt kept for display.
type Message struct {
	Base
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_message_conversation" json:"conversationId"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"senderId"`
	Seq            int64     `gorm:"not null;index:idx_message_conversation" json:"seq"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Read           bool      `gorm:"not null;default:false" json:"read"`
}

// TableName specifies the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}
