package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Conversation is the single chat thread between an unordered pair of users.
// Exactly one row exists per pair, with ParticipantLowID < ParticipantHighID
// under the byte order of the UUIDs; the unique index enforces this across
// concurrent creators. Conversations are created lazily and never deleted.
type Conversation struct {
	Base
	ParticipantLowID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair" json:"participantLowId"`
	ParticipantHighID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair" json:"participantHighId"`
	LastMessageAt     *time.Time `gorm:"index" json:"lastMessageAt,omitempty"`

	// LastSeq backs the per-conversation monotonic message sequence.
	// Incremented atomically when a message is inserted.
	LastSeq int64 `gorm:"not null;default:0" json:"-"`
}

// TableName specifies the table name for the Conversation model.
func (Conversation) TableName() string {
	return "conversations"
}

// CanonicalPair returns the (low, high) representative of an unordered pair
// of user IDs. The same order is used everywhere a pair is canonicalized.
func CanonicalPair(a, b uuid.UUID) (low, high uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantLowID == userID || c.ParticipantHighID == userID
}

// OtherParticipant returns the counter-party of userID. The second return is
// false when userID is not a participant at all.
func (c *Conversation) OtherParticipant(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case c.ParticipantLowID:
		return c.ParticipantHighID, true
	case c.ParticipantHighID:
		return c.ParticipantLowID, true
	}
	return uuid.Nil, false
}
