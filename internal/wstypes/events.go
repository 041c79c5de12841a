// Package wstypes holds the event and message shapes shared between the API
// server, the chat server and the websocket clients, kept separate so the
// feed, kafka and websocket packages can exchange them without import cycles.
package wstypes

import (
	"time"

	"github.com/google/uuid"

	"famshare/internal/models"
)

// EventKind discriminates change-feed events.
type EventKind string

const (
	// EventMessageInsert: a new message row was persisted.
	EventMessageInsert EventKind = "message.insert"
	// EventMessageUpdate: an existing message row changed (read flag).
	EventMessageUpdate EventKind = "message.update"
	// EventConversationRead: a bulk read-marking completed for a reader.
	EventConversationRead EventKind = "conversation.read"
)

// Event is one change-feed notification scoped to a conversation. Delivery
// is at-least-once: the same event may reach a subscriber twice, and
// consumers dedup by message ID (or sequence) before applying it.
type Event struct {
	Kind           EventKind       `json:"kind"`
	ConversationID uuid.UUID       `json:"conversationId"`
	Message        *models.Message `json:"message,omitempty"`
	ReaderID       uuid.UUID       `json:"readerId,omitempty"`
	EmittedAt      time.Time       `json:"emittedAt"`
}

// CommandMarkRead asks the server to mark a conversation read for the
// connection's user.
const CommandMarkRead = "mark_read"

// ClientCommand is what a websocket client sends upstream: currently only
// read-marking; message sends go through the REST API so the sender gets the
// persisted row back as an optimistic echo.
type ClientCommand struct {
	Type           string    `json:"type"`
	ConversationID uuid.UUID `json:"conversationId"`
}
