package feed

import (
	"sync"

	"github.com/google/uuid"

	"famshare/internal/wstypes"
)

// Subscription is the scoped handle on one conversation's change feed:
// acquired via Hub.Subscribe, released via Close on every exit path,
// including replacement by a new subscription. Close is idempotent.
type Subscription struct {
	hub            *Hub
	conversationID uuid.UUID
	events         chan wstypes.Event
	closeOnce      sync.Once
}

// ConversationID returns the conversation this subscription is filtered to.
func (s *Subscription) ConversationID() uuid.UUID {
	return s.conversationID
}

// Events returns the receive side of the feed. The channel is closed when
// the subscription is released or the hub shuts down.
func (s *Subscription) Events() <-chan wstypes.Event {
	return s.events
}

// Close releases the subscription. Safe to call multiple times and
// concurrently with event delivery; a no-op after the hub has shut down.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
	})
}
