package feed

import (
	"sync"

	"github.com/google/uuid"

	"famshare/internal/models"
)

// Surface represents one open chat view. It owns at most one feed
// subscription at a time: opening against a new conversation releases the
// previous subscription before acquiring the next, and Close releases
// whatever is held. A subscription is never left dangling across a retarget
// or teardown.
type Surface struct {
	hub *Hub

	mu  sync.Mutex
	sub *Subscription
	log *Log
}

// NewSurface creates a surface bound to a hub but not yet showing any
// conversation.
func NewSurface(hub *Hub) *Surface {
	return &Surface{hub: hub}
}

// Open targets the surface at a conversation, seeding the log with the given
// history page. Any previous subscription is released first. The returned
// subscription is owned by the surface; callers range over its Events and
// pass each event to Apply.
func (s *Surface) Open(conversationID uuid.UUID, history []*models.Message) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}

	s.log = NewLog()
	s.log.Seed(history)
	s.sub = s.hub.Subscribe(conversationID)
	return s.sub
}

// Log returns the message log of the currently open conversation, or nil
// when nothing is open.
func (s *Surface) Log() *Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log
}

// Current returns the active subscription, or nil.
func (s *Surface) Current() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub
}

// Close tears the surface down, releasing any held subscription. In-flight
// sends are unaffected; they complete server-side and are merged by ID when
// the conversation is next opened.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
	s.log = nil
}
