package feed

import (
	"sync"

	"github.com/google/uuid"

	"famshare/internal/wstypes"
)

// Tracker maintains the viewer's per-conversation unread counts from
// change-feed events, with periodic reconciliation from storage as the
// source of truth. Inserts are deduplicated by sequence number, so
// at-least-once delivery cannot double-count.
type Tracker struct {
	mu       sync.Mutex
	viewerID uuid.UUID
	counts   map[uuid.UUID]int64
	lastSeq  map[uuid.UUID]int64
}

// NewTracker creates a tracker for one viewer.
func NewTracker(viewerID uuid.UUID) *Tracker {
	return &Tracker{
		viewerID: viewerID,
		counts:   make(map[uuid.UUID]int64),
		lastSeq:  make(map[uuid.UUID]int64),
	}
}

// Apply folds one change-feed event into the counts.
func (t *Tracker) Apply(evt wstypes.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt.Kind {
	case wstypes.EventMessageInsert:
		if evt.Message == nil {
			return
		}
		if evt.Message.SenderID == t.viewerID || evt.Message.Read {
			return
		}
		// Duplicate push of an already-counted message.
		if evt.Message.Seq <= t.lastSeq[evt.ConversationID] {
			return
		}
		t.lastSeq[evt.ConversationID] = evt.Message.Seq
		t.counts[evt.ConversationID]++

	case wstypes.EventConversationRead:
		if evt.ReaderID == t.viewerID {
			t.counts[evt.ConversationID] = 0
		}
	}
}

// MarkRead zeroes a conversation's count optimistically, before the
// authoritative read event comes back.
func (t *Tracker) MarkRead(conversationID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[conversationID] = 0
}

// Reconcile overwrites one conversation's count with the store's answer.
func (t *Tracker) Reconcile(conversationID uuid.UUID, count int64, lastSeq int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[conversationID] = count
	if lastSeq > t.lastSeq[conversationID] {
		t.lastSeq[conversationID] = lastSeq
	}
}

// Count returns the unread count for one conversation.
func (t *Tracker) Count(conversationID uuid.UUID) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[conversationID]
}

// Total returns the unread count summed over all conversations, used to
// badge the friend list.
func (t *Tracker) Total() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total int64
	for _, n := range t.counts {
		total += n
	}
	return total
}
