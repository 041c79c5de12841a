package feed

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"famshare/internal/models"
)

// Log is the ordered message list behind one chat surface. The same logical
// message reaches it twice in the common case — once as the sender's
// optimistic echo, once as the realtime push of the persisted row — and the
// log collapses the copies by message ID. Ordering is by per-conversation
// sequence, creation time as tie-break, so the display is stable no matter
// what order the transport delivered in.
type Log struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]int // message ID -> index into entries
	entries []models.Message
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{byID: make(map[uuid.UUID]int)}
}

// Seed loads a history page into the log, deduplicating against anything
// already present.
func (l *Log) Seed(history []*models.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range history {
		l.applyLocked(*m)
	}
}

// Apply merges one message copy into the log. Returns true when the message
// was new, false when it was a duplicate (the incoming copy is discarded,
// except that a read=true copy still marks the stored entry read — read is
// monotonic and may arrive via the pushed copy first).
func (l *Log) Apply(m models.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(m)
}

func (l *Log) applyLocked(m models.Message) bool {
	if idx, ok := l.byID[m.ID]; ok {
		if m.Read {
			l.entries[idx].Read = true
		}
		return false
	}
	l.entries = append(l.entries, m)
	l.resortLocked()
	return true
}

// MarkRead flips read=true on every stored message not sent by readerID.
// Messages arriving after this call keep their own read state.
func (l *Log) MarkRead(readerID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].SenderID != readerID {
			l.entries[i].Read = true
		}
	}
}

// Messages returns a copy of the log in display order.
func (l *Log) Messages() []models.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of distinct messages held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Log) resortLocked() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		if l.entries[i].Seq != l.entries[j].Seq {
			return l.entries[i].Seq < l.entries[j].Seq
		}
		return l.entries[i].CreatedAt.Before(l.entries[j].CreatedAt)
	})
	for i := range l.entries {
		l.byID[l.entries[i].ID] = i
	}
}
