package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"famshare/internal/storage"
	"famshare/internal/wstypes"
)

// UnreadCache caches per-conversation unread counts keyed by viewer, so the
// friend-list badge does not hit Postgres on every render. Implementations
// are best-effort: a miss or an error falls back to the store.
type UnreadCache interface {
	Get(ctx context.Context, conversationID, viewerID uuid.UUID) (count int64, ok bool, err error)
	Set(ctx context.Context, conversationID, viewerID uuid.UUID, count int64) error
	Incr(ctx context.Context, conversationID, viewerID uuid.UUID) error
	Zero(ctx context.Context, conversationID, viewerID uuid.UUID) error
	Invalidate(ctx context.Context, conversationID, viewerID uuid.UUID) error
}

// UnreadService derives unread counts from message state. Counts are
// recomputed on read-marking (optimistic zero), on every realtime event for
// the conversation, and by a periodic reconcile against the store.
type UnreadService interface {
	// UnreadCount returns how many messages in the conversation the viewer
	// has not read (messages from the other participant with read=false).
	UnreadCount(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error)

	// TotalUnread sums unread counts across all of the viewer's
	// conversations.
	TotalUnread(ctx context.Context, viewerID uuid.UUID) (int64, error)

	// HandleEvent folds one change-feed event into the cached counts.
	HandleEvent(ctx context.Context, evt wstypes.Event)

	// ReconcileUser recomputes every cached count for the viewer from the
	// store.
	ReconcileUser(ctx context.Context, viewerID uuid.UUID) error

	// RunReconciler reconciles the given viewer on an interval until ctx is
	// canceled. Started once per connected chat client.
	RunReconciler(ctx context.Context, viewerID uuid.UUID, interval time.Duration)
}

type unreadService struct {
	msgRepo   storage.MessageRepository
	convoRepo storage.ConversationRepository
	cache     UnreadCache
}

// NewUnreadService creates a new UnreadService instance.
func NewUnreadService(msgRepo storage.MessageRepository, convoRepo storage.ConversationRepository, cache UnreadCache) UnreadService {
	return &unreadService{msgRepo: msgRepo, convoRepo: convoRepo, cache: cache}
}

func (s *unreadService) UnreadCount(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error) {
	if s.cache != nil {
		if count, ok, err := s.cache.Get(ctx, conversationID, viewerID); err == nil && ok {
			return count, nil
		} else if err != nil {
			log.Printf("unread cache read failed for %s/%s: %v", conversationID, viewerID, err)
		}
	}

	count, err := s.msgRepo.CountUnread(ctx, conversationID, viewerID)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, conversationID, viewerID, count); err != nil {
			log.Printf("unread cache write failed for %s/%s: %v", conversationID, viewerID, err)
		}
	}
	return count, nil
}

func (s *unreadService) TotalUnread(ctx context.Context, viewerID uuid.UUID) (int64, error) {
	conversations, err := s.convoRepo.ListForUser(ctx, viewerID, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("listing conversations: %w", err)
	}
	var total int64
	for _, c := range conversations {
		count, err := s.UnreadCount(ctx, c.ID, viewerID)
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

func (s *unreadService) HandleEvent(ctx context.Context, evt wstypes.Event) {
	if s.cache == nil {
		return
	}
	switch evt.Kind {
	case wstypes.EventMessageInsert:
		if evt.Message == nil {
			return
		}
		// The recipient's count grows. The transport may replay the same
		// insert, so drop the cached value instead of incrementing it; the
		// next read recomputes from the store.
		conversation, err := s.convoRepo.GetByID(ctx, evt.ConversationID)
		if err != nil {
			log.Printf("unread cache: conversation %s lookup failed: %v", evt.ConversationID, err)
			return
		}
		recipient, ok := conversation.OtherParticipant(evt.Message.SenderID)
		if !ok {
			return
		}
		if err := s.cache.Invalidate(ctx, evt.ConversationID, recipient); err != nil {
			log.Printf("unread cache invalidate failed for %s: %v", evt.ConversationID, err)
		}
	case wstypes.EventConversationRead:
		if err := s.cache.Zero(ctx, evt.ConversationID, evt.ReaderID); err != nil {
			log.Printf("unread cache zero failed for %s/%s: %v", evt.ConversationID, evt.ReaderID, err)
		}
	case wstypes.EventMessageUpdate:
		if evt.ReaderID != uuid.Nil {
			if err := s.cache.Invalidate(ctx, evt.ConversationID, evt.ReaderID); err != nil {
				log.Printf("unread cache invalidate failed for %s/%s: %v", evt.ConversationID, evt.ReaderID, err)
			}
		}
	}
}

func (s *unreadService) ReconcileUser(ctx context.Context, viewerID uuid.UUID) error {
	conversations, err := s.convoRepo.ListForUser(ctx, viewerID, 0, 0)
	if err != nil {
		return fmt.Errorf("listing conversations for reconcile: %w", err)
	}
	for _, c := range conversations {
		count, err := s.msgRepo.CountUnread(ctx, c.ID, viewerID)
		if err != nil {
			return fmt.Errorf("recounting conversation %s: %w", c.ID, err)
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, c.ID, viewerID, count); err != nil {
				log.Printf("unread cache reconcile write failed for %s/%s: %v", c.ID, viewerID, err)
			}
		}
	}
	return nil
}

func (s *unreadService) RunReconciler(ctx context.Context, viewerID uuid.UUID, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ReconcileUser(ctx, viewerID); err != nil {
				log.Printf("unread reconcile for %s failed: %v", viewerID, err)
			}
		}
	}
}
