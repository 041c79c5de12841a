package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"famshare/internal/models"
	"famshare/internal/storage"
	"famshare/internal/wstypes"
)

// EventPublisher pushes change-feed events toward subscribers. Implementations
// fan out to the in-process feed hub and to the Kafka pipe feeding remote
// chat servers; delivery is at-least-once end to end.
type EventPublisher interface {
	Publish(ctx context.Context, evt wstypes.Event) error
}

// MessageService persists messages and emits the events the realtime layer
// fans out. The sender gets the persisted row back immediately for optimistic
// display; everyone else learns about it from the change feed.
type MessageService interface {
	// Send persists a message in the conversation and returns the stored row.
	// The caller must be a participant. Publish failures are logged, not
	// returned: the row is durable and reconciliation will surface it.
	Send(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*models.Message, error)

	ListMessages(ctx context.Context, conversationID, viewerID uuid.UUID, limit, offset int) ([]*models.Message, error)

	// MarkConversationRead marks every unread message not sent by readerID
	// as read, in one atomic statement scoped to rows existing at call time.
	// A message arriving mid-call stays unread. Returns the number of rows
	// flipped.
	MarkConversationRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)

	// MarkMessageRead marks a single message read. Reading your own message
	// is a no-op.
	MarkMessageRead(ctx context.Context, messageID, readerID uuid.UUID) error
}

type messageService struct {
	msgRepo   storage.MessageRepository
	convoRepo storage.ConversationRepository
	publisher EventPublisher
}

// NewMessageService creates a new MessageService instance.
func NewMessageService(msgRepo storage.MessageRepository, convoRepo storage.ConversationRepository, publisher EventPublisher) MessageService {
	return &messageService{msgRepo: msgRepo, convoRepo: convoRepo, publisher: publisher}
}

func (s *messageService) Send(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	conversation, err := s.convoRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("retrieving conversation: %w", err)
	}
	if !conversation.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.msgRepo.CreateInConversation(ctx, message); err != nil {
		return nil, fmt.Errorf("persisting message: %w", err)
	}

	s.publish(ctx, wstypes.Event{
		Kind:           wstypes.EventMessageInsert,
		ConversationID: conversationID,
		Message:        message,
		EmittedAt:      time.Now(),
	})
	return message, nil
}

func (s *messageService) ListMessages(ctx context.Context, conversationID, viewerID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	conversation, err := s.convoRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("retrieving conversation: %w", err)
	}
	if !conversation.HasParticipant(viewerID) {
		return nil, ErrNotParticipant
	}
	return s.msgRepo.ListByConversation(ctx, conversationID, limit, offset)
}

func (s *messageService) MarkConversationRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	conversation, err := s.convoRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrConversationNotFound
		}
		return 0, fmt.Errorf("retrieving conversation: %w", err)
	}
	if !conversation.HasParticipant(readerID) {
		return 0, ErrNotParticipant
	}

	changed, err := s.msgRepo.MarkConversationRead(ctx, conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("marking conversation read: %w", err)
	}
	if changed > 0 {
		s.publish(ctx, wstypes.Event{
			Kind:           wstypes.EventConversationRead,
			ConversationID: conversationID,
			ReaderID:       readerID,
			EmittedAt:      time.Now(),
		})
	}
	return changed, nil
}

func (s *messageService) MarkMessageRead(ctx context.Context, messageID, readerID uuid.UUID) error {
	message, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("retrieving message: %w", err)
	}

	conversation, err := s.convoRepo.GetByID(ctx, message.ConversationID)
	if err != nil {
		return fmt.Errorf("retrieving conversation: %w", err)
	}
	if !conversation.HasParticipant(readerID) {
		return ErrNotParticipant
	}

	changed, err := s.msgRepo.MarkMessageRead(ctx, messageID, readerID)
	if err != nil {
		return fmt.Errorf("marking message read: %w", err)
	}
	if changed > 0 {
		message.Read = true
		s.publish(ctx, wstypes.Event{
			Kind:           wstypes.EventMessageUpdate,
			ConversationID: message.ConversationID,
			Message:        message,
			ReaderID:       readerID,
			EmittedAt:      time.Now(),
		})
	}
	return nil
}

func (s *messageService) publish(ctx context.Context, evt wstypes.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		// The row is already durable; subscribers recover via reconcile.
		log.Printf("publishing %s event for conversation %s failed: %v", evt.Kind, evt.ConversationID, err)
	}
}
