package kafkahandlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"famshare/internal/feed"
	"famshare/internal/storage"
	ws "famshare/internal/websocket"
	"famshare/internal/wstypes"
)

// UnreadEventSink receives change-feed events to keep unread counts current.
type UnreadEventSink interface {
	HandleEvent(ctx context.Context, evt wstypes.Event)
}

// ChatEventConsumerLogic routes change-feed events from Kafka to the
// in-process feed hub, the websocket connections of both participants and
// the unread tracker.
type ChatEventConsumerLogic struct {
	feedHub   *feed.Hub
	wsHub     *ws.Hub
	convoRepo storage.ConversationRepository
	unread    UnreadEventSink
}

// NewChatEventConsumerLogic creates a new ChatEventConsumerLogic.
func NewChatEventConsumerLogic(feedHub *feed.Hub, wsHub *ws.Hub, convoRepo storage.ConversationRepository, unread UnreadEventSink) *ChatEventConsumerLogic {
	return &ChatEventConsumerLogic{
		feedHub:   feedHub,
		wsHub:     wsHub,
		convoRepo: convoRepo,
		unread:    unread,
	}
}

// HandleChatEvent processes one Kafka message carrying a change-feed event.
// Delivery is at-least-once; every sink downstream dedups by message ID or
// sequence, so reprocessing a message is harmless.
func (h *ChatEventConsumerLogic) HandleChatEvent(ctx context.Context, msg *kafka.Message) error {
	var evt wstypes.Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		// A malformed payload will never parse on retry, skip it.
		log.Printf("chat event consumer: unmarshal failed (offset %v): %v", msg.TopicPartition.Offset, err)
		return nil
	}

	if h.feedHub != nil {
		h.feedHub.Publish(evt)
	}

	if h.unread != nil {
		h.unread.HandleEvent(ctx, evt)
	}

	if h.wsHub != nil {
		conversation, err := h.convoRepo.GetByID(ctx, evt.ConversationID)
		if err != nil {
			// Leave the offset uncommitted so delivery is retried once the
			// store is reachable again.
			return err
		}
		if conversation == nil {
			log.Printf("chat event consumer: conversation %s not found, dropping %s event", evt.ConversationID, evt.Kind)
			return nil
		}

		payload, err := json.Marshal(evt)
		if err != nil {
			log.Printf("chat event consumer: marshal failed for %s event: %v", evt.Kind, err)
			return nil
		}
		h.wsHub.DeliverToUser(conversation.ParticipantLowID, payload)
		h.wsHub.DeliverToUser(conversation.ParticipantHighID, payload)
	}

	return nil
}
