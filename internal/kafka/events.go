package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"famshare/internal/wstypes"
)

// EventProducer publishes change-feed events to the chat events topic,
// keyed by conversation ID so one conversation's events stay ordered within
// a partition.
type EventProducer struct {
	producer MessageProducer
	topic    string
}

// NewEventProducer wraps a MessageProducer for chat event publishing.
func NewEventProducer(producer MessageProducer, topic string) *EventProducer {
	return &EventProducer{producer: producer, topic: topic}
}

// Publish serializes the event and hands it to Kafka.
func (p *EventProducer) Publish(ctx context.Context, evt wstypes.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", evt.Kind, err)
	}
	key := []byte(evt.ConversationID.String())
	if err := p.producer.SendMessage(ctx, p.topic, key, payload); err != nil {
		return fmt.Errorf("producing %s event: %w", evt.Kind, err)
	}
	return nil
}
