// Package feed implements the in-process change feed for conversations:
// a hub fanning out message events to per-conversation subscriptions, the
// deduplicating message log behind a chat surface, and the unread tracker
// that feeds badge counts.
package feed

import (
	"context"
	"log"

	"github.com/google/uuid"

	"famshare/internal/wstypes"
)

// Hub fans change-feed events out to subscriptions filtered by conversation.
// All bookkeeping happens on the Run goroutine; Subscribe, Publish and
// Subscription.Close only exchange messages with it over channels.
type Hub struct {
	register   chan *Subscription
	unregister chan *Subscription
	events     chan wstypes.Event
	done       chan struct{}

	// Subscriptions per conversation. Touched only by Run.
	subscribers map[uuid.UUID]map[*Subscription]struct{}
}

// NewHub creates a new Hub. Call Run before subscribing or publishing.
func NewHub() *Hub {
	return &Hub{
		register:    make(chan *Subscription),
		unregister:  make(chan *Subscription),
		events:      make(chan wstypes.Event, 256),
		done:        make(chan struct{}),
		subscribers: make(map[uuid.UUID]map[*Subscription]struct{}),
	}
}

// Run processes registrations and events until ctx is canceled. On shutdown
// every open subscription is closed so readers drain and stop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, subs := range h.subscribers {
				for sub := range subs {
					close(sub.events)
				}
			}
			h.subscribers = make(map[uuid.UUID]map[*Subscription]struct{})
			return

		case sub := <-h.register:
			subs, ok := h.subscribers[sub.conversationID]
			if !ok {
				subs = make(map[*Subscription]struct{})
				h.subscribers[sub.conversationID] = subs
			}
			subs[sub] = struct{}{}

		case sub := <-h.unregister:
			if subs, ok := h.subscribers[sub.conversationID]; ok {
				if _, registered := subs[sub]; registered {
					delete(subs, sub)
					close(sub.events)
					if len(subs) == 0 {
						delete(h.subscribers, sub.conversationID)
					}
				}
			}

		case evt := <-h.events:
			for sub := range h.subscribers[evt.ConversationID] {
				select {
				case sub.events <- evt:
				default:
					// Slow subscriber: drop here, the periodic reconcile
					// against storage repairs whatever the drop lost.
					log.Printf("feed: subscriber for conversation %s is full, dropping %s event",
						evt.ConversationID, evt.Kind)
				}
			}
		}
	}
}

// Subscribe registers a new subscription for one conversation. After the hub
// has shut down the returned subscription is already closed.
func (h *Hub) Subscribe(conversationID uuid.UUID) *Subscription {
	sub := &Subscription{
		hub:            h,
		conversationID: conversationID,
		events:         make(chan wstypes.Event, 64),
	}
	select {
	case h.register <- sub:
	case <-h.done:
		sub.closeOnce.Do(func() { close(sub.events) })
	}
	return sub
}

// Publish hands an event to the hub for fan-out. Never blocks the caller
// beyond the hub's intake buffer.
func (h *Hub) Publish(evt wstypes.Event) {
	select {
	case h.events <- evt:
	case <-h.done:
	default:
		log.Printf("feed: hub intake full, dropping %s event for conversation %s",
			evt.Kind, evt.ConversationID)
	}
}
