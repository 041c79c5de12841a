package websocket

import (
	"log"

	"github.com/google/uuid"
)

// outbound is a payload addressed to one connected user.
type outbound struct {
	userID  uuid.UUID
	payload []byte
}

// Hub maintains the set of active clients and routes event payloads to them.
// One connection per user; a new connection for the same user replaces the
// old one.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Payloads aimed at a specific user.
	direct chan outbound
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan outbound, 256),
	}
}

// DeliverToUser queues a payload for the given user's connection. The send is
// non-blocking so a full hub never stalls the Kafka consumer; if the user is
// not connected here the payload is simply dropped, clients catch up from the
// message log on reconnect.
func (h *Hub) DeliverToUser(userID uuid.UUID, payload []byte) {
	select {
	case h.direct <- outbound{userID: userID, payload: payload}:
	default:
		log.Printf("websocket hub: direct channel full, dropping payload for user %s", userID)
	}
}

// Run starts the hub and listens for messages on its channels.
func (h *Hub) Run() {
	log.Println("WebSocket hub run loop started")
	for {
		select {
		case client := <-h.register:
			if existing, ok := h.clients[client.UserID]; ok {
				log.Printf("websocket hub: user %s reconnected, replacing old connection", client.UserID)
				close(existing.send)
			}
			h.clients[client.UserID] = client
			log.Printf("websocket hub: client registered, user %s", client.UserID)

		case client := <-h.unregister:
			// Only remove the stored client if it is the same connection;
			// a replaced connection must not tear down its successor.
			if stored, ok := h.clients[client.UserID]; ok && stored == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("websocket hub: client unregistered, user %s", client.UserID)
			}

		case out := <-h.direct:
			client, ok := h.clients[out.userID]
			if !ok {
				continue
			}
			select {
			case client.send <- out.payload:
			default:
				// A full send buffer means the client is slow or gone.
				log.Printf("websocket hub: send buffer full for user %s, dropping connection", out.userID)
				close(client.send)
				delete(h.clients, out.userID)
			}
		}
	}
}
