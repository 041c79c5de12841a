package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"famshare/internal/middleware"
	"famshare/internal/models"
	"famshare/internal/services"
)

// MessageHandler handles message and unread-count endpoints.
type MessageHandler struct {
	messageService services.MessageService
	unreadService  services.UnreadService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService services.MessageService, unreadService services.UnreadService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		unreadService:  unreadService,
	}
}

// SendMessagePayload is the body for sending a message.
type SendMessagePayload struct {
	Content string `json:"content"`
}

// SendMessage handles POST /api/v1/conversations/{conversationID}/messages.
// The created message is returned so the sender can echo it locally without
// waiting for the push.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conversationID, err := uuid.Parse(mux.Vars(r)["conversationID"])
	if err != nil {
		writeJSONError(w, "invalid conversation ID", http.StatusBadRequest)
		return
	}

	var payload SendMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	message, err := h.messageService.Send(r.Context(), conversationID, senderID, payload.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrConversationNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotParticipant):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("sending message to %s by %s failed: %v", conversationID, senderID, err)
			writeJSONError(w, "failed to send message", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, message)
}

// ListMessages handles GET /api/v1/conversations/{conversationID}/messages,
// ordered oldest first.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conversationID, err := uuid.Parse(mux.Vars(r)["conversationID"])
	if err != nil {
		writeJSONError(w, "invalid conversation ID", http.StatusBadRequest)
		return
	}

	limit, offset := parsePagination(r, 100)

	messages, err := h.messageService.ListMessages(r.Context(), conversationID, viewerID, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotParticipant):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("listing messages of %s for %s failed: %v", conversationID, viewerID, err)
			writeJSONError(w, "failed to list messages", http.StatusInternalServerError)
		}
		return
	}

	if messages == nil {
		messages = []*models.Message{}
	}
	writeJSONResponse(w, http.StatusOK, messages)
}

// MarkConversationRead handles POST /api/v1/conversations/{conversationID}/read.
// All messages from the other participant become read in one update.
func (h *MessageHandler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	readerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conversationID, err := uuid.Parse(mux.Vars(r)["conversationID"])
	if err != nil {
		writeJSONError(w, "invalid conversation ID", http.StatusBadRequest)
		return
	}

	changed, err := h.messageService.MarkConversationRead(r.Context(), conversationID, readerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotParticipant):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("marking conversation %s read by %s failed: %v", conversationID, readerID, err)
			writeJSONError(w, "failed to mark conversation read", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]int64{"updated": changed})
}

// UnreadCount handles GET /api/v1/conversations/{conversationID}/unread.
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conversationID, err := uuid.Parse(mux.Vars(r)["conversationID"])
	if err != nil {
		writeJSONError(w, "invalid conversation ID", http.StatusBadRequest)
		return
	}

	count, err := h.unreadService.UnreadCount(r.Context(), conversationID, viewerID)
	if err != nil {
		log.Printf("unread count of %s for %s failed: %v", conversationID, viewerID, err)
		writeJSONError(w, "failed to fetch unread count", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]int64{"unread": count})
}

// TotalUnread handles GET /api/v1/unread.
func (h *MessageHandler) TotalUnread(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	total, err := h.unreadService.TotalUnread(r.Context(), viewerID)
	if err != nil {
		log.Printf("total unread for %s failed: %v", viewerID, err)
		writeJSONError(w, "failed to fetch unread total", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]int64{"unread": total})
}
