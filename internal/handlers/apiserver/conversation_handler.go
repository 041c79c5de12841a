package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"famshare/internal/middleware"
	"famshare/internal/models"
	"famshare/internal/services"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	convoService services.ConversationService
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(convoService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{convoService: convoService}
}

// GetOrCreatePayload is the body for opening a conversation with a friend.
type GetOrCreatePayload struct {
	ParticipantID uuid.UUID `json:"participantId"`
}

// GetOrCreate handles POST /api/v1/conversations. Repeated calls for the
// same pair return the same conversation.
func (h *ConversationHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var payload GetOrCreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.ParticipantID == uuid.Nil {
		writeJSONError(w, "participantId is required", http.StatusBadRequest)
		return
	}

	conversation, err := h.convoService.GetOrCreate(r.Context(), userID, payload.ParticipantID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotParticipant):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrNotAuthorized):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("opening conversation %s <-> %s failed: %v", userID, payload.ParticipantID, err)
			writeJSONError(w, "failed to open conversation", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, conversation)
}

// GetConversation handles GET /api/v1/conversations/{conversationID}.
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conversationID, err := uuid.Parse(mux.Vars(r)["conversationID"])
	if err != nil {
		writeJSONError(w, "invalid conversation ID", http.StatusBadRequest)
		return
	}

	conversation, err := h.convoService.GetForUser(r.Context(), conversationID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotParticipant):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("fetching conversation %s for %s failed: %v", conversationID, userID, err)
			writeJSONError(w, "failed to fetch conversation", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, conversation)
}

// ListConversations handles GET /api/v1/conversations, most recent activity first.
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	limit, offset := parsePagination(r, 50)

	conversations, err := h.convoService.ListForUser(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("listing conversations for %s failed: %v", userID, err)
		writeJSONError(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}

	if conversations == nil {
		conversations = []*models.Conversation{}
	}
	writeJSONResponse(w, http.StatusOK, conversations)
}

// parsePagination reads limit/offset query parameters, clamping to sane values.
func parsePagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
