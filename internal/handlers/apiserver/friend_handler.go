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

// FriendHandler handles friend request and friendship endpoints.
type FriendHandler struct {
	graphService services.FriendGraphService
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(graphService services.FriendGraphService) *FriendHandler {
	return &FriendHandler{graphService: graphService}
}

// SendFriendRequestPayload is the body for sending a friend request.
type SendFriendRequestPayload struct {
	RecipientID uuid.UUID `json:"recipientId"`
	Role        string    `json:"role,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// SendFriendRequest handles POST /api/v1/friend-requests.
func (h *FriendHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var payload SendFriendRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.RecipientID == uuid.Nil {
		writeJSONError(w, "recipientId is required", http.StatusBadRequest)
		return
	}

	role := models.FriendRole(payload.Role)
	if payload.Role == "" {
		role = models.RoleNone
	}

	request, err := h.graphService.SendRequest(r.Context(), requesterID, payload.RecipientID, role, payload.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfRequest),
			errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrInvalidRole):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrAlreadyFriends),
			errors.Is(err, services.ErrDuplicateRequest):
			writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			log.Printf("sending friend request %s -> %s failed: %v", requesterID, payload.RecipientID, err)
			writeJSONError(w, "failed to send friend request", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, request)
}

// AcceptFriendRequest handles POST /api/v1/friend-requests/{requestID}/accept.
func (h *FriendHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

// DeclineFriendRequest handles POST /api/v1/friend-requests/{requestID}/decline.
func (h *FriendHandler) DeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

func (h *FriendHandler) respond(w http.ResponseWriter, r *http.Request, accept bool) {
	responderID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	requestID, err := uuid.Parse(mux.Vars(r)["requestID"])
	if err != nil {
		writeJSONError(w, "invalid friend request ID", http.StatusBadRequest)
		return
	}

	if err := h.graphService.RespondToRequest(r.Context(), responderID, requestID, accept); err != nil {
		switch {
		case errors.Is(err, services.ErrRequestNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotAuthorized):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, services.ErrRequestNotPending):
			writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			log.Printf("responding to friend request %s by %s failed: %v", requestID, responderID, err)
			writeJSONError(w, "failed to process friend request", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "friend request processed"})
}

// CancelFriendRequest handles DELETE /api/v1/friend-requests/{requestID}.
func (h *FriendHandler) CancelFriendRequest(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	requestID, err := uuid.Parse(mux.Vars(r)["requestID"])
	if err != nil {
		writeJSONError(w, "invalid friend request ID", http.StatusBadRequest)
		return
	}

	if err := h.graphService.CancelRequest(r.Context(), callerID, requestID); err != nil {
		switch {
		case errors.Is(err, services.ErrRequestNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotAuthorized):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, services.ErrRequestNotPending):
			writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			log.Printf("cancelling friend request %s by %s failed: %v", requestID, callerID, err)
			writeJSONError(w, "failed to cancel friend request", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "friend request cancelled"})
}

// ListPendingRequests handles GET /api/v1/friend-requests/pending.
func (h *FriendHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	pending, err := h.graphService.ListPendingRequests(r.Context(), userID)
	if err != nil {
		log.Printf("listing pending requests for %s failed: %v", userID, err)
		writeJSONError(w, "failed to list pending requests", http.StatusInternalServerError)
		return
	}

	if pending == nil {
		pending = []models.FriendRequestWithRequester{}
	}
	writeJSONResponse(w, http.StatusOK, pending)
}

// ListFriends handles GET /api/v1/friends.
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	friends, err := h.graphService.ListFriends(r.Context(), userID)
	if err != nil {
		log.Printf("listing friends for %s failed: %v", userID, err)
		writeJSONError(w, "failed to list friends", http.StatusInternalServerError)
		return
	}

	if friends == nil {
		friends = []models.FriendWithUser{}
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// UpdateRolePayload is the body for changing a friend's capability.
type UpdateRolePayload struct {
	Role string `json:"role"`
}

// UpdateFriendshipRole handles PUT /api/v1/friendships/{friendshipID}/role.
// Only the grantor side of the friendship row may change its role.
func (h *FriendHandler) UpdateFriendshipRole(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	friendshipID, err := uuid.Parse(mux.Vars(r)["friendshipID"])
	if err != nil {
		writeJSONError(w, "invalid friendship ID", http.StatusBadRequest)
		return
	}

	var payload UpdateRolePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	friendship, err := h.graphService.UpdateFriendshipRole(r.Context(), callerID, friendshipID, models.FriendRole(payload.Role))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRole):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrFriendshipNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotAuthorized):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("updating role of friendship %s by %s failed: %v", friendshipID, callerID, err)
			writeJSONError(w, "failed to update role", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, friendship)
}

// RemoveFriendship handles DELETE /api/v1/friendships/{friendshipID}.
// Either party may remove the friendship; both grant rows are deleted.
func (h *FriendHandler) RemoveFriendship(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	friendshipID, err := uuid.Parse(mux.Vars(r)["friendshipID"])
	if err != nil {
		writeJSONError(w, "invalid friendship ID", http.StatusBadRequest)
		return
	}

	if err := h.graphService.RemoveFriendship(r.Context(), callerID, friendshipID); err != nil {
		switch {
		case errors.Is(err, services.ErrFriendshipNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotAuthorized):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("removing friendship %s by %s failed: %v", friendshipID, callerID, err)
			writeJSONError(w, "failed to remove friendship", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "friendship removed"})
}
