package apiserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"famshare/internal/middleware"
	"famshare/internal/models"
	"famshare/internal/services"
)

// UserHandler handles user profile and search endpoints.
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe handles GET /api/v1/users/me.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	user, err := h.userService.GetUserProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			log.Printf("fetching profile for user %s failed: %v", userID, err)
			writeJSONError(w, "failed to fetch profile", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, user)
}

// GetUser handles GET /api/v1/users/{userID}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	targetID, err := uuid.Parse(mux.Vars(r)["userID"])
	if err != nil {
		writeJSONError(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := h.userService.GetUserProfile(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			log.Printf("fetching user %s failed: %v", targetID, err)
			writeJSONError(w, "failed to fetch user", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, user.BasicInfo())
}

// SearchUsers handles GET /api/v1/users/search?q=...
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("q")
	users, err := h.userService.SearchUsers(r.Context(), query, userID)
	if err != nil {
		log.Printf("user search %q by %s failed: %v", query, userID, err)
		writeJSONError(w, "search failed", http.StatusInternalServerError)
		return
	}

	results := make([]*models.UserBasicInfo, 0, len(users))
	for i := range users {
		results = append(results, users[i].BasicInfo())
	}
	writeJSONResponse(w, http.StatusOK, results)
}
