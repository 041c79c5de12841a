package apiserver

import (
	"log"
	"net/http"
	"time"

	"famshare/internal/middleware"
	"famshare/internal/services"
)

// AccessHandler exposes what a viewer can see across their friends'
// calendars. Each request resolves a fresh grant snapshot so the caller's
// own grant changes are visible immediately.
type AccessHandler struct {
	accessService services.AccessService
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(accessService services.AccessService) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

// VisibleProfiles handles GET /api/v1/access/profiles.
func (h *AccessHandler) VisibleProfiles(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	snap, err := h.accessService.GrantsFor(r.Context(), viewerID)
	if err != nil {
		log.Printf("resolving grants for %s failed: %v", viewerID, err)
		writeJSONError(w, "failed to resolve access", http.StatusInternalServerError)
		return
	}

	profiles, err := h.accessService.VisibleProfiles(r.Context(), viewerID, snap)
	if err != nil {
		log.Printf("listing visible profiles for %s failed: %v", viewerID, err)
		writeJSONError(w, "failed to list profiles", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, profiles)
}

// VisibleEvents handles GET /api/v1/access/events?from=...&to=...
// The window bounds are RFC 3339 timestamps; a missing window defaults to
// the coming week.
func (h *AccessHandler) VisibleEvents(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	from := time.Now()
	to := from.AddDate(0, 0, 7)
	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			writeJSONError(w, "invalid 'from' timestamp", http.StatusBadRequest)
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			writeJSONError(w, "invalid 'to' timestamp", http.StatusBadRequest)
			return
		}
	}
	if !to.After(from) {
		writeJSONError(w, "'to' must be after 'from'", http.StatusBadRequest)
		return
	}

	snap, err := h.accessService.GrantsFor(r.Context(), viewerID)
	if err != nil {
		log.Printf("resolving grants for %s failed: %v", viewerID, err)
		writeJSONError(w, "failed to resolve access", http.StatusInternalServerError)
		return
	}

	events, err := h.accessService.VisibleEvents(r.Context(), viewerID, snap, from, to)
	if err != nil {
		log.Printf("listing visible events for %s failed: %v", viewerID, err)
		writeJSONError(w, "failed to list events", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, events)
}
