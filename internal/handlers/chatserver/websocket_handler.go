package chatserver

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"famshare/internal/auth"
	"famshare/internal/config"
	"famshare/internal/services"
	ws "famshare/internal/websocket"
	"famshare/internal/wstypes"
)

// WebSocketHandler upgrades HTTP requests to websocket connections for the
// realtime event feed.
type WebSocketHandler struct {
	hub            *ws.Hub
	messageService services.MessageService
	unreadService  services.UnreadService
	blacklist      auth.TokenBlacklist
	cfg            config.Config
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub, messageService services.MessageService, unreadService services.UnreadService, blacklist auth.TokenBlacklist, cfg config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		messageService: messageService,
		unreadService:  unreadService,
		blacklist:      blacklist,
		cfg:            cfg,
	}
}

// ServeWS authenticates the token query parameter and hands the connection
// to the hub. Browsers cannot set headers on websocket upgrades, hence the
// query parameter.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "authentication token required", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), token, h.cfg.Auth.JWTSecretKey, h.blacklist)
	if err != nil {
		log.Printf("websocket connection rejected: %v", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	commandHandler := func(ctx context.Context, userID uuid.UUID, cmd wstypes.ClientCommand) error {
		switch cmd.Type {
		case wstypes.CommandMarkRead:
			_, err := h.messageService.MarkConversationRead(ctx, cmd.ConversationID, userID)
			return err
		default:
			return fmt.Errorf("unknown command type %q", cmd.Type)
		}
	}

	// Reconcile this user's unread counts against the store for as long as
	// the connection lives, so cached counters cannot drift unbounded.
	connCtx, cancel := context.WithCancel(context.Background())
	go h.unreadService.RunReconciler(connCtx, claims.UserID, h.cfg.Unread.ReconcileInterval)

	ws.ServeWs(h.hub, commandHandler, cancel, claims.UserID, w, r, h.cfg.WebSocket)
}
