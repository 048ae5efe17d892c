package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/draftforge/draftforge-api/internal/api/shared"
	"github.com/draftforge/draftforge-api/internal/notify"
	"github.com/draftforge/draftforge-api/internal/redact"
	"github.com/draftforge/draftforge-api/internal/service/auth"
)

// WSHandler upgrades authenticated requests to WebSocket connections and
// registers them for completion-event push.
type WSHandler struct {
	jwtService auth.JWTService
	registry   *notify.Registry
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(jwtService auth.JWTService, registry *notify.Registry, log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}

	return &WSHandler{
		jwtService: jwtService,
		registry:   registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The handshake is guarded by bearer authentication, not by
			// origin; browser clients supply the token explicitly.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.With(slog.String("component", "ws_handler")),
	}
}

// ServeWS handles GET /ws requests. The bearer token is accepted from the
// Authorization header or, for browser WebSocket clients that cannot set
// headers, from the token query parameter. Authentication happens before the
// upgrade so a rejected client gets a proper HTTP status.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	claims, err := h.jwtService.ValidateToken(r.Context(), token)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		h.logger.Debug("websocket upgrade failed",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", claims.UserID.String()))
		return
	}

	h.registry.Register(claims.UserID, conn)

	// The read loop exists to observe disconnection; clients are not
	// expected to send anything.
	go func() {
		defer func() {
			h.registry.Unregister(claims.UserID, conn)
			if err := conn.Close(); err != nil {
				h.logger.Debug("failed to close websocket connection",
					slog.String("error", err.Error()))
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.logger.Debug("websocket connection closed",
					slog.String("user_id", claims.UserID.String()))
				return
			}
		}
	}()
}

// bearerToken extracts the bearer credential from the Authorization header,
// falling back to the token query parameter.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	return r.URL.Query().Get("token")
}
