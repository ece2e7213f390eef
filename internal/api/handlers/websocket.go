package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/dom/jumbah-travel/internal/api/middleware"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/dom/jumbah-travel/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	ctx         context.Context
	chatService *service.ChatService
	limiter     *middleware.IPRateLimiter
	upgrader    ws.Upgrader
}

// NewWebSocketHandler accepts upgrades from the configured origins and from
// clients that send no Origin header. Sockets live until ctx ends. Every
// frame draws from the caller's bucket in limiter, the same one the HTTP
// generation routes use.
func NewWebSocketHandler(ctx context.Context, chatService *service.ChatService, allowedOrigins []string, limiter *middleware.IPRateLimiter) *WebSocketHandler {
	return &WebSocketHandler{
		ctx:         ctx,
		chatService: chatService,
		limiter:     limiter,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("handlers.WebSocket: upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(h.ctx, conn, h.chatService, h.limiter.GetLimiter(middleware.ClientIP(r)))
	go client.Run()
}
