package handler

import (
	"net/http"
	"net/url"
	"strings"

	wsInfra "github.com/dreschagin/recycling-dashboard/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
	"github.com/gorilla/websocket"
)

// WebSocketHandler подключает клиентов к потоку health snapshot'ов
type WebSocketHandler struct {
	hub            *wsInfra.Hub
	logger         *logger.Logger
	allowedOrigins map[string]struct{}
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler создает новый handler.
// Пустой allowedOrigins разрешает только запросы без заголовка Origin
func NewWebSocketHandler(hub *wsInfra.Hub, allowedOrigins []string, logger *logger.Logger) *WebSocketHandler {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			originMap[trimmed] = struct{}{}
		}
	}

	handler := &WebSocketHandler{
		hub:            hub,
		logger:         logger,
		allowedOrigins: originMap,
	}
	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     handler.checkOrigin,
	}

	return handler
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		// не браузерный клиент (CLI, сервис)
		return true
	}
	if _, ok := h.allowedOrigins["*"]; ok {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	_, ok := h.allowedOrigins[parsed.Scheme+"://"+parsed.Host]
	return ok
}

// HandleConnection обрабатывает новое WebSocket соединение. GET /ws/health
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err.Error())
		return
	}

	go wsInfra.NewClient(h.hub, conn, h.logger).Serve()
}
