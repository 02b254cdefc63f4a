package websocket

import (
	"context"
	"sync"

	"github.com/dreschagin/recycling-dashboard/internal/application/dto"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

// Типы сообщений, отправляемых клиентам
const (
	MessageTypeHealth = "health"
	MessageTypeAlert  = "alert"
)

// Message - конверт сообщения для клиента
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub управляет WebSocket клиентами и рассылает health snapshot'ы и alert'ы.
// Новый клиент сразу получает последний известный snapshot.
// Реализует интерфейс port.NotificationService
type Hub struct {
	clients map[*Client]struct{}

	outbound   chan Message
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	latest *dto.HealthSnapshotDTO

	logger *logger.Logger
}

// NewHub создает новый WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		outbound:   make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run обслуживает регистрацию и рассылку до отмены ctx.
// Должен быть запущен в отдельной goroutine
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			latest := h.latest
			total := len(h.clients)
			h.mu.Unlock()

			if latest != nil {
				h.deliver(client, Message{Type: MessageTypeHealth, Data: latest})
			}
			h.logger.Debug("Client registered", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", total)

		case message := <-h.outbound:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				h.deliver(client, message)
			}
		}
	}
}

// deliver кладет сообщение в очередь клиента.
// Клиент с переполненной очередью отключается
func (h *Hub) deliver(client *Client, message Message) {
	select {
	case client.send <- message:
	default:
		h.mu.Lock()
		h.drop(client)
		h.mu.Unlock()
		h.logger.Warn("Client channel full, disconnected")
	}
}

// drop вызывается под h.mu
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.drop(client)
	}
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast отправляет snapshot всем клиентам и запоминает его как последний
func (h *Hub) Broadcast(snapshot *dto.HealthSnapshotDTO) {
	h.mu.Lock()
	h.latest = snapshot
	h.mu.Unlock()

	h.enqueue(Message{Type: MessageTypeHealth, Data: snapshot})
}

// BroadcastAlert отправляет alert всем клиентам
func (h *Hub) BroadcastAlert(alert *dto.AlertDTO) {
	h.enqueue(Message{Type: MessageTypeAlert, Data: alert})
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.outbound <- message:
	default:
		h.logger.Warn("Broadcast channel full, dropping message", "type", message.Type)
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
