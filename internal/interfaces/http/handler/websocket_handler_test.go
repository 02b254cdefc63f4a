package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dreschagin/recycling-dashboard/internal/application/dto"
	wsInfra "github.com/dreschagin/recycling-dashboard/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

func TestWebSocketHandler_StreamsSnapshots(t *testing.T) {
	log := logger.New("error")
	hub := wsInfra.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	hub.Broadcast(&dto.HealthSnapshotDTO{Status: "healthy"})

	server := httptest.NewServer(http.HandlerFunc(NewWebSocketHandler(hub, nil, log).HandleConnection))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first wsInfra.Message
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read latest snapshot: %v", err)
	}
	if first.Type != wsInfra.MessageTypeHealth {
		t.Fatalf("expected health replay, got %s", first.Type)
	}

	hub.BroadcastAlert(&dto.AlertDTO{Severity: "error", Metric: "errorRate"})

	// рассылка snapshot'а могла дойти до клиента повторно, ищем alert
	var alert struct {
		Type string       `json:"type"`
		Data dto.AlertDTO `json:"data"`
	}
	for alert.Type != wsInfra.MessageTypeAlert {
		if err := conn.ReadJSON(&alert); err != nil {
			t.Fatalf("read alert: %v", err)
		}
	}
	if alert.Data.Metric != "errorRate" {
		t.Fatalf("unexpected alert %+v", alert)
	}
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	h := NewWebSocketHandler(wsInfra.NewHub(logger.New("error")), []string{"https://dashboard.example.com", " "}, logger.New("error"))

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "https://dashboard.example.com", want: true},
		{origin: "https://dashboard.example.com/path", want: true},
		{origin: "https://evil.example.com", want: false},
		{origin: "not a url", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws/health", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkOrigin(req); got != tt.want {
				t.Fatalf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}

	wildcard := NewWebSocketHandler(wsInfra.NewHub(logger.New("error")), []string{"*"}, logger.New("error"))
	req := httptest.NewRequest(http.MethodGet, "/ws/health", nil)
	req.Header.Set("Origin", "https://anything.example.org")
	if !wildcard.checkOrigin(req) {
		t.Fatal("wildcard must allow any origin")
	}
}
