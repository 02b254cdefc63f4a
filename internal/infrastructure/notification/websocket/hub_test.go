package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/dto"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

func newTestClient(hub *Hub, buffer int) *Client {
	return &Client{hub: hub, send: make(chan Message, buffer), logger: hub.logger}
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-client.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.New("error"))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func waitClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", want, hub.ClientCount())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub_BroadcastToClients(t *testing.T) {
	hub := startHub(t)

	a, b := newTestClient(hub, 4), newTestClient(hub, 4)
	hub.Register(a)
	hub.Register(b)

	waitClients(t, hub, 2)

	hub.Broadcast(&dto.HealthSnapshotDTO{Status: "healthy"})
	hub.BroadcastAlert(&dto.AlertDTO{Severity: "error", Metric: "errorRate"})

	for _, client := range []*Client{a, b} {
		if msg := receive(t, client); msg.Type != MessageTypeHealth {
			t.Fatalf("expected health message, got %s", msg.Type)
		}
		if msg := receive(t, client); msg.Type != MessageTypeAlert {
			t.Fatalf("expected alert message, got %s", msg.Type)
		}
	}
}

func TestHub_NewClientGetsLatestSnapshot(t *testing.T) {
	hub := startHub(t)

	hub.Broadcast(&dto.HealthSnapshotDTO{Status: "warning"})

	// дождаться, пока hub обработает рассылку без клиентов
	deadline := time.Now().Add(time.Second)
	for len(hub.outbound) > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	late := newTestClient(hub, 4)
	hub.Register(late)

	msg := receive(t, late)
	snapshot, ok := msg.Data.(*dto.HealthSnapshotDTO)
	if msg.Type != MessageTypeHealth || !ok || snapshot.Status != "warning" {
		t.Fatalf("unexpected replay %+v", msg)
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := startHub(t)

	slow := newTestClient(hub, 0)
	hub.Register(slow)

	hub.BroadcastAlert(&dto.AlertDTO{Severity: "warning"})

	waitClients(t, hub, 0)
	if _, ok := <-slow.send; ok {
		t.Fatal("slow client channel must be closed")
	}
}

func TestHub_UnregisterAndShutdown(t *testing.T) {
	hub := NewHub(logger.New("error"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	a, b := newTestClient(hub, 1), newTestClient(hub, 1)
	hub.Register(a)
	hub.Register(b)
	hub.Unregister(a)

	if _, ok := <-a.send; ok {
		t.Fatal("unregistered client channel must be closed")
	}

	cancel()
	<-done

	if _, ok := <-b.send; ok {
		t.Fatal("shutdown must close remaining clients")
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected no clients after shutdown, got %d", hub.ClientCount())
	}
}
