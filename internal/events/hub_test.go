package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hyttebook/backend/internal/cabin/domain"
	"github.com/hyttebook/backend/internal/common/logger"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("", "test", "CRITICAL")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return NewHub(log)
}

func newTestClient(hub *Hub) *Client {
	return &Client{
		hub:        hub,
		remoteAddr: "127.0.0.1",
		send:       make(chan []byte, 4),
		ctx:        context.Background(),
	}
}

func TestHubDeliversEventsToSubscribers(t *testing.T) {
	hub := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := newTestClient(hub)
	hub.Register(client)

	updatedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	hub.PublishCabinEvent("created", domain.Cabin{
		ID:        1,
		Slug:      "lake-house",
		Name:      "Lake House",
		City:      "Bergen",
		UpdatedAt: updatedAt,
	})

	select {
	case raw := <-client.send:
		var event CabinEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		if event.Action != "created" || event.CabinID != 1 || event.Slug != "lake-house" {
			t.Errorf("unexpected event %+v", event)
		}
		if !event.OccurredAt.Equal(updatedAt) {
			t.Errorf("expected occurred_at %v, got %v", updatedAt, event.OccurredAt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func TestHubShutdownClosesSubscribers(t *testing.T) {
	hub := newTestHub(t)
	go hub.Run(context.Background())

	client := newTestClient(hub)
	hub.Register(client)

	hub.Shutdown()

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestHubDropsEventsForSlowSubscribers(t *testing.T) {
	hub := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := newTestClient(hub)
	hub.Register(client)

	// Buffer holds 4; everything beyond is dropped without blocking.
	for i := 0; i < 10; i++ {
		hub.PublishCabinEvent("updated", domain.Cabin{ID: int64(i)})
	}

	deadline := time.After(time.Second)
	received := 0
	for received < 4 {
		select {
		case <-client.send:
			received++
		case <-deadline:
			t.Fatalf("expected at least 4 buffered events, got %d", received)
		}
	}
}
