package events

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyttebook/backend/internal/cabin/domain"
	"github.com/hyttebook/backend/internal/common/logger"
	"github.com/hyttebook/backend/internal/observability/metrics"
)

// CabinEvent is the wire format of the change feed. Action is one of
// "created", "updated", "deleted".
type CabinEvent struct {
	Action     string    `json:"action"`
	CabinID    int64     `json:"cabin_id"`
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	City       string    `json:"city"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Hub fans cabin change events out to connected websocket subscribers.
// A slow subscriber never blocks publishing; its events are dropped.
type Hub struct {
	clients     sync.Map
	clientCount atomic.Int64
	register    chan *Client
	unregister  chan *Client
	broadcast   chan []byte
	log         *logger.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewHub(log *logger.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-h.ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.clients.Store(client, struct{}{})
			total := h.clientCount.Add(1)
			metrics.EventSubscribers.Set(float64(total))
			h.log.WithFields(client.ctx, logger.Fields{
				"remote": client.remoteAddr,
				"total":  total,
				"action": "events_subscribe",
			}).Info("event subscriber connected")

		case client := <-h.unregister:
			h.handleUnregister(client)

		case message := <-h.broadcast:
			h.clients.Range(func(key, _ interface{}) bool {
				client := key.(*Client)
				select {
				case client.send <- message:
				default:
					metrics.EventsDroppedTotal.Inc()
				}
				return true
			})
		}
	}
}

// PublishCabinEvent implements the cabin service's EventPublisher. Safe to
// call from any goroutine; never blocks the caller.
func (h *Hub) PublishCabinEvent(action string, cabin domain.Cabin) {
	event := CabinEvent{
		Action:     action,
		CabinID:    cabin.ID,
		Slug:       cabin.Slug,
		Name:       cabin.Name,
		City:       cabin.City,
		OccurredAt: cabin.UpdatedAt,
	}

	message, err := json.Marshal(event)
	if err != nil {
		h.log.Errorf("events marshal failed action=%s cabin_id=%d: %v", action, cabin.ID, err)
		return
	}

	select {
	case h.broadcast <- message:
		metrics.EventsPublishedTotal.WithLabelValues(action).Inc()
	case <-h.ctx.Done():
	default:
		metrics.EventsDroppedTotal.Inc()
	}
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients.Load(client); !ok {
		return
	}

	h.clients.Delete(client)
	total := h.clientCount.Add(-1)
	metrics.EventSubscribers.Set(float64(total))
	close(client.send)
	h.log.WithFields(client.ctx, logger.Fields{
		"remote": client.remoteAddr,
		"total":  total,
		"action": "events_unsubscribe",
	}).Info("event subscriber disconnected")
}

func (h *Hub) shutdown() {
	count := 0
	h.clients.Range(func(key, _ interface{}) bool {
		client := key.(*Client)
		h.clients.Delete(key)
		close(client.send)
		count++
		return true
	})
	h.clientCount.Store(0)
	metrics.EventSubscribers.Set(0)
	h.log.Infof("event hub shutdown completed subscribers=%d", count)
}

// Shutdown stops the hub and waits for Run to drain.
func (h *Hub) Shutdown() {
	h.cancel()
	<-h.done
}
