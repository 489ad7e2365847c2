package sse

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Event represents an SSE event to be sent to subscribers
type Event struct {
	ID    string
	Topic string
	Data  any
}

// Hub fans attendance events out to live stream subscribers. It satisfies
// broker.Publisher so it can sit next to the message broker.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber for a topic and returns the event channel and cleanup function.
// An empty topic receives every event.
func (h *Hub) Subscribe(topic string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 32)

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan Event]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[topic][ch]; !ok {
			return // already closed by Close
		}
		delete(h.subscribers[topic], ch)
		close(ch)
		if len(h.subscribers[topic]) == 0 {
			delete(h.subscribers, topic)
		}
	}

	return ch, cleanup
}

// Publish sends body to the topic's subscribers and to catch-all subscribers.
// Slow subscribers miss events rather than block the caller.
func (h *Hub) Publish(ctx context.Context, routingKey string, body any) error {
	event := Event{ID: uuid.NewString(), Topic: routingKey, Data: body}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, topic := range []string{routingKey, ""} {
		for ch := range h.subscribers[topic] {
			select {
			case ch <- event:
			default:
			}
		}
	}
	return nil
}

// Close drops every subscriber, ending their streams.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, topic)
	}
	return nil
}

// TotalSubscribers returns the total number of active subscribers across all topics
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}
