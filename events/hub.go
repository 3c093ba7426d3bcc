package events

import (
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

type Type string

const (
	Status      Type = "status"
	SyncStarted Type = "sync.started"
	SyncDone    Type = "sync.done"
	SyncFailed  Type = "sync.failed"
)

// Event is a sync status change pushed to connected clients.
type Event struct {
	Type     Type   `json:"type"`
	LastSync string `json:"lastSync,omitempty"` // ISO-8601, empty if never synced
	Status   string `json:"status,omitempty"`
	Rules    int    `json:"rules"`
	Error    string `json:"error,omitempty"`
}

// Hub fans events out to subscribers. Slow subscribers drop events rather
// than block the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber. The channel is closed by Unsubscribe
// or Close.
func (h *Hub) Subscribe() (string, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return "", ch
	}
	id := uuid.New().String()
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes id and closes its channel. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber channel; later subscribers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}
