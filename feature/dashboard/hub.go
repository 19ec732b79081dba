package dashboard

import (
	"sync"
	"time"

	"jsoncache/core/cache"

	"go.uber.org/zap"
)

// Event types pushed to dashboard clients.
const (
	EventStats  = "stats"
	EventReload = "reload"
)

// Event is one message pushed over the WebSocket.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data"`
}

// Client is a connected dashboard stream.
type Client interface {
	WriteJSON(v any) error
}

// Hub fans events out to connected clients. Writes are serialized, so clients need
// not be safe for concurrent use. A client whose write fails is dropped.
type Hub struct {
	mu       sync.Mutex
	clients  map[Client]struct{}
	stats    func() cache.GlobalStats
	onChange func(int)
	logger   *zap.Logger
}

// NewHub creates a hub. stats is called for every stats event.
func NewHub(stats func() cache.GlobalStats, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[Client]struct{}),
		stats:   stats,
		logger:  logger,
	}
}

// OnClientsChange registers a callback receiving the client count after every change.
func (h *Hub) OnClientsChange(fn func(int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

// Register adds a client and sends it the current statistics.
func (h *Hub) Register(c Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := c.WriteJSON(h.statsEvent()); err != nil {
		return err
	}
	h.clients[c] = struct{}{}
	h.changed()
	return nil
}

// Unregister removes a client.
func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		h.changed()
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// SendStats writes the current statistics to one registered client.
func (h *Hub) SendStats(c Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return c.WriteJSON(h.statsEvent())
}

// BroadcastStats sends the current statistics to every client.
func (h *Hub) BroadcastStats() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast(h.statsEvent())
}

// BroadcastReload sends a reload result to every client. Its signature matches
// watcher.Listener.
func (h *Hub) BroadcastReload(res cache.ReloadResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast(Event{Type: EventReload, Time: time.Now(), Data: res})
}

func (h *Hub) statsEvent() Event {
	return Event{Type: EventStats, Time: time.Now(), Data: h.stats()}
}

// broadcast must be called with mu held.
func (h *Hub) broadcast(ev Event) {
	for c := range h.clients {
		if err := c.WriteJSON(ev); err != nil {
			h.logger.Debug("Dropping dashboard client", zap.Error(err))
			delete(h.clients, c)
		}
	}
	h.changed()
}

func (h *Hub) changed() {
	if h.onChange != nil {
		h.onChange(len(h.clients))
	}
}
