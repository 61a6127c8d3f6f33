package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 5
	maxTotalConns   = 1000
)

var (
	ErrUserConnLimit   = errors.New("user connection limit reached")
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrHubClosed       = errors.New("hub is shutting down")
)

// Hub tracks admin websocket clients by user ID and fans activity out to all of them.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Client]struct{})}
}

// Register adds a connection for userID. It fails when limits are exceeded.
func (h *Hub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.ActiveWebSockets.Inc()
	return client, nil
}

// UnregisterClient removes client and closes its send channel. It is safe to call twice.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.totalConns--
	observability.ActiveWebSockets.Dec()
	close(client.Send)
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// StartWiring forwards every admin activity event from n to the connected clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(channel, payload string) {
		if channel != AdminActivityChannel {
			middleware.Logger.Warn("unexpected activity channel", slog.String("channel", channel))
			return
		}
		h.BroadcastAll(payload)
	})
}

// Shutdown closes every send channel, which makes each WritePump send a close
// frame and exit. New registrations are refused afterwards.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for userID, clients := range h.conns {
		for c := range clients {
			close(c.Send)
			h.totalConns--
			observability.ActiveWebSockets.Dec()
		}
		delete(h.conns, userID)
	}
	return nil
}
