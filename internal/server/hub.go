// Package server coordinates client registration, room-scoped broadcast, and
// connection cleanup for the QuickDraw WebSocket service via the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventSink is the outbound surface the game coordinator emits through. The
// Hub is the production implementation; tests substitute a recorder.
type EventSink interface {
	// JoinGroup adds a connection to a broadcast group. It is a no-op for
	// unknown connections and for connections already in the group.
	JoinGroup(connID, groupID string)
	// SendTo delivers one event to exactly one connection. It fails silently
	// if the connection no longer exists (disconnect race).
	SendTo(connID, event string, data any)
	// Broadcast delivers one event to every connection currently in the
	// group, in no guaranteed order.
	Broadcast(groupID, event string, data any)
}

// Hub is the connection registry: it tracks every live client by identifier,
// maintains named broadcast groups, and fans events out to client send
// buffers. All registry state is guarded by a single RWMutex; delivery never
// blocks on a slow client.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]*Client
	wg      sync.WaitGroup
}

// NewHub creates an empty Hub ready to accept client registrations.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]*Client),
	}
}

// Register adds a client to the registry and launches its read/write pumps.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	total := len(h.clients)
	h.mu.Unlock()

	log.Info().
		Str("connection_id", c.ID).
		Str("remote_addr", c.addr).
		Int("total_clients", total).
		Msg("client registered")

	// Socketless clients are registered without pumps.
	if c.conn == nil {
		return
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()
}

// Unregister removes a client from the registry and from every group it
// belonged to, closes its send buffer, and returns the identifiers of the
// affected groups so the coordinator can react. Calling it again for the same
// client is a no-op returning nil.
func (h *Hub) Unregister(c *Client) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	delete(h.clients, c.ID)

	var affected []string
	for groupID, members := range h.groups {
		if _, ok := members[c.ID]; !ok {
			continue
		}
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.groups, groupID)
		}
		affected = append(affected, groupID)
	}

	// Safe under the lock: deliver checks c.closed before sending.
	close(c.send)

	log.Info().
		Str("connection_id", c.ID).
		Int("total_clients", len(h.clients)).
		Msg("client unregistered")
	return affected
}

// JoinGroup implements EventSink.
func (h *Hub) JoinGroup(connID, groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	members, ok := h.groups[groupID]
	if !ok {
		members = make(map[string]*Client)
		h.groups[groupID] = members
	}
	members[connID] = c
}

// SendTo implements EventSink.
func (h *Hub) SendTo(connID, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}

	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.deliver(c, payload, event)
}

// Broadcast implements EventSink.
func (h *Hub) Broadcast(groupID, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.groups[groupID]))
	for _, c := range h.groups[groupID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		h.deliver(c, payload, event)
	}

	log.Debug().
		Str("event", event).
		Str("group_id", groupID).
		Int("connections", len(members)).
		Msg("event broadcast")
}

// deliver queues a frame on one client's send buffer without blocking. A full
// buffer means the client has stopped draining; its connection is closed and
// the read pump's exit path performs the full unregister.
func (h *Hub) deliver(c *Client, payload []byte, event string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Warn().
			Str("connection_id", c.ID).
			Str("event", event).
			Msg("send buffer full, dropping connection")
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// Shutdown closes every client connection and waits for all pump goroutines
// to finish, or for the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if c.conn == nil {
			continue
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Warn().Err(err).Str("connection_id", c.ID).Msg("error closing client connection")
		}
	}
	log.Info().Int("connections", len(clients)).Msg("closed client connections")

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		log.Warn().Msg("hub shutdown timeout reached")
		return context.DeadlineExceeded
	}
}
