// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait bounds a single outbound write.
	writeWait = 10 * time.Second
	// pongWait is how long a connection may stay silent before it is
	// considered dead and reaped.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// sendBufferSize is the per-client outbound queue depth.
	sendBufferSize = 256
)

// Client represents one connected player: a WebSocket connection bound to a
// fresh identifier for the lifetime of the session. Inbound frames are
// decoded and handed to the coordinator; outbound frames arrive through the
// buffered send channel.
type Client struct {
	ID          string
	conn        *websocket.Conn
	send        chan []byte
	hub         *Hub
	coordinator *Coordinator
	addr        string

	// closed is guarded by the hub mutex.
	closed bool

	maxMessageSize int64
	limiter        *rateLimiter
	rateLimit      RateLimitConfig
}

// NewClient allocates a client with a fresh connection identifier. The caller
// is expected to hand it to Hub.Register, which starts the pumps.
func NewClient(conn *websocket.Conn, hub *Hub, coordinator *Coordinator, addr string, cfg Config) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	return &Client{
		ID:             uuid.NewString(),
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		hub:            hub,
		coordinator:    coordinator,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
		limiter:        newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval, cfg.clock()),
		rateLimit:      cfg.RateLimit,
	}
}

// GetSendChan returns the client's send channel for reading outgoing frames.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("error setting read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// logReadError classifies a read failure; every read failure ends the pump.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Warn().
			Str("connection_id", c.ID).
			Int64("max_message_size", c.maxMessageSize).
			Msg("inbound frame exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Info().Str("connection_id", c.ID).Msg("client disconnected")
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		log.Info().Str("connection_id", c.ID).Msg("connection closed")
	default:
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("websocket read error")
	}
}

// handleFrame decodes one inbound frame and dispatches it to the coordinator.
// Undecodable frames are dropped without closing the connection.
func (c *Client) handleFrame(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("dropping malformed frame")
		return
	}
	c.coordinator.Dispatch(c.ID, env)
}

// readPump drains the connection until it dies, then unregisters the client
// and tells the coordinator which rooms were affected. Handlers run on this
// goroutine, so one connection's events are processed strictly in order.
func (c *Client) readPump() {
	defer func() {
		affected := c.hub.Unregister(c)
		c.coordinator.Disconnected(c.ID, affected)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Warn().Err(err).Str("connection_id", c.ID).Msg("error closing connection")
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.limiter.allow() {
			log.Warn().
				Str("connection_id", c.ID).
				Int("burst", c.rateLimit.Burst).
				Dur("refill_interval", c.rateLimit.RefillInterval).
				Msg("rate limit exceeded, discarding frame")
			continue
		}

		c.handleFrame(raw)
	}
}

// writePump flushes the send buffer to the connection and keeps the session
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Warn().Err(err).Str("connection_id", c.ID).Msg("error closing connection")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("connection_id", c.ID).Msg("error setting write deadline")
				return
			}
			if !ok {
				// Unregister closed the buffer.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					log.Debug().Err(err).Str("connection_id", c.ID).Msg("error writing close message")
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !isExpectedCloseError(err) {
					log.Warn().Err(err).Str("connection_id", c.ID).Msg("error writing frame")
				}
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("connection_id", c.ID).Msg("error setting write deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
