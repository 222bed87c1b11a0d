package server_test

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/mgaraya/quickdraw/internal/server"
)

func expectNoEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	if _, raw, err := conn.ReadMessage(); err == nil {
		t.Fatalf("Expected no frame, got %s", raw)
	}
}

// TestRateLimitOverWebSocket pins the per-connection token bucket to a fake
// clock and verifies that frames beyond the burst are discarded without
// closing the connection, and that advancing the clock refills the bucket.
func TestRateLimitOverWebSocket(t *testing.T) {
	clock := clockwork.NewFakeClock()
	_, wsURL := newGameServer(t, func(cfg *server.Config) {
		cfg.Clock = clock
		cfg.RateLimit = server.RateLimitConfig{
			Burst:          2,
			RefillInterval: time.Second,
		}
	})

	conn := dialGame(t, wsURL)

	// The burst admits two events; the third arrives with the clock frozen
	// and is dropped. gorilla/websocket makes read errors permanent, so the
	// only negative read must come last: collect the two admitted responses
	// first, then refill, then prove the dropped frame never answered.
	for i := 0; i < 3; i++ {
		sendEvent(t, conn, server.EventCreateRoom, server.CreateRoomRequest{PlayerName: "Eve"})
	}
	var created server.RoomSnapshot
	expectEvent(t, conn, server.EventRoomCreated, &created)
	expectEvent(t, conn, server.EventRoomCreated, &created)

	// Refilled tokens admit events again on the same connection.
	clock.Advance(time.Second)
	sendEvent(t, conn, server.EventCreateRoom, server.CreateRoomRequest{PlayerName: "Eve"})
	expectEvent(t, conn, server.EventRoomCreated, &created)
	if created.RoomID == "" {
		t.Error("Expected a room code after the bucket refilled")
	}

	// Exactly three rooms were created: the frozen-clock third frame was
	// discarded and never produces a response.
	expectNoEvent(t, conn, 300*time.Millisecond)
}
