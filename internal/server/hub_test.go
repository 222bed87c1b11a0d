package server_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mgaraya/quickdraw/internal/server"
)

func newTestClient(t *testing.T, hub *server.Hub) *server.Client {
	t.Helper()
	c := server.NewClient(nil, hub, server.NewCoordinator(hub), "127.0.0.1:12345", server.NewConfig())
	hub.Register(c)
	return c
}

// readFrame pops one queued frame off a client's send buffer and decodes it.
func readFrame(t *testing.T, c *server.Client) server.Envelope {
	t.Helper()
	select {
	case raw := <-c.GetSendChan():
		var env server.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("Failed to decode queued frame: %v", err)
		}
		return env
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Expected a queued frame, got none")
		return server.Envelope{}
	}
}

func expectNoFrame(t *testing.T, c *server.Client) {
	t.Helper()
	select {
	case raw := <-c.GetSendChan():
		t.Fatalf("Expected no frame, got %s", raw)
	default:
	}
}

func TestHubRegisterAssignsUniqueIDs(t *testing.T) {
	hub := server.NewHub()

	a := newTestClient(t, hub)
	b := newTestClient(t, hub)

	if a.ID == "" || b.ID == "" {
		t.Fatal("Clients must receive non-empty identifiers")
	}
	if a.ID == b.ID {
		t.Errorf("Two clients share the identifier %q", a.ID)
	}
}

func TestHubSendTo(t *testing.T) {
	hub := server.NewHub()
	a := newTestClient(t, hub)
	b := newTestClient(t, hub)

	hub.SendTo(a.ID, server.EventRoomError, "nope")

	env := readFrame(t, a)
	if env.Event != server.EventRoomError {
		t.Errorf("Expected event %q, got %q", server.EventRoomError, env.Event)
	}
	var msg string
	if err := json.Unmarshal(env.Data, &msg); err != nil || msg != "nope" {
		t.Errorf("Expected string payload \"nope\", got %s", env.Data)
	}
	expectNoFrame(t, b)

	// Unknown connections fail silently (disconnect race).
	hub.SendTo("ghost", server.EventRoomError, "nope")
}

func TestHubBroadcastReachesGroupOnly(t *testing.T) {
	hub := server.NewHub()
	a := newTestClient(t, hub)
	b := newTestClient(t, hub)
	outsider := newTestClient(t, hub)

	hub.JoinGroup(a.ID, "room-1")
	hub.JoinGroup(b.ID, "room-1")
	// Joining twice is a no-op, not a double subscription.
	hub.JoinGroup(a.ID, "room-1")
	hub.JoinGroup(outsider.ID, "room-2")

	hub.Broadcast("room-1", server.EventGameStarted, nil)

	for _, c := range []*server.Client{a, b} {
		env := readFrame(t, c)
		if env.Event != server.EventGameStarted {
			t.Errorf("Expected gameStarted, got %q", env.Event)
		}
		if len(env.Data) != 0 {
			t.Errorf("gameStarted must have no data, got %s", env.Data)
		}
	}
	expectNoFrame(t, a)
	expectNoFrame(t, outsider)

	// Broadcasting to an unknown group is a no-op.
	hub.Broadcast("room-9", server.EventGameStarted, nil)
}

func TestHubJoinGroupIgnoresUnknownConnection(t *testing.T) {
	hub := server.NewHub()
	a := newTestClient(t, hub)

	hub.JoinGroup("ghost", "room-1")
	hub.JoinGroup(a.ID, "room-1")

	hub.Broadcast("room-1", server.EventGameStarted, nil)
	readFrame(t, a)
}

func TestHubUnregister(t *testing.T) {
	hub := server.NewHub()
	a := newTestClient(t, hub)
	b := newTestClient(t, hub)

	hub.JoinGroup(a.ID, "room-1")
	hub.JoinGroup(b.ID, "room-1")
	hub.JoinGroup(a.ID, "room-2")

	affected := hub.Unregister(a)
	if len(affected) != 2 {
		t.Fatalf("Expected both groups reported, got %v", affected)
	}
	groups := map[string]bool{}
	for _, g := range affected {
		groups[g] = true
	}
	if !groups["room-1"] || !groups["room-2"] {
		t.Errorf("Expected room-1 and room-2, got %v", affected)
	}

	// The departed client is unreachable, the survivor still gets events.
	hub.SendTo(a.ID, server.EventRoomError, "gone")
	hub.Broadcast("room-1", server.EventGameStarted, nil)
	readFrame(t, b)

	// Unregistering again is a no-op.
	if again := hub.Unregister(a); again != nil {
		t.Errorf("Second unregister reported groups: %v", again)
	}
}

func TestHubShutdownWithoutClients(t *testing.T) {
	hub := server.NewHub()
	if err := hub.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown of an idle hub failed: %v", err)
	}
}
