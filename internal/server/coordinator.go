// Package server implements the game state machine in the Coordinator type:
// room lifecycle, round transitions, and the event fan-out they trigger.
package server

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// joinErrorMessage is the single caller-visible failure in the protocol.
const joinErrorMessage = "Invalid room or game already in progress."

// Coordinator owns all room state and applies every game transition. Each
// inbound event is handled to completion under one mutex, so handlers are
// atomic with respect to room state: two simultaneous presses serialize and
// at most one winner is ever chosen per round.
type Coordinator struct {
	mu       sync.Mutex
	sink     EventSink
	rooms    map[string]*Room
	handlers map[string]func(connID string, data json.RawMessage)
}

// NewCoordinator creates a Coordinator that emits outbound events through
// sink.
func NewCoordinator(sink EventSink) *Coordinator {
	co := &Coordinator{
		sink:  sink,
		rooms: make(map[string]*Room),
	}
	co.handlers = map[string]func(string, json.RawMessage){
		EventCreateRoom:  co.handleCreateRoom,
		EventJoinRoom:    co.handleJoinRoom,
		EventStartGame:   co.handleStartGame,
		EventPressButton: co.handlePressButton,
		EventResetGame:   co.handleResetGame,
	}
	return co
}

// Dispatch routes an inbound envelope to the handler registered for its event
// name. Unknown events are logged and ignored; nothing is fatal.
func (co *Coordinator) Dispatch(connID string, env Envelope) {
	handler, ok := co.handlers[env.Event]
	if !ok {
		log.Debug().
			Str("connection_id", connID).
			Str("event", env.Event).
			Msg("ignoring unknown event")
		return
	}

	co.mu.Lock()
	defer co.mu.Unlock()
	handler(connID, env.Data)
}

// Disconnected removes a departed connection from each room it belonged to.
// A room left empty is deleted; otherwise the remaining players are notified.
// The rooms slice comes from Hub.Unregister.
func (co *Coordinator) Disconnected(connID string, rooms []string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	for _, roomID := range rooms {
		room, ok := co.rooms[roomID]
		if !ok {
			continue
		}
		if !room.removePlayer(connID) {
			continue
		}
		if room.empty() {
			delete(co.rooms, roomID)
			log.Info().Str("room_id", roomID).Msg("room deleted, last player left")
			continue
		}
		co.sink.Broadcast(roomID, EventPlayerLeft, room.snapshot(false))
	}
}

// decode unmarshals an event payload, tolerating absent data the way the
// protocol requires: a missing or malformed payload leaves the zero value.
func decode(data json.RawMessage, v any) {
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Debug().Err(err).Msg("ignoring malformed event payload")
	}
}

func (co *Coordinator) handleCreateRoom(connID string, data json.RawMessage) {
	var req CreateRoomRequest
	decode(data, &req)

	code := newRoomCode()
	room := newRoom(code)
	name := room.addPlayer(connID, req.PlayerName)
	co.rooms[code] = room

	co.sink.JoinGroup(connID, code)
	co.sink.SendTo(connID, EventRoomCreated, room.snapshot(true))

	log.Info().
		Str("room_id", code).
		Str("connection_id", connID).
		Str("player_name", name).
		Msg("room created")
}

func (co *Coordinator) handleJoinRoom(connID string, data json.RawMessage) {
	var req JoinRoomRequest
	decode(data, &req)

	room, ok := co.rooms[req.RoomID]
	if !ok || room.GameActive {
		co.sink.SendTo(connID, EventRoomError, joinErrorMessage)
		return
	}

	name := room.addPlayer(connID, req.PlayerName)
	co.sink.JoinGroup(connID, room.Code)
	co.sink.SendTo(connID, EventRoomJoined, room.snapshot(true))
	co.sink.Broadcast(room.Code, EventPlayerJoined, room.snapshot(false))

	log.Info().
		Str("room_id", room.Code).
		Str("connection_id", connID).
		Str("player_name", name).
		Int("players", len(room.Players)).
		Msg("player joined room")
}

func (co *Coordinator) handleStartGame(connID string, data json.RawMessage) {
	var req RoomRequest
	decode(data, &req)

	// Silent no-op on a missing room or a lobby that is too small.
	room, ok := co.rooms[req.RoomID]
	if !ok || len(room.Players) < 2 {
		return
	}

	room.GameActive = true
	room.Winner = ""
	co.sink.Broadcast(room.Code, EventGameStarted, nil)

	log.Info().Str("room_id", room.Code).Str("connection_id", connID).Msg("round started")
}

func (co *Coordinator) handlePressButton(connID string, data json.RawMessage) {
	var req RoomRequest
	decode(data, &req)

	room, ok := co.rooms[req.RoomID]
	if !ok || !room.GameActive {
		return
	}
	if room.Winner != "" {
		// Round already resolved; later presses are no-ops.
		return
	}

	room.Winner = connID
	snap := room.snapshot(false)
	co.sink.Broadcast(room.Code, EventGameResult, GameResultPayload{
		Winner:      connID,
		WinnerName:  room.PlayerNames[connID],
		Players:     snap.Players,
		PlayerNames: snap.PlayerNames,
	})

	log.Info().
		Str("room_id", room.Code).
		Str("winner", connID).
		Msg("round won")
}

func (co *Coordinator) handleResetGame(connID string, data json.RawMessage) {
	var req RoomRequest
	decode(data, &req)

	room, ok := co.rooms[req.RoomID]
	if !ok {
		return
	}

	room.Winner = ""
	room.GameActive = false
	co.sink.Broadcast(room.Code, EventGameReset, room.snapshot(false))

	log.Info().Str("room_id", room.Code).Str("connection_id", connID).Msg("round reset")
}
