// Package server defines the wire protocol shared by clients and the game
// coordinator: the JSON envelope and the payload types for every named event.
package server

import (
	"encoding/json"
	"strings"
)

// Inbound event names accepted from clients.
const (
	EventCreateRoom  = "createRoom"
	EventJoinRoom    = "joinRoom"
	EventStartGame   = "startGame"
	EventPressButton = "pressButton"
	EventResetGame   = "resetGame"
)

// Outbound event names emitted by the coordinator.
const (
	EventRoomCreated  = "roomCreated"
	EventRoomJoined   = "roomJoined"
	EventRoomError    = "roomError"
	EventPlayerJoined = "playerJoined"
	EventGameStarted  = "gameStarted"
	EventGameResult   = "gameResult"
	EventGameReset    = "gameReset"
	EventPlayerLeft   = "playerLeft"
)

// Envelope is the frame exchanged over the WebSocket: a named event plus an
// event-specific JSON payload. Events without a payload omit the data field.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CreateRoomRequest is the payload of a createRoom event.
type CreateRoomRequest struct {
	PlayerName string `json:"playerName"`
}

// JoinRoomRequest is the payload of a joinRoom event.
type JoinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

// RoomRequest is the payload of the startGame, pressButton, and resetGame
// events, which address a room without further arguments.
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

// RoomSnapshot is the roster view sent with roomCreated, roomJoined,
// playerJoined, gameReset, and playerLeft events. RoomID is only populated on
// the caller-directed roomCreated/roomJoined replies.
type RoomSnapshot struct {
	RoomID      string            `json:"roomId,omitempty"`
	Players     []string          `json:"players"`
	PlayerNames map[string]string `json:"playerNames"`
}

// GameResultPayload announces the round winner to a room.
type GameResultPayload struct {
	Winner      string            `json:"winner"`
	WinnerName  string            `json:"winnerName"`
	Players     []string          `json:"players"`
	PlayerNames map[string]string `json:"playerNames"`
}

// encodeEvent marshals an event name and payload into a wire-ready frame.
// A nil payload produces an envelope without a data field.
func encodeEvent(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
