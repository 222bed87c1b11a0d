// Package server holds the Room model: the per-room roster and round state
// owned by the Coordinator.
package server

import (
	"fmt"

	"github.com/google/uuid"
)

const roomCodeLength = 6

// Room is one unit of shared game state. Players holds connection identifiers
// in join order; PlayerNames maps each identifier to its display name. A Room
// exists only while it has at least one player.
type Room struct {
	Code        string
	Players     []string
	PlayerNames map[string]string
	GameActive  bool
	Winner      string
}

func newRoom(code string) *Room {
	return &Room{
		Code:        code,
		Players:     make([]string, 0, 2),
		PlayerNames: make(map[string]string),
	}
}

// newRoomCode derives a short room code from a fresh UUID. Codes are not
// checked for collision against existing rooms.
func newRoomCode() string {
	return uuid.NewString()[:roomCodeLength]
}

// addPlayer appends a player to the roster and returns the display name that
// was assigned. An empty name defaults to "Player <n>" where n is the 1-based
// roster position at the moment of joining; later departures do not renumber.
func (r *Room) addPlayer(connID, name string) string {
	r.Players = append(r.Players, connID)
	if name == "" {
		name = fmt.Sprintf("Player %d", len(r.Players))
	}
	r.PlayerNames[connID] = name
	return name
}

// removePlayer drops every roster entry for a player. Joining the same room
// twice records the connection twice, so removal must sweep the whole slice
// or a ghost entry would keep an abandoned room alive. It reports whether the
// player was a member.
func (r *Room) removePlayer(connID string) bool {
	kept := r.Players[:0]
	removed := false
	for _, id := range r.Players {
		if id == connID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	r.Players = kept
	if removed {
		delete(r.PlayerNames, connID)
	}
	return removed
}

func (r *Room) empty() bool {
	return len(r.Players) == 0
}

// snapshot copies the roster into an outbound payload so later mutations
// cannot race with in-flight serialization. withCode includes the room code
// for caller-directed replies.
func (r *Room) snapshot(withCode bool) RoomSnapshot {
	snap := RoomSnapshot{
		Players:     append([]string(nil), r.Players...),
		PlayerNames: make(map[string]string, len(r.PlayerNames)),
	}
	for id, name := range r.PlayerNames {
		snap.PlayerNames[id] = name
	}
	if withCode {
		snap.RoomID = r.Code
	}
	return snap
}
