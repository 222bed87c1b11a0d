// Package server exposes HTTP handlers, including the WebSocket upgrade,
// health check, and the built-in test page.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Handler bundles the upgrade path's collaborators: configuration, the
// connection registry, and the game coordinator. It is constructed once in
// main and wired into the mux.
type Handler struct {
	cfg         Config
	hub         *Hub
	coordinator *Coordinator
	upgrader    websocket.Upgrader
}

// NewHandler creates the HTTP handler set for the given configuration, hub,
// and coordinator.
func NewHandler(cfg Config, hub *Hub, coordinator *Coordinator) *Handler {
	origins := newOriginPolicy(cfg.AllowedOrigins)
	return &Handler{
		cfg:         cfg,
		hub:         hub,
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
	}
}

// WebSocket handles upgrade requests and brings new player connections into
// the registry, which starts their read/write pumps.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(conn, h.hub, h.coordinator, r.RemoteAddr, h.cfg)
	h.hub.Register(client)
}

// Health provides a plain-text liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "QuickDraw server is running!")
}

// TestPage serves a minimal browser client for exercising the game without
// deployed front-end assets: create or join a room, start a round, and race
// for the button.
func (h *Handler) TestPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPageHTML); err != nil {
		log.Warn().Err(err).Msg("error writing test page response")
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>QuickDraw Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; max-width: 480px; }
        input { padding: 5px; margin: 2px; }
        button { padding: 5px 15px; margin: 2px; cursor: pointer; }
        #press { font-size: 2em; padding: 30px; width: 100%; display: none; }
        #log { border: 1px solid #ccc; height: 240px; overflow-y: scroll;
               padding: 8px; margin-top: 10px; background: #f9f9f9; }
    </style>
</head>
<body>
    <h1>QuickDraw</h1>
    <div>
        <input type="text" id="name" placeholder="Your name">
        <button onclick="createRoom()">Create room</button>
    </div>
    <div>
        <input type="text" id="room" placeholder="Room code">
        <button onclick="joinRoom()">Join room</button>
        <button onclick="startGame()">Start round</button>
        <button onclick="resetGame()">Reset</button>
    </div>
    <button id="press" onclick="press()">PRESS!</button>
    <div id="log"></div>

    <script>
        let roomId = null;
        const ws = new WebSocket('ws://' + location.host + '/ws');
        const logDiv = document.getElementById('log');
        const pressBtn = document.getElementById('press');

        function show(text) {
            const line = document.createElement('div');
            line.textContent = text;
            logDiv.appendChild(line);
            logDiv.scrollTop = logDiv.scrollHeight;
        }

        function send(event, data) {
            ws.send(JSON.stringify({ event: event, data: data }));
        }

        function createRoom() {
            send('createRoom', { playerName: document.getElementById('name').value });
        }
        function joinRoom() {
            send('joinRoom', {
                roomId: document.getElementById('room').value,
                playerName: document.getElementById('name').value
            });
        }
        function startGame() { send('startGame', { roomId: roomId }); }
        function press() { send('pressButton', { roomId: roomId }); }
        function resetGame() { send('resetGame', { roomId: roomId }); }

        ws.onopen = function() { show('Connected'); };
        ws.onclose = function() { show('Disconnected'); };
        ws.onmessage = function(msg) {
            const frame = JSON.parse(msg.data);
            switch (frame.event) {
            case 'roomCreated':
            case 'roomJoined':
                roomId = frame.data.roomId;
                document.getElementById('room').value = roomId;
                show('In room ' + roomId + ' with ' + frame.data.players.length + ' player(s)');
                break;
            case 'playerJoined':
                show('Player joined (' + frame.data.players.length + ' total)');
                break;
            case 'gameStarted':
                pressBtn.style.display = 'block';
                show('GO!');
                break;
            case 'gameResult':
                pressBtn.style.display = 'none';
                show('Winner: ' + frame.data.winnerName);
                break;
            case 'gameReset':
                pressBtn.style.display = 'none';
                show('Round reset');
                break;
            case 'playerLeft':
                show('Player left (' + frame.data.players.length + ' remain)');
                break;
            case 'roomError':
                show('Error: ' + frame.data);
                break;
            }
        };
    </script>
</body>
</html>`
