// Package server wires HTTP handlers into a ServeMux for the QuickDraw
// application via routing helpers.
package server

import (
	"net/http"

	"github.com/rs/cors"
)

// SetupRoutes configures the application routes: the WebSocket endpoint, the
// health check, the built-in test page, and the static front-end assets at
// the root. The returned handler is wrapped with CORS middleware honoring the
// configured origins.
func SetupRoutes(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.WebSocket)
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/test", h.TestPage)
	mux.Handle("/", http.FileServer(http.Dir(h.cfg.StaticDir)))

	c := cors.New(cors.Options{
		AllowedOrigins: h.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(mux)
}
