package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baloot-online/server/internal/ws"
)

// SetupRoutes builds the router with the API and websocket stream bound
// to the injected hub.
func SetupRoutes(a *API, stream *ws.Stream) http.Handler {
	r := chi.NewRouter()

	r.Post("/api/join", a.Join)
	r.Post("/api/ready", a.Ready)
	r.Post("/api/play_card", a.PlayCard)
	r.Post("/api/leave", a.Leave)
	r.Post("/api/reconnect", a.Reconnect)
	r.Get("/api/poll", a.Poll)
	r.Get("/api/state", a.SeatState)
	r.Get("/api/room/{roomID}", func(w http.ResponseWriter, req *http.Request) {
		a.RoomState(w, req, chi.URLParam(req, "roomID"))
	})
	r.Get("/ws", stream.Handler)
	r.Get("/healthz", a.Healthz)
	return r
}
