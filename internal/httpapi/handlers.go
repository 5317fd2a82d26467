package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/baloot-online/server/internal/engine"
	"github.com/baloot-online/server/internal/hub"
	"github.com/baloot-online/server/internal/room"
	"github.com/baloot-online/server/internal/session"
	"github.com/baloot-online/server/pkg/types"
)

type API struct {
	hub         *hub.Hub
	pollTimeout time.Duration
	logger      *zap.Logger
}

func NewAPI(h *hub.Hub, pollTimeout time.Duration, logger *zap.Logger) *API {
	return &API{hub: h, pollTimeout: pollTimeout, logger: logger}
}

func (a *API) Join(w http.ResponseWriter, r *http.Request) {
	var req types.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" || req.Identity == "" {
		writeError(w, http.StatusBadRequest, "room_id and identity required")
		return
	}
	if req.Name == "" {
		req.Name = "Player"
	}

	sess, err := a.hub.AddPlayer(req.RoomID, req.Identity, req.Name)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	view, err := a.hub.RoomStateView(req.RoomID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.JoinResponse{
		Session: sess.Token,
		Seat:    sess.Seat,
		Team:    string(engine.TeamForSeat(sess.Seat)),
		Room:    view,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	var req types.ReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	sess, err := a.hub.ResolveSession(req.Session)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	all, err := a.hub.MarkReady(sess.RoomID, sess.Seat)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ReadyResponse{AllReady: all})
}

func (a *API) PlayCard(w http.ResponseWriter, r *http.Request) {
	var req types.PlayCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if !req.Card.Valid() {
		writeError(w, http.StatusBadRequest, "unknown card")
		return
	}
	sess, err := a.hub.ResolveSession(req.Session)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	if err := a.hub.PlayCard(sess.RoomID, sess.Seat, req.Card); err != nil {
		a.writeDomainError(w, err)
		return
	}
	snap, err := a.hub.SeatState(req.Session)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) Leave(w http.ResponseWriter, r *http.Request) {
	var req types.LeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := a.hub.Disconnect(req.Session); err != nil {
		a.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) Reconnect(w http.ResponseWriter, r *http.Request) {
	var req types.ReconnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	resp, err := a.hub.Reconnect(req.Session, req.RoomID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Poll is the long-poll drain: it blocks up to the poll timeout for
// events newer than since, outside every room lock.
func (a *API) Poll(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("session")
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)

	sess, err := a.hub.ResolveSession(token)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.pollTimeout)
	defer cancel()
	evs, err := a.hub.WaitEvents(ctx, sess.RoomID, since)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	last := since
	if len(evs) > 0 {
		last = evs[len(evs)-1].Timestamp
	}
	writeJSON(w, http.StatusOK, types.EventsResponse{Events: evs, LastTimestamp: last})
}

func (a *API) SeatState(w http.ResponseWriter, r *http.Request) {
	snap, err := a.hub.SeatState(r.URL.Query().Get("session"))
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) RoomState(w http.ResponseWriter, r *http.Request, roomID string) {
	view, err := a.hub.RoomStateView(roomID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// writeDomainError maps core error kinds onto HTTP statuses. Every kind
// is a recoverable caller-facing validation failure.
func (a *API) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hub.ErrRoomNotFound), errors.Is(err, room.ErrSeatNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrInvalidSession):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, room.ErrRoomFull),
		errors.Is(err, room.ErrDuplicateIdentity),
		errors.Is(err, room.ErrMatchOver):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, room.ErrRoomPaused),
		errors.Is(err, room.ErrRoundNotActive),
		errors.Is(err, engine.ErrWrongTurn),
		errors.Is(err, engine.ErrCardNotHeld),
		errors.Is(err, engine.ErrIllegalPlay),
		errors.Is(err, engine.ErrTrickNotComplete),
		errors.Is(err, engine.ErrTrickUnresolved),
		errors.Is(err, engine.ErrRoundOver):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error("unhandled api error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
