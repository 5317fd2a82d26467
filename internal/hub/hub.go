// Package hub owns the room registry and the session store and exposes
// the operations the transport layer calls. It is constructed once at
// startup and injected into every handler; nothing here is global.
package hub

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/baloot-online/server/internal/card"
	"github.com/baloot-online/server/internal/events"
	"github.com/baloot-online/server/internal/room"
	"github.com/baloot-online/server/internal/session"
	"github.com/baloot-online/server/pkg/types"
)

var ErrRoomNotFound = errors.New("room not found")

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room

	sessions *session.Store
	eventCap int
	logger   *zap.Logger
}

func New(sessions *session.Store, eventCap int, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]*room.Room),
		sessions: sessions,
		eventCap: eventCap,
		logger:   logger,
	}
}

// CreateOrGetRoom returns the room for an identifier, creating it on
// first reference.
func (h *Hub) CreateOrGetRoom(roomID string) *room.Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rm, ok := h.rooms[roomID]; ok {
		return rm
	}
	rm := room.New(roomID, events.NewLog(h.eventCap), h.logger)
	h.rooms[roomID] = rm
	h.logger.Info("room created", zap.String("room_id", roomID))
	return rm
}

func (h *Hub) getRoom(roomID string) (*room.Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rm, ok := h.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// removeIfEmpty destroys a room whose last seat emptied, along with its
// sessions.
func (h *Hub) removeIfEmpty(roomID string) {
	rm, err := h.getRoom(roomID)
	if err != nil || !rm.Empty() {
		return
	}
	h.mu.Lock()
	delete(h.rooms, roomID)
	h.mu.Unlock()
	h.sessions.DropRoom(roomID)
	h.logger.Info("room destroyed", zap.String("room_id", roomID))
}

// ResolveSession maps a token to its (room, seat, identity) triple.
func (h *Hub) ResolveSession(token string) (session.Session, error) {
	return h.sessions.Resolve(token)
}

// AddPlayer seats an identity in the room, creating the room if needed,
// and issues the session the client uses from then on.
func (h *Hub) AddPlayer(roomID, identity, name string) (session.Session, error) {
	rm := h.CreateOrGetRoom(roomID)
	seat, err := rm.AddPlayer(identity, name)
	if err != nil {
		h.removeIfEmpty(roomID)
		return session.Session{}, err
	}
	return h.sessions.Create(roomID, seat, identity), nil
}

// MarkReady flags a seat ready; the room starts the round when all four
// are ready.
func (h *Hub) MarkReady(roomID string, seat int) (bool, error) {
	rm, err := h.getRoom(roomID)
	if err != nil {
		return false, err
	}
	return rm.MarkReady(seat)
}

// PlayCard applies one play for a seat.
func (h *Hub) PlayCard(roomID string, seat int, c card.Card) error {
	rm, err := h.getRoom(roomID)
	if err != nil {
		return err
	}
	return rm.PlayCard(seat, c)
}

// Disconnect handles a dropped session. Outside IN_PROGRESS the seat is
// vacated; during IN_PROGRESS the room pauses and the bounded forfeit
// timer is armed.
func (h *Hub) Disconnect(token string) error {
	sess, err := h.sessions.Resolve(token)
	if err != nil {
		return err
	}
	rm, err := h.getRoom(sess.RoomID)
	if err != nil {
		return err
	}

	paused, err := rm.Disconnect(sess.Seat)
	if err != nil {
		return err
	}
	if !paused {
		// Not mid-round: a disconnect is just a leave.
		if err := rm.RemovePlayer(sess.Seat); err != nil && !errors.Is(err, room.ErrSeatNotFound) {
			return err
		}
		h.sessions.Drop(token)
		h.removeIfEmpty(sess.RoomID)
		return nil
	}

	roomID, seat := sess.RoomID, sess.Seat
	h.sessions.ScheduleForfeit(roomID, seat, func() {
		rm.Forfeit(seat, "disconnect grace expired")
	})
	return nil
}

// Reconnect resumes a paused seat: the prior session (or its stored
// identity) resolves the seat, the forfeit timer is cancelled, the
// token rotates, and the caller gets a snapshot scoped to that seat only.
func (h *Hub) Reconnect(oldToken, roomID string) (types.ReconnectResponse, error) {
	sess, err := h.sessions.Resolve(oldToken)
	if err != nil || sess.RoomID != roomID {
		return types.ReconnectResponse{}, session.ErrInvalidSession
	}
	rm, err := h.getRoom(roomID)
	if err != nil {
		return types.ReconnectResponse{}, err
	}

	// The seat is re-resolved by identity rather than trusted from the
	// stale session record.
	seat, err := rm.SeatOf(sess.Identity)
	if err != nil {
		return types.ReconnectResponse{}, err
	}
	h.sessions.CancelForfeit(roomID, seat)
	if err := rm.Reconnect(seat); err != nil {
		return types.ReconnectResponse{}, err
	}
	next, err := h.sessions.Rotate(oldToken, seat)
	if err != nil {
		return types.ReconnectResponse{}, err
	}
	snap, err := rm.SeatSnapshot(seat)
	if err != nil {
		return types.ReconnectResponse{}, err
	}
	return types.ReconnectResponse{Session: next.Token, Snapshot: snap}, nil
}

// RoomStateView returns the public snapshot with no hidden hands.
func (h *Hub) RoomStateView(roomID string) (types.RoomView, error) {
	rm, err := h.getRoom(roomID)
	if err != nil {
		return types.RoomView{}, err
	}
	return rm.View(), nil
}

// SeatState returns the snapshot scoped to the session's own seat.
func (h *Hub) SeatState(token string) (types.SeatSnapshot, error) {
	sess, err := h.sessions.Resolve(token)
	if err != nil {
		return types.SeatSnapshot{}, err
	}
	rm, err := h.getRoom(sess.RoomID)
	if err != nil {
		return types.SeatSnapshot{}, err
	}
	return rm.SeatSnapshot(sess.Seat)
}

// DrainEvents returns every retained event newer than since.
func (h *Hub) DrainEvents(roomID string, since int64) ([]events.Event, error) {
	rm, err := h.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	return rm.Log().Since(since), nil
}

// WaitEvents blocks until events newer than since exist or ctx ends.
// The wait runs against the log's notifier, outside every room lock.
func (h *Hub) WaitEvents(ctx context.Context, roomID string, since int64) ([]events.Event, error) {
	rm, err := h.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	return rm.Log().Wait(ctx, since), nil
}
