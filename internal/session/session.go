// Package session maps opaque tokens to (room, seat, identity) and owns
// the disconnect grace timers. Tokens rotate on reconnect; a timer that
// fires after its reconnect cancelled it is a no-op.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// Session ties an opaque token to one seat in one room.
type Session struct {
	Token    string
	RoomID   string
	Seat     int
	Identity string
}

type pendingForfeit struct {
	timer *time.Timer
	gen   uint64
}

// Store is the process-owned session registry, constructed at startup
// and injected into the hub; there is no package-level state.
type Store struct {
	mu       sync.Mutex
	byToken  map[string]Session
	forfeits map[string]*pendingForfeit
	gen      uint64
	grace    time.Duration
	logger   *zap.Logger
}

func NewStore(grace time.Duration, logger *zap.Logger) *Store {
	return &Store{
		byToken:  make(map[string]Session),
		forfeits: make(map[string]*pendingForfeit),
		grace:    grace,
		logger:   logger,
	}
}

// Create issues a fresh opaque token for a seat.
func (s *Store) Create(roomID string, seat int, identity string) Session {
	sess := Session{
		Token:    uuid.NewString(),
		RoomID:   roomID,
		Seat:     seat,
		Identity: identity,
	}
	s.mu.Lock()
	s.byToken[sess.Token] = sess
	s.mu.Unlock()
	return sess
}

// Resolve looks a token up.
func (s *Store) Resolve(token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byToken[token]
	if !ok {
		return Session{}, ErrInvalidSession
	}
	return sess, nil
}

// Rotate invalidates the old token and issues a new one for the same
// seat. The reconnecting client must switch to the returned session.
func (s *Store) Rotate(oldToken string, seat int) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byToken[oldToken]
	if !ok {
		return Session{}, ErrInvalidSession
	}
	delete(s.byToken, oldToken)
	next := Session{
		Token:    uuid.NewString(),
		RoomID:   old.RoomID,
		Seat:     seat,
		Identity: old.Identity,
	}
	s.byToken[next.Token] = next
	return next, nil
}

// Drop removes a token without replacement (player left for good).
func (s *Store) Drop(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

// DropRoom removes every session and pending forfeit for a destroyed room.
func (s *Store) DropRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, sess := range s.byToken {
		if sess.RoomID == roomID {
			delete(s.byToken, token)
		}
	}
	for key, p := range s.forfeits {
		if sessRoom, _ := splitForfeitKey(key); sessRoom == roomID {
			p.timer.Stop()
			delete(s.forfeits, key)
		}
	}
}

// ScheduleForfeit arms the bounded disconnect timer for a seat. If the
// grace window elapses before CancelForfeit, onExpire runs exactly once.
// Re-arming a seat replaces its previous timer.
func (s *Store) ScheduleForfeit(roomID string, seat int, onExpire func()) {
	key := forfeitKey(roomID, seat)

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.forfeits[key]; ok {
		prev.timer.Stop()
	}
	s.gen++
	gen := s.gen
	p := &pendingForfeit{gen: gen}
	p.timer = time.AfterFunc(s.grace, func() {
		// A reconnect may have raced the firing; the generation check
		// makes a stale fire a no-op.
		s.mu.Lock()
		cur, ok := s.forfeits[key]
		if !ok || cur.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.forfeits, key)
		s.mu.Unlock()

		s.logger.Warn("disconnect grace expired",
			zap.String("room_id", roomID), zap.Int("seat", seat))
		onExpire()
	})
	s.forfeits[key] = p
}

// CancelForfeit disarms a seat's pending timer. Returns false when no
// timer was pending (already fired or never armed).
func (s *Store) CancelForfeit(roomID string, seat int) bool {
	key := forfeitKey(roomID, seat)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.forfeits[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.forfeits, key)
	return true
}

func forfeitKey(roomID string, seat int) string {
	return fmt.Sprintf("%s#%d", roomID, seat)
}

func splitForfeitKey(key string) (roomID string, rest string) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '#' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
