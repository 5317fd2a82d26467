package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(grace time.Duration) *Store {
	return NewStore(grace, zap.NewNop())
}

func TestCreateAndResolve(t *testing.T) {
	s := newStore(time.Minute)
	sess := s.Create("room-1", 2, "user-a")

	require.NotEmpty(t, sess.Token)
	got, err := s.Resolve(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "room-1", got.RoomID)
	assert.Equal(t, 2, got.Seat)
	assert.Equal(t, "user-a", got.Identity)

	_, err = s.Resolve("nope")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRotateInvalidatesOldToken(t *testing.T) {
	s := newStore(time.Minute)
	old := s.Create("room-1", 1, "user-a")

	next, err := s.Rotate(old.Token, 1)
	require.NoError(t, err)
	assert.NotEqual(t, old.Token, next.Token)
	assert.Equal(t, "user-a", next.Identity)

	_, err = s.Resolve(old.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	got, err := s.Resolve(next.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Seat)
}

func TestForfeitFiresAfterGrace(t *testing.T) {
	s := newStore(10 * time.Millisecond)

	var fired atomic.Int32
	s.ScheduleForfeit("room-1", 0, func() { fired.Add(1) })

	require.Eventually(t, func() bool { return fired.Load() == 1 },
		time.Second, 5*time.Millisecond)

	// Already fired: nothing left to cancel.
	assert.False(t, s.CancelForfeit("room-1", 0))
}

func TestCancelForfeitStopsTimer(t *testing.T) {
	s := newStore(20 * time.Millisecond)

	var fired atomic.Int32
	s.ScheduleForfeit("room-1", 0, func() { fired.Add(1) })
	assert.True(t, s.CancelForfeit("room-1", 0))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "cancelled timer must not fire")
}

func TestRearmReplacesPreviousTimer(t *testing.T) {
	s := newStore(15 * time.Millisecond)

	var first, second atomic.Int32
	s.ScheduleForfeit("room-1", 0, func() { first.Add(1) })
	s.ScheduleForfeit("room-1", 0, func() { second.Add(1) })

	require.Eventually(t, func() bool { return second.Load() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), first.Load(), "replaced timer must not fire")
}

func TestCancelRacingFireIsIdempotent(t *testing.T) {
	// Arm and cancel with the tiniest grace repeatedly: whatever
	// interleaving happens, the expiry callback never runs after a
	// successful cancel and never runs twice.
	s := newStore(time.Millisecond)

	for i := 0; i < 50; i++ {
		var fired atomic.Int32
		s.ScheduleForfeit("room-1", 0, func() { fired.Add(1) })
		cancelled := s.CancelForfeit("room-1", 0)
		time.Sleep(5 * time.Millisecond)
		if cancelled {
			assert.Equal(t, int32(0), fired.Load())
		} else {
			assert.Equal(t, int32(1), fired.Load())
		}
	}
}

func TestDropRoomRemovesSessionsAndTimers(t *testing.T) {
	s := newStore(20 * time.Millisecond)
	a := s.Create("room-1", 0, "user-a")
	b := s.Create("room-2", 0, "user-b")

	var fired atomic.Int32
	s.ScheduleForfeit("room-1", 0, func() { fired.Add(1) })

	s.DropRoom("room-1")

	_, err := s.Resolve(a.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = s.Resolve(b.Token)
	assert.NoError(t, err, "other rooms' sessions survive")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "dropped room's timer must not fire")
}
