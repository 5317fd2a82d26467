package events

import (
	"context"
	"sync"
	"time"
)

// Log is a bounded append-only event buffer for one room. Appends are
// cheap and run under the room lock; reads snapshot under the log's own
// mutex so delivery transports never contend with game operations.
type Log struct {
	mu      sync.Mutex
	cap     int
	entries []Event
	lastTS  int64
	notify  chan struct{}
}

// NewLog returns a log that retains at most capacity events.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 100
	}
	return &Log{
		cap:    capacity,
		notify: make(chan struct{}),
	}
}

// Append records an event with a strictly increasing timestamp and
// wakes every waiter.
func (l *Log) Append(t Type, p Payload) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().UnixNano()
	if ts <= l.lastTS {
		ts = l.lastTS + 1
	}
	l.lastTS = ts

	e := Event{Type: t, Timestamp: ts, Payload: p}
	l.entries = append(l.entries, e)
	if len(l.entries) > l.cap {
		l.entries = append([]Event(nil), l.entries[len(l.entries)-l.cap:]...)
	}

	close(l.notify)
	l.notify = make(chan struct{})
	return e
}

// Since returns a copy of every retained event newer than ts.
func (l *Log) Since(ts int64) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := len(l.entries)
	for i > 0 && l.entries[i-1].Timestamp > ts {
		i--
	}
	out := make([]Event, len(l.entries)-i)
	copy(out, l.entries[i:])
	return out
}

// Wait blocks until an event newer than ts exists or ctx ends, then
// returns whatever is newer than ts (possibly nothing on timeout).
// It never holds any lock while blocked.
func (l *Log) Wait(ctx context.Context, ts int64) []Event {
	for {
		l.mu.Lock()
		ch := l.notify
		l.mu.Unlock()

		if fresh := l.Since(ts); len(fresh) > 0 {
			return fresh
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return l.Since(ts)
		}
	}
}
