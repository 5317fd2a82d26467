// Package ws streams a room's event log over a websocket as an
// alternative to long-polling. The socket carries exactly the records
// the log holds; game commands still go through the HTTP API.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/baloot-online/server/internal/hub"
)

type Stream struct {
	hub    *hub.Hub
	logger *zap.Logger
}

func NewStream(h *hub.Hub, logger *zap.Logger) *Stream {
	return &Stream{hub: h, logger: logger}
}

func (s *Stream) Handler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("session")
	sess, err := s.hub.ResolveSession(token)
	if err != nil {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader loop only detects the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	since := int64(0)
	for {
		waitCtx, waitCancel := context.WithTimeout(ctx, 30*time.Second)
		evs, err := s.hub.WaitEvents(waitCtx, sess.RoomID, since)
		waitCancel()
		if err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		for _, e := range evs {
			payload, err := json.Marshal(e)
			if err != nil {
				s.logger.Error("event marshal failed", zap.Error(err))
				continue
			}
			writeCtx, writeCancel := context.WithTimeout(ctx, 3*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, payload)
			writeCancel()
			if err != nil {
				return
			}
			since = e.Timestamp
		}
	}
}
