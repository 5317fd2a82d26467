// Package types holds the wire DTOs exchanged with clients. Cards cross
// the wire as (suit, rank) pairs using the literal tokens S,H,D,C and
// 7,8,9,10,J,Q,K,A.
package types

import (
	"github.com/baloot-online/server/internal/card"
	"github.com/baloot-online/server/internal/engine"
	"github.com/baloot-online/server/internal/events"
)

// Client -> Server

type JoinRequest struct {
	RoomID   string `json:"room_id"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
}

type ReadyRequest struct {
	Session string `json:"session"`
}

type PlayCardRequest struct {
	Session string    `json:"session"`
	Card    card.Card `json:"card"`
}

type LeaveRequest struct {
	Session string `json:"session"`
}

type ReconnectRequest struct {
	Session string `json:"session"`
	RoomID  string `json:"room_id"`
}

// Server -> Client

type JoinResponse struct {
	Session string   `json:"session"`
	Seat    int      `json:"seat"`
	Team    string   `json:"team"`
	Room    RoomView `json:"room"`
}

type ReadyResponse struct {
	AllReady bool `json:"all_ready"`
}

type ReconnectResponse struct {
	Session  string       `json:"session"`
	Snapshot SeatSnapshot `json:"snapshot"`
}

type EventsResponse struct {
	Events        []events.Event `json:"events"`
	LastTimestamp int64          `json:"last_timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// SeatInfo is the public view of one occupied seat.
type SeatInfo struct {
	Seat      int    `json:"seat"`
	Name      string `json:"name"`
	Team      string `json:"team"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
}

// RoundView is the public slice of an active round: trick and counts,
// never hands.
type RoundView struct {
	Dealer         int                 `json:"dealer"`
	CurrentPlayer  int                 `json:"current_player"`
	TrickLeader    int                 `json:"trick_leader"`
	TrickCount     int                 `json:"trick_count"`
	CurrentTrick   []engine.Play       `json:"current_trick"`
	CardsRemaining [4]int              `json:"cards_remaining"`
	Abnat          map[engine.Team]int `json:"abnat"`
}

// RoomView is the public room snapshot: safe to hand to any client.
type RoomView struct {
	RoomID      string              `json:"room_id"`
	State       string              `json:"state"`
	Paused      bool                `json:"paused"`
	RoundNumber int                 `json:"round_number"`
	MatchScores map[engine.Team]int `json:"match_scores"`
	Seats       [4]*SeatInfo        `json:"seats"`
	Round       *RoundView          `json:"round,omitempty"`
}

// SeatSnapshot extends the public view with the one hand the session is
// entitled to see.
type SeatSnapshot struct {
	Seat       int         `json:"seat"`
	Team       string      `json:"team"`
	Hand       []card.Card `json:"hand"`
	LegalCards []card.Card `json:"legal_cards"`
	Room       RoomView    `json:"room"`
}
