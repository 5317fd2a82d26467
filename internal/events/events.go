// Package events defines the per-room domain event log: a bounded,
// append-only buffer of timestamped records that delivery transports
// drain with "everything after timestamp T" queries.
package events

import (
	"github.com/baloot-online/server/internal/card"
	"github.com/baloot-online/server/internal/engine"
)

type Type string

const (
	TypePlayerJoined       Type = "player_joined"
	TypePlayerLeft         Type = "player_left"
	TypePlayerReady        Type = "player_ready"
	TypeRoundStarted       Type = "round_started"
	TypeHandDealt          Type = "hand_dealt"
	TypeCardPlayed         Type = "card_played"
	TypeTrickResolved      Type = "trick_resolved"
	TypeRoundFinished      Type = "round_finished"
	TypeMatchFinished      Type = "match_finished"
	TypePlayerDisconnected Type = "player_disconnected"
	TypePlayerReconnected  Type = "player_reconnected"
	TypeRoomForfeited      Type = "room_forfeited"
)

// Payload is the closed union of event payloads; one struct per kind.
type Payload interface{ isEventPayload() }

type PlayerJoined struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
	Team string `json:"team"`
}

type PlayerLeft struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
}

type PlayerReady struct {
	Seat       int  `json:"seat"`
	ReadyCount int  `json:"ready_count"`
	AllReady   bool `json:"all_ready"`
}

type RoundStarted struct {
	Round       int `json:"round"`
	Dealer      int `json:"dealer"`
	FirstPlayer int `json:"first_player"`
}

// HandDealt announces a seat's deal by count only. Hands are delivered
// through seat-scoped snapshots, never through the shared log.
type HandDealt struct {
	Seat  int `json:"seat"`
	Cards int `json:"cards"`
}

type CardPlayed struct {
	Seat       int       `json:"seat"`
	Card       card.Card `json:"card"`
	TrickSize  int       `json:"trick_size"`
	NextPlayer int       `json:"next_player"`
}

type TrickResolved struct {
	Winner     int                 `json:"winner"`
	Points     int                 `json:"points"`
	TrickCount int                 `json:"trick_count"`
	Abnat      map[engine.Team]int `json:"abnat"`
}

type RoundFinished struct {
	Scores      map[engine.Team]int `json:"scores"`
	MatchScores map[engine.Team]int `json:"match_scores"`
}

type MatchFinished struct {
	Winner      engine.Team         `json:"winner"`
	MatchScores map[engine.Team]int `json:"match_scores"`
}

type PlayerDisconnected struct {
	Seat   int    `json:"seat"`
	Name   string `json:"name"`
	Paused bool   `json:"paused"`
}

type PlayerReconnected struct {
	Seat    int    `json:"seat"`
	Name    string `json:"name"`
	Resumed bool   `json:"resumed"`
}

type RoomForfeited struct {
	Seat   int    `json:"seat"`
	Reason string `json:"reason"`
}

func (PlayerJoined) isEventPayload()       {}
func (PlayerLeft) isEventPayload()         {}
func (PlayerReady) isEventPayload()        {}
func (RoundStarted) isEventPayload()       {}
func (HandDealt) isEventPayload()          {}
func (CardPlayed) isEventPayload()         {}
func (TrickResolved) isEventPayload()      {}
func (RoundFinished) isEventPayload()      {}
func (MatchFinished) isEventPayload()      {}
func (PlayerDisconnected) isEventPayload() {}
func (PlayerReconnected) isEventPayload()  {}
func (RoomForfeited) isEventPayload()      {}

// Event is one log record. Timestamps are unix nanoseconds, strictly
// increasing within a log; ordering by timestamp is the only guarantee
// consumers may rely on.
type Event struct {
	Type      Type    `json:"type"`
	Timestamp int64   `json:"timestamp"`
	Payload   Payload `json:"payload"`
}
