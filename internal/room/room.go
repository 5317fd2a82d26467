// Package room owns the four seats, the active round, the match score
// and the lifecycle state machine of one game room. Every operation
// runs under the room's own mutex; rooms are fully independent and are
// never locked relative to each other.
package room

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/baloot-online/server/internal/card"
	"github.com/baloot-online/server/internal/engine"
	"github.com/baloot-online/server/internal/events"
	"github.com/baloot-online/server/pkg/types"
)

var ErrRoomFull = errors.New("room is full")
var ErrDuplicateIdentity = errors.New("identity already seated in this room")
var ErrSeatNotFound = errors.New("seat is not occupied")
var ErrRoomPaused = errors.New("room paused waiting for a reconnect")
var ErrRoundNotActive = errors.New("no round in progress")
var ErrMatchOver = errors.New("match is finished")

type State string

const (
	StateWaiting    State = "waiting"
	StateReady      State = "ready"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
)

// WinningScore is the cumulative match-point threshold that ends a match.
const WinningScore = 152

// Player occupies one seat. The seat/team partition is fixed for the
// life of the room.
type Player struct {
	Identity  string
	Name      string
	Seat      int
	Team      engine.Team
	Ready     bool
	Connected bool
}

// Room is one independently lockable unit of mutable state.
type Room struct {
	ID string

	mu          sync.Mutex
	seats       [engine.NumSeats]*Player
	state       State
	round       *engine.Round
	matchScores map[engine.Team]int
	roundNumber int

	log    *events.Log
	logger *zap.Logger
}

func New(id string, log *events.Log, logger *zap.Logger) *Room {
	return &Room{
		ID:          id,
		state:       StateWaiting,
		matchScores: map[engine.Team]int{engine.TeamA: 0, engine.TeamB: 0},
		log:         log,
		logger:      logger.With(zap.String("room_id", id)),
	}
}

// Log exposes the room's event log to delivery transports.
func (r *Room) Log() *events.Log { return r.log }

// paused reports whether play is suspended for a disconnect. Callers
// hold r.mu.
func (r *Room) paused() bool {
	if r.state != StateInProgress {
		return false
	}
	for _, p := range r.seats {
		if p != nil && !p.Connected {
			return true
		}
	}
	return false
}

// AddPlayer seats a new identity at the first empty seat.
func (r *Room) AddPlayer(identity, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateFinished {
		return 0, ErrMatchOver
	}
	for _, p := range r.seats {
		if p != nil && p.Identity == identity {
			return 0, ErrDuplicateIdentity
		}
	}
	for seat, p := range r.seats {
		if p != nil {
			continue
		}
		r.seats[seat] = &Player{
			Identity:  identity,
			Name:      name,
			Seat:      seat,
			Team:      engine.TeamForSeat(seat),
			Connected: true,
		}
		if r.state == StateWaiting && r.occupied() == engine.NumSeats {
			r.state = StateReady
		}
		r.logger.Info("player joined", zap.Int("seat", seat), zap.String("name", name))
		r.log.Append(events.TypePlayerJoined, events.PlayerJoined{
			Seat: seat, Name: name, Team: string(engine.TeamForSeat(seat)),
		})
		return seat, nil
	}
	return 0, ErrRoomFull
}

// RemovePlayer vacates a seat. During IN_PROGRESS the seat is not
// vacated; the leave is treated as a disconnect so the player can
// reconnect within the grace window.
func (r *Room) RemovePlayer(seat int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerAt(seat)
	if p == nil {
		return ErrSeatNotFound
	}
	if r.state == StateInProgress {
		return r.disconnectLocked(p)
	}

	r.seats[seat] = nil
	if r.state == StateReady {
		r.state = StateWaiting
	}
	r.logger.Info("player left", zap.Int("seat", seat), zap.String("name", p.Name))
	r.log.Append(events.TypePlayerLeft, events.PlayerLeft{Seat: seat, Name: p.Name})
	return nil
}

// Empty reports whether no seat is occupied; empty rooms are destroyed
// by the registry.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occupied() == 0
}

// MarkReady flags a seat ready; when all four seats are occupied and
// ready the next round starts.
func (r *Room) MarkReady(seat int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerAt(seat)
	if p == nil {
		return false, ErrSeatNotFound
	}
	switch r.state {
	case StateFinished:
		return false, ErrMatchOver
	case StateInProgress:
		return false, ErrRoundNotActive
	}
	p.Ready = true

	count := 0
	for _, q := range r.seats {
		if q != nil && q.Ready {
			count++
		}
	}
	all := count == engine.NumSeats && r.occupied() == engine.NumSeats
	r.log.Append(events.TypePlayerReady, events.PlayerReady{
		Seat: seat, ReadyCount: count, AllReady: all,
	})
	if all {
		r.startRoundLocked()
	}
	return all, nil
}

// startRoundLocked deals the next round. Deal policy: San only — no
// trump suit is ever assigned; dealer rotates with the round number.
func (r *Room) startRoundLocked() {
	dealer := r.roundNumber % engine.NumSeats
	r.round = engine.NewRound(dealer, card.NewShuffledDeck())
	r.state = StateInProgress
	r.roundNumber++

	r.logger.Info("round started",
		zap.Int("round", r.roundNumber),
		zap.Int("dealer", dealer))
	r.log.Append(events.TypeRoundStarted, events.RoundStarted{
		Round:       r.roundNumber,
		Dealer:      dealer,
		FirstPlayer: r.round.CurrentPlayer,
	})
	for seat, n := range r.round.HandSizes() {
		r.log.Append(events.TypeHandDealt, events.HandDealt{Seat: seat, Cards: n})
	}
}

// PlayCard applies one play for the seat. The room resolves the trick
// itself once the fourth card lands so the played and resolved events
// stay separable, and rolls the round over when trick 8 resolves.
func (r *Room) PlayCard(seat int, c card.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerAt(seat)
	if p == nil {
		return ErrSeatNotFound
	}
	if r.state != StateInProgress || r.round == nil {
		return ErrRoundNotActive
	}
	if r.paused() {
		return ErrRoomPaused
	}

	if err := r.round.PlayCard(seat, c); err != nil {
		return err
	}
	r.log.Append(events.TypeCardPlayed, events.CardPlayed{
		Seat:       seat,
		Card:       c,
		TrickSize:  len(r.round.CurrentTrick),
		NextPlayer: r.round.CurrentPlayer,
	})

	if len(r.round.CurrentTrick) == engine.NumSeats {
		res, err := r.round.ResolveTrick()
		if err != nil {
			return err
		}
		r.log.Append(events.TypeTrickResolved, events.TrickResolved{
			Winner:     res.Winner,
			Points:     res.Points,
			TrickCount: r.round.TrickCount,
			Abnat:      r.round.Abnat(),
		})
		if r.round.Done() {
			r.finishRoundLocked()
		}
	}
	return nil
}

// finishRoundLocked applies the San conversion, accumulates match
// scores and either ends the match at the threshold or resets ready
// flags for the next round.
func (r *Room) finishRoundLocked() {
	scores := r.round.FinalScores()
	for team, pts := range scores {
		r.matchScores[team] += pts
	}
	r.round = nil

	r.logger.Info("round finished",
		zap.Int("team_a", r.matchScores[engine.TeamA]),
		zap.Int("team_b", r.matchScores[engine.TeamB]))
	r.log.Append(events.TypeRoundFinished, events.RoundFinished{
		Scores:      scores,
		MatchScores: r.matchScoresCopy(),
	})

	if r.matchScores[engine.TeamA] >= WinningScore || r.matchScores[engine.TeamB] >= WinningScore {
		r.state = StateFinished
		winner := engine.TeamA
		if r.matchScores[engine.TeamB] > r.matchScores[engine.TeamA] {
			winner = engine.TeamB
		}
		r.log.Append(events.TypeMatchFinished, events.MatchFinished{
			Winner:      winner,
			MatchScores: r.matchScoresCopy(),
		})
		return
	}

	for _, p := range r.seats {
		if p != nil {
			p.Ready = false
		}
	}
	r.state = StateReady
}

// Disconnect marks a seat disconnected. During IN_PROGRESS the room
// pauses; the caller is responsible for scheduling the forfeit timer.
// Returns whether the room is now paused.
func (r *Room) Disconnect(seat int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerAt(seat)
	if p == nil {
		return false, ErrSeatNotFound
	}
	if err := r.disconnectLocked(p); err != nil {
		return false, err
	}
	return r.paused(), nil
}

func (r *Room) disconnectLocked(p *Player) error {
	p.Connected = false
	paused := r.paused()
	r.logger.Info("player disconnected",
		zap.Int("seat", p.Seat), zap.Bool("paused", paused))
	r.log.Append(events.TypePlayerDisconnected, events.PlayerDisconnected{
		Seat: p.Seat, Name: p.Name, Paused: paused,
	})
	return nil
}

// Reconnect marks a seat connected again and resumes play if no other
// seat is still away.
func (r *Room) Reconnect(seat int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerAt(seat)
	if p == nil {
		return ErrSeatNotFound
	}
	p.Connected = true
	resumed := !r.paused()
	r.logger.Info("player reconnected",
		zap.Int("seat", seat), zap.Bool("resumed", resumed))
	r.log.Append(events.TypePlayerReconnected, events.PlayerReconnected{
		Seat: seat, Name: p.Name, Resumed: resumed,
	})
	return nil
}

// Forfeit ends the match because a disconnected seat never returned:
// the seat is vacated and the room goes terminal rather than playing on
// with three hands.
func (r *Room) Forfeit(seat int, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerAt(seat)
	if p == nil || p.Connected {
		return
	}
	r.seats[seat] = nil
	r.round = nil
	r.state = StateFinished

	r.logger.Warn("room forfeited", zap.Int("seat", seat), zap.String("reason", reason))
	r.log.Append(events.TypeRoomForfeited, events.RoomForfeited{Seat: seat, Reason: reason})
}

// SeatOf resolves the seat currently held by an identity.
func (r *Room) SeatOf(identity string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for seat, p := range r.seats {
		if p != nil && p.Identity == identity {
			return seat, nil
		}
	}
	return 0, ErrSeatNotFound
}

func (r *Room) playerAt(seat int) *Player {
	if seat < 0 || seat >= engine.NumSeats {
		return nil
	}
	return r.seats[seat]
}

func (r *Room) occupied() int {
	n := 0
	for _, p := range r.seats {
		if p != nil {
			n++
		}
	}
	return n
}

func (r *Room) matchScoresCopy() map[engine.Team]int {
	return map[engine.Team]int{
		engine.TeamA: r.matchScores[engine.TeamA],
		engine.TeamB: r.matchScores[engine.TeamB],
	}
}

// View returns the public room snapshot. It never contains a hand.
func (r *Room) View() types.RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

func (r *Room) viewLocked() types.RoomView {
	v := types.RoomView{
		RoomID:      r.ID,
		State:       string(r.state),
		Paused:      r.paused(),
		RoundNumber: r.roundNumber,
		MatchScores: r.matchScoresCopy(),
	}
	for seat, p := range r.seats {
		if p == nil {
			continue
		}
		v.Seats[seat] = &types.SeatInfo{
			Seat:      seat,
			Name:      p.Name,
			Team:      string(p.Team),
			Ready:     p.Ready,
			Connected: p.Connected,
		}
	}
	if r.round != nil {
		trick := make([]engine.Play, len(r.round.CurrentTrick))
		copy(trick, r.round.CurrentTrick)
		v.Round = &types.RoundView{
			Dealer:         r.round.Dealer,
			CurrentPlayer:  r.round.CurrentPlayer,
			TrickLeader:    r.round.TrickLeader,
			TrickCount:     r.round.TrickCount,
			CurrentTrick:   trick,
			CardsRemaining: r.round.HandSizes(),
			Abnat:          r.round.Abnat(),
		}
	}
	return v
}

// SeatSnapshot returns the full state visible to one seat: the public
// view plus that seat's own hand and legal moves, and nothing of any
// other hand.
func (r *Room) SeatSnapshot(seat int) (types.SeatSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerAt(seat)
	if p == nil {
		return types.SeatSnapshot{}, ErrSeatNotFound
	}
	snap := types.SeatSnapshot{
		Seat: seat,
		Team: string(p.Team),
		Room: r.viewLocked(),
	}
	if r.round != nil {
		snap.Hand = r.round.Hand(seat)
		snap.LegalCards = r.round.LegalCards(seat)
	}
	return snap, nil
}
