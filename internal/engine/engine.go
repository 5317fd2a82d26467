// Package engine implements one deal's worth of Baloot: legality
// checking, card play, trick resolution and San scoring. It owns the
// four hands exclusively; the room layer drives it under the room lock.
package engine

import (
	"errors"
	"fmt"

	"github.com/baloot-online/server/internal/card"
)

var ErrWrongTurn = errors.New("not this seat's turn")
var ErrCardNotHeld = errors.New("card not in hand")
var ErrIllegalPlay = errors.New("must follow the lead suit")
var ErrTrickNotComplete = errors.New("trick is not complete")
var ErrTrickUnresolved = errors.New("trick awaiting resolution")
var ErrRoundOver = errors.New("round is over")

type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// TeamForSeat maps the fixed seat partition: 0,2 -> A and 1,3 -> B.
func TeamForSeat(seat int) Team {
	if seat%2 == 0 {
		return TeamA
	}
	return TeamB
}

const (
	NumSeats       = 4
	HandSize       = 8
	TricksPerRound = 8

	// LastTrickBonus is credited to the winner of the 8th trick.
	LastTrickBonus = 10
)

// Play is one (seat, card) entry in the current trick.
type Play struct {
	Seat int       `json:"seat"`
	Card card.Card `json:"card"`
}

// TrickResult reports a resolved trick.
type TrickResult struct {
	Winner    int
	Points    int
	LastTrick bool
}

// Round holds the state of a single deal. No trump suit is assigned
// under San rules; resolution still honours Trump if a variant sets it.
type Round struct {
	Dealer        int
	CurrentPlayer int
	TrickLeader   int
	TrickCount    int
	CurrentTrick  []Play
	Trump         card.Suit // "" means no trump (San)

	hands [NumSeats][]card.Card
	abnat map[Team]int
}

// NewRound deals the given deck round-robin into four sorted hands.
// The seat left of the dealer leads the first trick.
func NewRound(dealer int, deck []card.Card) *Round {
	if len(deck) != card.DeckSize {
		panic(fmt.Sprintf("engine: dealt deck has %d cards", len(deck)))
	}
	first := (dealer + 1) % NumSeats
	r := &Round{
		Dealer:        dealer,
		CurrentPlayer: first,
		TrickLeader:   first,
		abnat:         map[Team]int{TeamA: 0, TeamB: 0},
	}
	for i, c := range deck {
		seat := i % NumSeats
		r.hands[seat] = append(r.hands[seat], c)
	}
	for seat := range r.hands {
		card.SortHand(r.hands[seat])
	}
	r.checkConservation()
	return r
}

// Hand returns a copy of a seat's hand. Seat snapshots must never alias
// the engine's backing slices.
func (r *Round) Hand(seat int) []card.Card {
	out := make([]card.Card, len(r.hands[seat]))
	copy(out, r.hands[seat])
	return out
}

// HandSizes returns the number of cards left in each hand.
func (r *Round) HandSizes() [NumSeats]int {
	var sizes [NumSeats]int
	for seat, h := range r.hands {
		sizes[seat] = len(h)
	}
	return sizes
}

// LeadSuit returns the suit of the first play in the current trick.
func (r *Round) LeadSuit() (card.Suit, bool) {
	if len(r.CurrentTrick) == 0 {
		return "", false
	}
	return r.CurrentTrick[0].Card.Suit, true
}

// Done reports whether all eight tricks have been resolved.
func (r *Round) Done() bool {
	return r.TrickCount == TricksPerRound
}

func (r *Round) holds(seat int, c card.Card) bool {
	for _, held := range r.hands[seat] {
		if held == c {
			return true
		}
	}
	return false
}

func (r *Round) holdsSuit(seat int, s card.Suit) bool {
	for _, held := range r.hands[seat] {
		if held.Suit == s {
			return true
		}
	}
	return false
}

// IsLegal reports whether the seat may play the card right now: it must
// be the seat's turn, the card must be held, and the single follow-suit
// rule applies — follow the lead suit if able, otherwise play anything.
func (r *Round) IsLegal(seat int, c card.Card) bool {
	if seat != r.CurrentPlayer || !r.holds(seat, c) {
		return false
	}
	lead, ok := r.LeadSuit()
	if !ok || c.Suit == lead {
		return true
	}
	return !r.holdsSuit(seat, lead)
}

// LegalCards lists every card the seat could legally play right now.
func (r *Round) LegalCards(seat int) []card.Card {
	var legal []card.Card
	for _, c := range r.hands[seat] {
		if r.IsLegal(seat, c) {
			legal = append(legal, c)
		}
	}
	return legal
}

// PlayCard validates and applies one play. A rejected play leaves the
// round untouched. The fourth card does not auto-resolve the trick;
// callers invoke ResolveTrick explicitly.
func (r *Round) PlayCard(seat int, c card.Card) error {
	if r.Done() {
		return ErrRoundOver
	}
	if len(r.CurrentTrick) == NumSeats {
		return ErrTrickUnresolved
	}
	if seat != r.CurrentPlayer {
		return ErrWrongTurn
	}
	if !r.holds(seat, c) {
		return ErrCardNotHeld
	}
	if !r.IsLegal(seat, c) {
		return ErrIllegalPlay
	}

	r.removeCard(seat, c)
	r.CurrentTrick = append(r.CurrentTrick, Play{Seat: seat, Card: c})
	r.CurrentPlayer = (seat + 1) % NumSeats
	r.checkConservation()
	return nil
}

func (r *Round) removeCard(seat int, c card.Card) {
	h := r.hands[seat]
	for i, held := range h {
		if held == c {
			r.hands[seat] = append(h[:i], h[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("engine: removeCard %v not in seat %d hand", c, seat))
}

// beats reports whether the challenger outranks the current best play.
// Trump beats any non-trump; within a suit the strength tables decide.
func (r *Round) beats(challenger, best Play, lead card.Suit) bool {
	trumped := r.Trump != "" && best.Card.Suit == r.Trump
	challengerTrump := r.Trump != "" && challenger.Card.Suit == r.Trump

	switch {
	case challengerTrump && !trumped:
		return true
	case !challengerTrump && trumped:
		return false
	case challengerTrump && trumped:
		return challenger.Card.TrumpStrength() > best.Card.TrumpStrength()
	case challenger.Card.Suit != lead:
		return false
	case best.Card.Suit != lead:
		return true
	default:
		return challenger.Card.Strength() > best.Card.Strength()
	}
}

// ResolveTrick determines the completed trick's winner, credits the
// trick points (plus the last-trick bonus on trick 8) to the winning
// team, clears the trick, and hands the lead to the winner.
func (r *Round) ResolveTrick() (TrickResult, error) {
	if len(r.CurrentTrick) != NumSeats {
		return TrickResult{}, ErrTrickNotComplete
	}

	lead := r.CurrentTrick[0].Card.Suit
	best := r.CurrentTrick[0]
	points := 0
	for _, p := range r.CurrentTrick {
		points += p.Card.Points()
		if p != best && r.beats(p, best, lead) {
			best = p
		}
	}

	r.TrickCount++
	team := TeamForSeat(best.Seat)
	r.abnat[team] += points
	last := r.TrickCount == TricksPerRound
	if last {
		r.abnat[team] += LastTrickBonus
	}

	r.CurrentTrick = nil
	r.CurrentPlayer = best.Seat
	r.TrickLeader = best.Seat
	r.checkConservation()

	return TrickResult{Winner: best.Seat, Points: points, LastTrick: last}, nil
}

// Abnat returns a copy of the raw card-point totals per team.
func (r *Round) Abnat() map[Team]int {
	return map[Team]int{TeamA: r.abnat[TeamA], TeamB: r.abnat[TeamB]}
}

// FinalScores converts each team's abnat to match points under the San
// rule: round to the nearest 10 (half up), double, divide by 10. Pure,
// so calling it repeatedly returns the same values.
func (r *Round) FinalScores() map[Team]int {
	scores := make(map[Team]int, 2)
	for _, team := range []Team{TeamA, TeamB} {
		rounded := (r.abnat[team] + 5) / 10 * 10
		scores[team] = rounded * 2 / 10
	}
	return scores
}

// checkConservation asserts the cards-are-conserved invariant: hands
// plus the current trick plus resolved tricks always cover the deck.
func (r *Round) checkConservation() {
	total := len(r.CurrentTrick) + NumSeats*r.TrickCount
	for _, h := range r.hands {
		total += len(h)
	}
	if total != card.DeckSize {
		panic(fmt.Sprintf("engine: card conservation broken, %d cards accounted for", total))
	}
	if len(r.CurrentTrick) > NumSeats {
		panic(fmt.Sprintf("engine: %d plays in one trick", len(r.CurrentTrick)))
	}
}
