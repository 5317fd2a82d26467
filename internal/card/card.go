// Package card holds the immutable card and deck model for a 32-card
// Baloot deck: four suits, eight ranks, San and trump strength tables.
package card

import (
	"fmt"
	"math/rand"
	"sort"
)

type Suit string

const (
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
	Spades   Suit = "S"
)

type Rank string

const (
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Suits and Ranks define the canonical deck order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}
var Ranks = []Rank{Seven, Eight, Nine, Jack, Queen, King, Ten, Ace}

// DeckSize is the number of distinct cards in a Baloot deck.
const DeckSize = 32

// pointValues is the San scoring table.
var pointValues = map[Rank]int{
	Seven: 0, Eight: 0, Nine: 0,
	Jack: 2, Queen: 3, King: 4,
	Ten: 10, Ace: 11,
}

// strength orders ranks within the lead suit when no trump applies.
var strength = map[Rank]int{
	Seven: 1, Eight: 2, Nine: 3,
	Jack: 4, Queen: 5, King: 6,
	Ten: 7, Ace: 8,
}

// trumpStrength orders ranks within the trump suit: the nine and jack
// jump to the top.
var trumpStrength = map[Rank]int{
	Seven: 1, Eight: 2, Queen: 3,
	King: 4, Ten: 5, Ace: 6,
	Nine: 7, Jack: 8,
}

// Card is an immutable value; equality is (suit, rank) equality.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// String renders the wire token, e.g. "10H" or "AS".
func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// Points returns the card's San point value.
func (c Card) Points() int {
	return pointValues[c.Rank]
}

// Strength returns the card's rank order within a led suit.
func (c Card) Strength() int {
	return strength[c.Rank]
}

// TrumpStrength returns the card's rank order when its suit is trump.
func (c Card) TrumpStrength() int {
	return trumpStrength[c.Rank]
}

// Valid reports whether the suit and rank are both part of the deck.
func (c Card) Valid() bool {
	_, ok := strength[c.Rank]
	if !ok {
		return false
	}
	switch c.Suit {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// Parse reads a wire token such as "7H" or "10D" back into a Card.
func Parse(token string) (Card, error) {
	if len(token) < 2 {
		return Card{}, fmt.Errorf("malformed card token %q", token)
	}
	c := Card{
		Rank: Rank(token[:len(token)-1]),
		Suit: Suit(token[len(token)-1:]),
	}
	if !c.Valid() {
		return Card{}, fmt.Errorf("unknown card token %q", token)
	}
	return c, nil
}

// NewDeck returns the 32 canonical cards in deterministic order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Shuffle returns a uniformly shuffled copy of the given deck.
func Shuffle(deck []Card) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// NewShuffledDeck builds and shuffles a fresh deck.
func NewShuffledDeck() []Card {
	return Shuffle(NewDeck())
}

// SortHand orders a hand suit-major, weakest rank first, for display.
func SortHand(hand []Card) {
	suitOrder := map[Suit]int{Hearts: 0, Diamonds: 1, Clubs: 2, Spades: 3}
	sort.Slice(hand, func(i, j int) bool {
		if hand[i].Suit != hand[j].Suit {
			return suitOrder[hand[i].Suit] < suitOrder[hand[j].Suit]
		}
		return hand[i].Strength() < hand[j].Strength()
	})
}
