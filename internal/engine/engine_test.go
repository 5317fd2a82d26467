package engine

import (
	"errors"
	"testing"

	"github.com/baloot-online/server/internal/card"
)

// dealOrdered deals the canonical unshuffled deck: deterministic hands
// for every seat (seat 0 gets H7,HQ,D7,DQ,C7,CQ,S7,SQ and so on).
func dealOrdered(dealer int) *Round {
	return NewRound(dealer, card.NewDeck())
}

// interleave builds a deck that NewRound will deal back into exactly
// the given hands.
func interleave(hands [4][]card.Card) []card.Card {
	deck := make([]card.Card, 0, card.DeckSize)
	for i := 0; i < HandSize; i++ {
		for seat := 0; seat < NumSeats; seat++ {
			deck = append(deck, hands[seat][i])
		}
	}
	return deck
}

func mustPlay(t *testing.T, r *Round, seat int, token string) {
	t.Helper()
	c, err := card.Parse(token)
	if err != nil {
		t.Fatalf("bad token %q: %v", token, err)
	}
	if err := r.PlayCard(seat, c); err != nil {
		t.Fatalf("seat %d playing %s: %v", seat, token, err)
	}
}

func cardsConserved(r *Round) bool {
	total := len(r.CurrentTrick) + NumSeats*r.TrickCount
	for _, n := range r.HandSizes() {
		total += n
	}
	return total == card.DeckSize
}

func TestDealDistributesWholeDeck(t *testing.T) {
	r := NewRound(2, card.NewShuffledDeck())

	seen := map[card.Card]int{}
	for seat := 0; seat < NumSeats; seat++ {
		hand := r.Hand(seat)
		if len(hand) != HandSize {
			t.Fatalf("seat %d hand size: got %d, want %d", seat, len(hand), HandSize)
		}
		for _, c := range hand {
			seen[c]++
		}
	}
	if len(seen) != card.DeckSize {
		t.Fatalf("dealt %d distinct cards, want %d", len(seen), card.DeckSize)
	}
	for c, n := range seen {
		if n != 1 {
			t.Fatalf("card %v dealt %d times", c, n)
		}
	}
	if r.CurrentPlayer != 3 {
		t.Fatalf("first player: got %d, want 3 (left of dealer 2)", r.CurrentPlayer)
	}
	if r.TrickLeader != r.CurrentPlayer {
		t.Fatalf("trick leader %d != current player %d", r.TrickLeader, r.CurrentPlayer)
	}
}

func TestPlayCardValidation(t *testing.T) {
	cases := []struct {
		name  string
		seat  int
		token string
		want  error
	}{
		{name: "out of turn", seat: 3, token: "AH", want: ErrWrongTurn},
		{name: "card not held", seat: 1, token: "QH", want: ErrCardNotHeld},
		{name: "legal lead", seat: 1, token: "8H", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := dealOrdered(0) // seat 1 leads
			c, err := card.Parse(tc.token)
			if err != nil {
				t.Fatalf("bad token: %v", err)
			}
			err = r.PlayCard(tc.seat, c)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMustFollowLeadSuit(t *testing.T) {
	r := dealOrdered(0)
	mustPlay(t, r, 1, "8H")

	// Seat 2 holds hearts (9H, 10H) so an off-suit play is illegal.
	offSuit, _ := card.Parse("9D")
	if r.IsLegal(2, offSuit) {
		t.Fatalf("off-suit play should be illegal while holding the lead suit")
	}
	if err := r.PlayCard(2, offSuit); !errors.Is(err, ErrIllegalPlay) {
		t.Fatalf("got %v, want ErrIllegalPlay", err)
	}
	// The rejected play must not have touched any state.
	if len(r.CurrentTrick) != 1 || len(r.Hand(2)) != HandSize {
		t.Fatalf("rejected play mutated state")
	}

	legal := r.LegalCards(2)
	for _, c := range legal {
		if c.Suit != card.Hearts {
			t.Fatalf("legal cards for seat 2 should all be hearts, got %v", c)
		}
	}
	if len(legal) != 2 {
		t.Fatalf("seat 2 legal cards: got %d, want 2", len(legal))
	}
}

func TestTrickResolution(t *testing.T) {
	r := dealOrdered(0)
	mustPlay(t, r, 1, "8H")
	mustPlay(t, r, 2, "10H")
	mustPlay(t, r, 3, "AH")
	mustPlay(t, r, 0, "7H")

	res, err := r.ResolveTrick()
	if err != nil {
		t.Fatalf("ResolveTrick: %v", err)
	}
	if res.Winner != 3 {
		t.Fatalf("winner: got %d, want 3 (ace is strongest)", res.Winner)
	}
	if res.Points != 21 { // 0 + 10 + 11 + 0
		t.Fatalf("points: got %d, want 21", res.Points)
	}
	if res.LastTrick {
		t.Fatalf("first trick flagged as last")
	}
	if r.CurrentPlayer != 3 || r.TrickLeader != 3 {
		t.Fatalf("winner should lead next trick")
	}
	if len(r.CurrentTrick) != 0 {
		t.Fatalf("trick not cleared after resolution")
	}
	if got := r.Abnat()[TeamB]; got != 21 {
		t.Fatalf("team B abnat: got %d, want 21", got)
	}
}

func TestResolveRequiresFourPlays(t *testing.T) {
	r := dealOrdered(0)
	if _, err := r.ResolveTrick(); !errors.Is(err, ErrTrickNotComplete) {
		t.Fatalf("got %v, want ErrTrickNotComplete", err)
	}
	mustPlay(t, r, 1, "8H")
	if _, err := r.ResolveTrick(); !errors.Is(err, ErrTrickNotComplete) {
		t.Fatalf("got %v, want ErrTrickNotComplete", err)
	}
}

func TestFifthPlayBlockedUntilResolution(t *testing.T) {
	r := dealOrdered(0)
	mustPlay(t, r, 1, "8H")
	mustPlay(t, r, 2, "10H")
	mustPlay(t, r, 3, "AH")
	mustPlay(t, r, 0, "7H")

	c, _ := card.Parse("KH")
	if err := r.PlayCard(1, c); !errors.Is(err, ErrTrickUnresolved) {
		t.Fatalf("got %v, want ErrTrickUnresolved", err)
	}
}

// spadeVoidHands puts one spade in seat 0's hand, all spades but one
// in seat 2's, and leaves seats 1 and 3 with no spades at all.
func spadeVoidHands() [4][]card.Card {
	parse := func(tokens ...string) []card.Card {
		out := make([]card.Card, len(tokens))
		for i, tok := range tokens {
			c, err := card.Parse(tok)
			if err != nil {
				panic(err)
			}
			out[i] = c
		}
		return out
	}
	return [4][]card.Card{
		parse("7S", "7H", "8H", "9H", "JH", "QH", "KH", "10H"),
		parse("7D", "8D", "9D", "JD", "QD", "KD", "10D", "AD"),
		parse("KS", "8S", "9S", "JS", "QS", "10S", "AS", "AH"),
		parse("7C", "8C", "9C", "JC", "QC", "KC", "10C", "AC"),
	}
}

func TestHighestLeadSuitCardWinsWhenOthersCannotFollow(t *testing.T) {
	r := NewRound(3, interleave(spadeVoidHands())) // seat 0 leads

	mustPlay(t, r, 0, "7S")
	mustPlay(t, r, 1, "7D") // holds no spades, may play anything
	mustPlay(t, r, 2, "KS") // must follow spades
	mustPlay(t, r, 3, "7C") // holds no spades

	res, err := r.ResolveTrick()
	if err != nil {
		t.Fatalf("ResolveTrick: %v", err)
	}
	if res.Winner != 2 {
		t.Fatalf("winner: got %d, want 2 (only other spade)", res.Winner)
	}
	if res.Points != 4 { // only the king carries points
		t.Fatalf("points: got %d, want 4", res.Points)
	}
}

func TestTrumpBeatsLeadSuit(t *testing.T) {
	r := NewRound(3, interleave(spadeVoidHands()))
	r.Trump = card.Diamonds

	mustPlay(t, r, 0, "7S")
	mustPlay(t, r, 1, "7D") // trump discard
	mustPlay(t, r, 2, "KS")
	mustPlay(t, r, 3, "7C")

	res, err := r.ResolveTrick()
	if err != nil {
		t.Fatalf("ResolveTrick: %v", err)
	}
	if res.Winner != 1 {
		t.Fatalf("winner: got %d, want 1 (trump beats lead suit)", res.Winner)
	}
}

func TestHigherTrumpWinsByTrumpOrder(t *testing.T) {
	parse := func(tok string) card.Card {
		c, err := card.Parse(tok)
		if err != nil {
			panic(err)
		}
		return c
	}
	hands := spadeVoidHands()
	// Rearrange so seats 1 and 3 both hold diamonds: under the trump
	// order the 9 outranks the 10.
	row := func(tokens ...string) []card.Card {
		out := make([]card.Card, len(tokens))
		for i, tok := range tokens {
			out[i] = parse(tok)
		}
		return out
	}
	hands[1] = row("10D", "8D", "JD", "QD", "KD", "AD", "7C", "8C")
	hands[3] = row("7D", "9D", "9C", "JC", "QC", "KC", "10C", "AC")

	r := NewRound(3, interleave(hands))
	r.Trump = card.Diamonds

	mustPlay(t, r, 0, "7S")
	mustPlay(t, r, 1, "10D")
	mustPlay(t, r, 2, "KS")
	mustPlay(t, r, 3, "9D")

	res, err := r.ResolveTrick()
	if err != nil {
		t.Fatalf("ResolveTrick: %v", err)
	}
	if res.Winner != 3 {
		t.Fatalf("winner: got %d, want 3 (trump 9 outranks trump 10)", res.Winner)
	}
}

// playFullRound drives a whole deal by always playing the first legal
// card, asserting card conservation after every call.
func playFullRound(t *testing.T, r *Round) {
	t.Helper()
	for !r.Done() {
		seat := r.CurrentPlayer
		legal := r.LegalCards(seat)
		if len(legal) == 0 {
			t.Fatalf("seat %d has no legal cards mid-round", seat)
		}
		if err := r.PlayCard(seat, legal[0]); err != nil {
			t.Fatalf("seat %d playing %v: %v", seat, legal[0], err)
		}
		if !cardsConserved(r) {
			t.Fatalf("conservation broken after play")
		}
		if len(r.CurrentTrick) == NumSeats {
			if _, err := r.ResolveTrick(); err != nil {
				t.Fatalf("ResolveTrick: %v", err)
			}
			if !cardsConserved(r) {
				t.Fatalf("conservation broken after resolution")
			}
		}
	}
}

func TestFullRoundAccountsForEveryPoint(t *testing.T) {
	r := NewRound(0, card.NewShuffledDeck())
	playFullRound(t, r)

	if r.TrickCount != TricksPerRound {
		t.Fatalf("trick count: got %d, want %d", r.TrickCount, TricksPerRound)
	}
	for seat, n := range r.HandSizes() {
		if n != 0 {
			t.Fatalf("seat %d still holds %d cards", seat, n)
		}
	}
	// 120 card points in the deck plus the last-trick bonus, once.
	abnat := r.Abnat()
	if total := abnat[TeamA] + abnat[TeamB]; total != 130 {
		t.Fatalf("total abnat: got %d, want 130", total)
	}

	c, _ := card.Parse("7H")
	if err := r.PlayCard(0, c); !errors.Is(err, ErrRoundOver) {
		t.Fatalf("got %v, want ErrRoundOver", err)
	}
}

func TestFinalScoresSanConversion(t *testing.T) {
	cases := []struct {
		name  string
		a, b  int
		wantA int
		wantB int
	}{
		{name: "uneven split", a: 92, b: 70, wantA: 18, wantB: 14},
		{name: "half rounds up", a: 85, b: 45, wantA: 18, wantB: 10},
		{name: "rounds down below half", a: 84, b: 46, wantA: 16, wantB: 10},
		{name: "zero", a: 0, b: 130, wantA: 0, wantB: 26},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Round{abnat: map[Team]int{TeamA: tc.a, TeamB: tc.b}}
			scores := r.FinalScores()
			if scores[TeamA] != tc.wantA || scores[TeamB] != tc.wantB {
				t.Fatalf("got A=%d B=%d, want A=%d B=%d",
					scores[TeamA], scores[TeamB], tc.wantA, tc.wantB)
			}
			again := r.FinalScores()
			if again[TeamA] != scores[TeamA] || again[TeamB] != scores[TeamB] {
				t.Fatalf("FinalScores not idempotent")
			}
		})
	}
}

func TestTeamForSeat(t *testing.T) {
	if TeamForSeat(0) != TeamA || TeamForSeat(2) != TeamA {
		t.Fatalf("seats 0 and 2 must be team A")
	}
	if TeamForSeat(1) != TeamB || TeamForSeat(3) != TeamB {
		t.Fatalf("seats 1 and 3 must be team B")
	}
}
