package card

import "testing"

func TestNewDeckHas32DistinctCards(t *testing.T) {
	deck := NewDeck()
	if len(deck) != DeckSize {
		t.Fatalf("deck size: got %d, want %d", len(deck), DeckSize)
	}
	seen := map[Card]bool{}
	for _, c := range deck {
		if seen[c] {
			t.Fatalf("duplicate card %v in deck", c)
		}
		seen[c] = true
	}
}

func TestShuffleIsAPermutation(t *testing.T) {
	deck := NewDeck()
	shuffled := Shuffle(deck)
	if len(shuffled) != len(deck) {
		t.Fatalf("shuffle changed deck size: %d", len(shuffled))
	}
	seen := map[Card]bool{}
	for _, c := range shuffled {
		seen[c] = true
	}
	for _, c := range deck {
		if !seen[c] {
			t.Fatalf("card %v missing after shuffle", c)
		}
	}
}

func TestPointValues(t *testing.T) {
	cases := []struct {
		rank Rank
		want int
	}{
		{Seven, 0}, {Eight, 0}, {Nine, 0},
		{Jack, 2}, {Queen, 3}, {King, 4},
		{Ten, 10}, {Ace, 11},
	}
	for _, tc := range cases {
		c := Card{Suit: Hearts, Rank: tc.rank}
		if got := c.Points(); got != tc.want {
			t.Fatalf("%v points: got %d, want %d", tc.rank, got, tc.want)
		}
	}
}

func TestStrengthOrders(t *testing.T) {
	// San: 7 < 8 < 9 < J < Q < K < 10 < A
	san := []Rank{Seven, Eight, Nine, Jack, Queen, King, Ten, Ace}
	for i := 1; i < len(san); i++ {
		lo := Card{Suit: Spades, Rank: san[i-1]}
		hi := Card{Suit: Spades, Rank: san[i]}
		if lo.Strength() >= hi.Strength() {
			t.Fatalf("san order: %v should be weaker than %v", lo, hi)
		}
	}

	// Trump: 7 < 8 < Q < K < 10 < A < 9 < J
	trump := []Rank{Seven, Eight, Queen, King, Ten, Ace, Nine, Jack}
	for i := 1; i < len(trump); i++ {
		lo := Card{Suit: Spades, Rank: trump[i-1]}
		hi := Card{Suit: Spades, Rank: trump[i]}
		if lo.TrumpStrength() >= hi.TrumpStrength() {
			t.Fatalf("trump order: %v should be weaker than %v", lo, hi)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	cases := []struct {
		token string
		want  Card
	}{
		{"7H", Card{Suit: Hearts, Rank: Seven}},
		{"10D", Card{Suit: Diamonds, Rank: Ten}},
		{"AS", Card{Suit: Spades, Rank: Ace}},
		{"QC", Card{Suit: Clubs, Rank: Queen}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.token)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.token, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q): got %v, want %v", tc.token, got, tc.want)
		}
		if got.String() != tc.token {
			t.Fatalf("String(): got %q, want %q", got.String(), tc.token)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "H", "11H", "7X", "BH"} {
		if _, err := Parse(token); err == nil {
			t.Fatalf("Parse(%q): expected error", token)
		}
	}
}

func TestSortHandGroupsSuits(t *testing.T) {
	hand := []Card{
		{Suit: Spades, Rank: Ace},
		{Suit: Hearts, Rank: Ten},
		{Suit: Spades, Rank: Seven},
		{Suit: Hearts, Rank: Seven},
	}
	SortHand(hand)
	want := []Card{
		{Suit: Hearts, Rank: Seven},
		{Suit: Hearts, Rank: Ten},
		{Suit: Spades, Rank: Seven},
		{Suit: Spades, Rank: Ace},
	}
	for i := range want {
		if hand[i] != want[i] {
			t.Fatalf("sorted hand[%d]: got %v, want %v", i, hand[i], want[i])
		}
	}
}
