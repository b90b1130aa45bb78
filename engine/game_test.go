package engine

import (
	"errors"
	"fmt"
	"testing"
)

// num, action and wild build fixture cards with readable IDs.
func num(color Color, v int) Card {
	return Card{ID: fmt.Sprintf("%s-%d", color, v), Color: color, Type: TypeNumber, Value: v, Score: v}
}

func action(color Color, typ CardType) Card {
	return Card{ID: fmt.Sprintf("%s-%s", color, typ), Color: color, Type: typ, Score: ScoreAction}
}

func wild(typ CardType, n int) Card {
	return Card{ID: fmt.Sprintf("%s-%d", typ, n), Color: Wild, Type: typ, Score: ScoreWild}
}

// filler returns n distinct number cards for draw piles.
func filler(n int) []Card {
	out := make([]Card, n)
	for i := range out {
		out[i] = Card{ID: fmt.Sprintf("fill-%d", i), Color: Yellow, Type: TypeNumber, Value: 9, Score: 9}
	}
	return out
}

// newFixture returns a Playing state with the given hands and top card.
// Seat 0 is human, the others are AI, and the draw pile holds 20 filler
// cards.
func newFixture(t *testing.T, rules GameRules, top Card, hands ...[]Card) *GameState {
	t.Helper()
	g := NewLobby(rules)
	g.SetRand(NewXorShift(7))
	g.Status = StatusPlaying
	g.DrawPile = filler(20)
	g.DiscardPile = []Card{top}
	if top.IsWild() {
		g.ActiveColor = Red
	} else {
		g.ActiveColor = top.Color
	}
	for i, h := range hands {
		g.Players = append(g.Players, Player{
			ID:      fmt.Sprintf("%d", i),
			Name:    fmt.Sprintf("P%d", i),
			IsHuman: i == 0,
			Hand:    append([]Card(nil), h...),
		})
	}
	return &g
}

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	if len(deck) != DeckSize {
		t.Fatalf("len(deck) = %d, want %d", len(deck), DeckSize)
	}

	ids := make(map[string]bool)
	counts := make(map[CardType]int)
	zeros := 0
	for _, c := range deck {
		if ids[c.ID] {
			t.Errorf("duplicate card id %s", c.ID)
		}
		ids[c.ID] = true
		counts[c.Type]++
		if c.IsNumber() && c.Value == 0 {
			zeros++
		}
		if c.IsWild() != (c.Color == Wild) {
			t.Errorf("card %s: wild type and wild color disagree", c.ID)
		}
	}

	want := map[CardType]int{
		TypeNumber:       76,
		TypeSkip:         8,
		TypeReverse:      8,
		TypeDrawTwo:      8,
		TypeWild:         4,
		TypeWildDrawFour: 4,
	}
	for typ, n := range want {
		if counts[typ] != n {
			t.Errorf("count(%s) = %d, want %d", typ, counts[typ], n)
		}
	}
	if zeros != 4 {
		t.Errorf("zeros = %d, want 4", zeros)
	}
}

func TestCardScores(t *testing.T) {
	for _, c := range NewDeck() {
		var want int
		switch {
		case c.IsNumber():
			want = c.Value
		case c.IsWild():
			want = ScoreWild
		default:
			want = ScoreAction
		}
		if c.Score != want {
			t.Errorf("%s score = %d, want %d", c, c.Score, want)
		}
	}
}

func TestShuffleDeterministicWithSeed(t *testing.T) {
	a := GenerateDeck(NewXorShift(99))
	b := GenerateDeck(NewXorShift(99))
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("decks diverge at %d: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}

	canonical := NewDeck()
	moved := 0
	for i := range a {
		if a[i].ID != canonical[i].ID {
			moved++
		}
	}
	if moved == 0 {
		t.Error("shuffled deck is identical to the canonical order")
	}
}

func TestNewGameDeals(t *testing.T) {
	g, err := NewGame(DefaultSeats(4), NormalRules(), NewXorShift(42))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	if g.Status != StatusDealing {
		t.Errorf("Status = %s, want %s", g.Status, StatusDealing)
	}
	for i, p := range g.Players {
		if len(p.Hand) != InitialHandSize {
			t.Errorf("player %d hand = %d, want %d", i, len(p.Hand), InitialHandSize)
		}
		if p.IsHuman != (i == 0) {
			t.Errorf("player %d IsHuman = %v", i, p.IsHuman)
		}
	}
	if len(g.DiscardPile) != 1 {
		t.Errorf("discard = %d, want 1", len(g.DiscardPile))
	}
	if got := g.TotalCards(); got != DeckSize {
		t.Errorf("TotalCards = %d, want %d", got, DeckSize)
	}
	if !g.ActiveColor.IsPlayable() {
		t.Errorf("ActiveColor = %q", g.ActiveColor)
	}
	if g.Winner != NoWinner || g.CurrentPlayerIndex != 0 || g.Direction != Clockwise {
		t.Errorf("unexpected initial turn state: winner=%d current=%d dir=%d", g.Winner, g.CurrentPlayerIndex, g.Direction)
	}
}

func TestNewGamePlayerCount(t *testing.T) {
	for _, n := range []int{0, 1, MaxPlayers + 1} {
		seats := make([]Seat, n)
		if _, err := NewGame(seats, NormalRules(), nil); !errors.Is(err, ErrPlayerCount) {
			t.Errorf("NewGame(%d seats) err = %v, want ErrPlayerCount", n, err)
		}
	}
}

func TestDefaultSeats(t *testing.T) {
	for _, n := range []int{-1, 0} {
		if seats := DefaultSeats(n); seats != nil {
			t.Errorf("DefaultSeats(%d) = %v, want nil", n, seats)
		}
	}
	if _, err := NewGame(DefaultSeats(0), NormalRules(), nil); !errors.Is(err, ErrPlayerCount) {
		t.Errorf("NewGame(DefaultSeats(0)) err = %v, want ErrPlayerCount", err)
	}

	seats := DefaultSeats(3)
	if len(seats) != 3 || !seats[0].IsHuman || seats[1].IsHuman || seats[2].Name != "CPU 2" {
		t.Errorf("DefaultSeats(3) = %+v", seats)
	}
}

func TestHandLenUnknownSlot(t *testing.T) {
	g := newFixture(t, NormalRules(), num(Red, 3), []Card{num(Red, 5), num(Blue, 1)}, []Card{num(Blue, 7)})

	if got := g.HandLen(0); got != 2 {
		t.Errorf("HandLen(0) = %d, want 2", got)
	}
	for _, slot := range []int{-1, 2, 9} {
		if got := g.HandLen(slot); got != 0 {
			t.Errorf("HandLen(%d) = %d, want 0", slot, got)
		}
	}
}

func TestOpeningCardNeverWildDrawFour(t *testing.T) {
	for seed := uint64(1); seed <= 500; seed++ {
		g, err := NewGame(DefaultSeats(2), NormalRules(), NewXorShift(seed))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if g.TopCard().Type == TypeWildDrawFour {
			t.Fatalf("seed %d: opening card is WildDrawFour", seed)
		}
		if g.TotalCards() != DeckSize {
			t.Fatalf("seed %d: TotalCards = %d", seed, g.TotalCards())
		}
	}
}

func TestOpeningWildDrawFourIsReturned(t *testing.T) {
	g := NewLobby(NormalRules())
	g.SetRand(NewXorShift(3))
	g.DrawPile = []Card{num(Blue, 4), wild(TypeWildDrawFour, 0)}

	g.turnUpOpeningCard()

	if len(g.DiscardPile) != 1 || g.TopCard().Type == TypeWildDrawFour {
		t.Fatalf("top = %s, want a non-WildDrawFour card", g.TopCard())
	}
	if len(g.DrawPile) != 1 || g.DrawPile[0].Type != TypeWildDrawFour {
		t.Errorf("WildDrawFour should be back in the draw pile, got %v", g.DrawPile)
	}
	if g.ActiveColor != Blue {
		t.Errorf("ActiveColor = %s, want blue", g.ActiveColor)
	}
}

func TestOpeningWildDefaultsToRed(t *testing.T) {
	g := NewLobby(NormalRules())
	g.ActiveColor = Green
	g.DrawPile = []Card{wild(TypeWild, 0)}

	g.turnUpOpeningCard()

	if g.ActiveColor != Red {
		t.Errorf("ActiveColor = %s, want red", g.ActiveColor)
	}
}

func TestBeginPlay(t *testing.T) {
	g, _ := NewGame(DefaultSeats(2), NormalRules(), NewXorShift(1))
	if err := g.BeginPlay(); err != nil {
		t.Fatalf("BeginPlay: %v", err)
	}
	if g.Status != StatusPlaying {
		t.Errorf("Status = %s", g.Status)
	}
	if err := g.BeginPlay(); !errors.Is(err, ErrBadStatus) {
		t.Errorf("second BeginPlay err = %v, want ErrBadStatus", err)
	}
}

func TestNextPlayerIndex(t *testing.T) {
	tests := []struct {
		current int
		dir     Direction
		total   int
		want    int
	}{
		{0, Clockwise, 4, 1},
		{3, Clockwise, 4, 0},
		{0, CounterClockwise, 4, 3},
		{2, CounterClockwise, 4, 1},
		{1, Clockwise, 2, 0},
		{0, CounterClockwise, 2, 1},
	}
	for _, tt := range tests {
		if got := NextPlayerIndex(tt.current, tt.dir, tt.total); got != tt.want {
			t.Errorf("NextPlayerIndex(%d, %d, %d) = %d, want %d", tt.current, tt.dir, tt.total, got, tt.want)
		}
	}
}

func TestCloneSharesNothing(t *testing.T) {
	g, _ := NewGame(DefaultSeats(3), NormalRules(), NewXorShift(5))
	c := g.Clone()

	c.Players[0].Hand[0] = Card{ID: "changed"}
	c.DrawPile[0] = Card{ID: "changed"}
	c.DiscardPile[0] = Card{ID: "changed"}

	if g.Players[0].Hand[0].ID == "changed" || g.DrawPile[0].ID == "changed" || g.DiscardPile[0].ID == "changed" {
		t.Error("Clone shares slices with the original")
	}
}

func TestRulesByName(t *testing.T) {
	r, ok := RulesByName("No Mercy")
	if !ok || !r.Stacking || r.UnoPenaltyCount != 4 {
		t.Errorf("No Mercy preset = %+v, ok=%v", r, ok)
	}
	if _, ok := RulesByName("Chaos"); ok {
		t.Error("unknown preset reported ok")
	}
}
