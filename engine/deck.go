package engine

import "fmt"

const (
	DeckSize        = 108
	InitialHandSize = 7
)

// NewDeck builds the canonical 108-card composition in a fixed order:
// per color one 0, two each of 1-9, two each of Skip, Reverse and DrawTwo;
// then four Wild and four WildDrawFour.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	id := 0
	add := func(color Color, typ CardType, value, score int) {
		deck = append(deck, Card{
			ID:    fmt.Sprintf("card-%d", id),
			Color: color,
			Type:  typ,
			Value: value,
			Score: score,
		})
		id++
	}

	for _, color := range PlayableColors {
		add(color, TypeNumber, 0, 0)
		for v := 1; v <= 9; v++ {
			add(color, TypeNumber, v, v)
			add(color, TypeNumber, v, v)
		}
		for _, typ := range [...]CardType{TypeSkip, TypeReverse, TypeDrawTwo} {
			add(color, typ, 0, ScoreAction)
			add(color, typ, 0, ScoreAction)
		}
	}
	for i := 0; i < 4; i++ {
		add(Wild, TypeWild, 0, ScoreWild)
		add(Wild, TypeWildDrawFour, 0, ScoreWild)
	}
	return deck
}

// GenerateDeck returns a freshly shuffled full deck.
func GenerateDeck(rng Rand) []Card {
	deck := NewDeck()
	Shuffle(deck, rng)
	return deck
}

// Shuffle permutes cards in place (Fisher-Yates).
func Shuffle(cards []Card, rng Rand) {
	if rng == nil {
		rng = DefaultRand
	}
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Draw moves up to count cards from the top of the draw pile (its end) into
// the player's hand and returns the cards actually drawn. When the draw pile
// runs out the discard pile is recycled; if that is impossible too, drawing
// stops early.
func (g *GameState) Draw(player, count int) []Card {
	drawn := make([]Card, 0, count)
	for i := 0; i < count; i++ {
		if len(g.DrawPile) == 0 && !g.reshuffle() {
			break
		}
		last := len(g.DrawPile) - 1
		c := g.DrawPile[last]
		g.DrawPile = g.DrawPile[:last]
		g.Players[player].Hand = append(g.Players[player].Hand, c)
		drawn = append(drawn, c)
	}
	return drawn
}

// reshuffle moves every discard card except the top one into the draw pile
// and shuffles it. It reports false when the discard pile has at most one
// card.
func (g *GameState) reshuffle() bool {
	if len(g.DiscardPile) <= 1 {
		return false
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	rest := make([]Card, len(g.DiscardPile)-1)
	copy(rest, g.DiscardPile[:len(g.DiscardPile)-1])
	Shuffle(rest, g.random())

	g.DrawPile = append(g.DrawPile, rest...)
	g.DiscardPile = []Card{top}
	g.reshuffles++
	return true
}
