// Package agent holds the computer opponents. A Strategy is picked once when
// a game starts and consulted on every AI turn.
package agent

import (
	"strings"

	"github.com/Dsabo2007/UNO/engine"
)

// Difficulty selects a Strategy.
type Difficulty string

const (
	Easy Difficulty = "easy"
	Hard Difficulty = "hard"
)

// ParseDifficulty maps user input to a Difficulty. Unknown input yields Hard
// with ok=false.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, true
	case "hard", "":
		return Hard, true
	}
	return Hard, false
}

// Strategy decides for an AI seat.
type Strategy interface {
	// Pick chooses among cards that are already known to be legal. It
	// returns false only when legal is empty.
	Pick(legal []engine.Card) (engine.Card, bool)
	// ChooseColor names the color for a wild card given the hand left after
	// playing it.
	ChooseColor(hand []engine.Card) engine.Color
	// ChooseSwapTarget returns the seat a 7 swaps hands with.
	ChooseSwapTarget(state *engine.GameState, player int) int
}

// ForDifficulty returns the strategy for d. A nil rng uses engine.DefaultRand.
func ForDifficulty(d Difficulty, rng engine.Rand) Strategy {
	if d == Easy {
		return NewRandomStrategy(rng)
	}
	return NewGreedyStrategy(rng)
}

// ChooseMove filters hand down to the cards playable on top and lets s pick
// one. It returns false when the player must draw.
func ChooseMove(hand []engine.Card, top engine.Card, activeColor engine.Color, s Strategy) (engine.Card, bool) {
	var legal []engine.Card
	for _, c := range hand {
		if engine.IsValidPlay(c, top, activeColor) {
			legal = append(legal, c)
		}
	}
	return s.Pick(legal)
}

// Move is ChooseMove against a full state, so variant gates such as a
// pending draw stack are honored.
func Move(state *engine.GameState, player int, s Strategy) (engine.Card, bool) {
	return s.Pick(state.LegalPlays(player))
}

// ChooseColor is the package-level form of s.ChooseColor.
func ChooseColor(hand []engine.Card, s Strategy) engine.Color {
	return s.ChooseColor(hand)
}

// ---------------------------------------------------------------------------
// Easy
// ---------------------------------------------------------------------------

// RandomStrategy plays a uniformly random legal card and names a random
// color.
type RandomStrategy struct {
	rng engine.Rand
}

func NewRandomStrategy(rng engine.Rand) *RandomStrategy {
	if rng == nil {
		rng = engine.DefaultRand
	}
	return &RandomStrategy{rng: rng}
}

func (s *RandomStrategy) Pick(legal []engine.Card) (engine.Card, bool) {
	if len(legal) == 0 {
		return engine.Card{}, false
	}
	return legal[s.rng.IntN(len(legal))], true
}

func (s *RandomStrategy) ChooseColor([]engine.Card) engine.Color {
	return engine.PlayableColors[s.rng.IntN(len(engine.PlayableColors))]
}

func (s *RandomStrategy) ChooseSwapTarget(state *engine.GameState, player int) int {
	n := len(state.Players)
	if n < 2 {
		return -1
	}
	t := s.rng.IntN(n - 1)
	if t >= player {
		t++
	}
	return t
}

// ---------------------------------------------------------------------------
// Hard
// ---------------------------------------------------------------------------

// GreedyStrategy attacks first and dumps points: DrawTwo, WildDrawFour,
// Skip or Reverse, the highest scoring number, a plain Wild, and finally
// whatever legal card is left. It names the color it holds most of.
type GreedyStrategy struct {
	rng engine.Rand
}

func NewGreedyStrategy(rng engine.Rand) *GreedyStrategy {
	if rng == nil {
		rng = engine.DefaultRand
	}
	return &GreedyStrategy{rng: rng}
}

func (s *GreedyStrategy) Pick(legal []engine.Card) (engine.Card, bool) {
	if len(legal) == 0 {
		return engine.Card{}, false
	}
	if c, ok := first(legal, engine.TypeDrawTwo); ok {
		return c, true
	}
	if c, ok := first(legal, engine.TypeWildDrawFour); ok {
		return c, true
	}
	if c, ok := first(legal, engine.TypeSkip, engine.TypeReverse); ok {
		return c, true
	}

	best := -1
	for i, c := range legal {
		if c.IsNumber() && (best < 0 || c.Score > legal[best].Score) {
			best = i
		}
	}
	if best >= 0 {
		return legal[best], true
	}

	if c, ok := first(legal, engine.TypeWild); ok {
		return c, true
	}
	return legal[0], true
}

func (s *GreedyStrategy) ChooseColor(hand []engine.Card) engine.Color {
	var counts [len(engine.PlayableColors)]int
	for _, c := range hand {
		for i, color := range engine.PlayableColors {
			if c.Color == color {
				counts[i]++
			}
		}
	}

	most := -1
	var tied []engine.Color
	for i, n := range counts {
		switch {
		case n > most:
			most = n
			tied = append(tied[:0], engine.PlayableColors[i])
		case n == most:
			tied = append(tied, engine.PlayableColors[i])
		}
	}
	return tied[s.rng.IntN(len(tied))]
}

// ChooseSwapTarget takes the smallest opponent hand, the first in the
// direction of play on ties.
func (s *GreedyStrategy) ChooseSwapTarget(state *engine.GameState, player int) int {
	n := len(state.Players)
	best := -1
	for step := 1; step < n; step++ {
		i := ((player+step*int(state.Direction))%n + n) % n
		if best < 0 || state.HandLen(i) < state.HandLen(best) {
			best = i
		}
	}
	return best
}

func first(cards []engine.Card, types ...engine.CardType) (engine.Card, bool) {
	for _, c := range cards {
		for _, t := range types {
			if c.Type == t {
				return c, true
			}
		}
	}
	return engine.Card{}, false
}
