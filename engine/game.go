// Package engine implements the UNO rules: the deck, play validation, and
// the state transitions for plays, draws, and the rule variants.
//
// GameState is a plain JSON-serializable value. Callers that need atomic
// transitions clone it, apply an operation to the clone, and keep the clone
// only if the operation succeeded. Every operation validates before it
// mutates, so a failed call leaves the receiver untouched.
package engine

import (
	"errors"
	"fmt"
)

const (
	MinPlayers = 2
	MaxPlayers = 10

	// NoWinner is the Winner value before the game is over.
	NoWinner = -1
)

var ErrPlayerCount = errors.New("player count out of range")

// GameState is the complete state of one game.
type GameState struct {
	DrawPile           []Card    `json:"drawPile"`
	DiscardPile        []Card    `json:"discardPile"`
	Players            []Player  `json:"players"`
	CurrentPlayerIndex int       `json:"currentPlayerIndex"`
	Direction          Direction `json:"direction"`
	Status             Status    `json:"status"`
	Winner             int       `json:"winner"`
	ActiveColor        Color     `json:"activeColor"`
	DrawStack          int       `json:"drawStack"`
	LastActionMessage  string    `json:"lastActionMessage"`
	Rules              GameRules `json:"rules"`

	// UnoCalled is set by the current player's explicit declaration and
	// cleared at the start of every turn and after every resolved play.
	UnoCalled bool `json:"unoCalled"`
	// DrawnCardID is the playable card a draw-until-play draw left in the
	// current player's hand; the turn stays with them until they play or pass.
	DrawnCardID string `json:"drawnCardId,omitempty"`
	// TurnID increments on every turn change.
	TurnID     int    `json:"turnId"`
	LastEffect Effect `json:"lastEffect,omitempty"`

	rng        Rand
	reshuffles int
}

// Seat describes a player before dealing.
type Seat struct {
	ID      string
	Name    string
	IsHuman bool
}

// DefaultSeats returns the solo-mode seating: slot 0 is the human, the rest
// are AI opponents. It returns nil when n < 1.
func DefaultSeats(n int) []Seat {
	if n < 1 {
		return nil
	}
	seats := make([]Seat, n)
	seats[0] = Seat{ID: "0", Name: "You", IsHuman: true}
	for i := 1; i < n; i++ {
		seats[i] = Seat{ID: fmt.Sprintf("%d", i), Name: fmt.Sprintf("CPU %d", i)}
	}
	return seats
}

// NewLobby returns an empty state in the Lobby status.
func NewLobby(rules GameRules) GameState {
	return GameState{
		Direction:   Clockwise,
		Status:      StatusLobby,
		Winner:      NoWinner,
		ActiveColor: Red,
		Rules:       rules,
	}
}

// NewGame shuffles a fresh deck, deals InitialHandSize cards to every seat,
// turns up an opening card, and returns the state in the Dealing status.
func NewGame(seats []Seat, rules GameRules, rng Rand) (GameState, error) {
	if len(seats) < MinPlayers || len(seats) > MaxPlayers {
		return GameState{}, fmt.Errorf("%w: %d (want %d-%d)", ErrPlayerCount, len(seats), MinPlayers, MaxPlayers)
	}
	if rng == nil {
		rng = DefaultRand
	}

	g := NewLobby(rules)
	g.rng = rng
	g.DrawPile = GenerateDeck(rng)
	g.Players = make([]Player, len(seats))
	for i, s := range seats {
		g.Players[i] = Player{ID: s.ID, Name: s.Name, IsHuman: s.IsHuman, Hand: make([]Card, 0, InitialHandSize)}
	}

	for i := range g.Players {
		g.Draw(i, InitialHandSize)
	}
	g.turnUpOpeningCard()

	g.Status = StatusDealing
	g.LastActionMessage = fmt.Sprintf("Starting %s Game...", rules.ModeName)
	return g, nil
}

// turnUpOpeningCard flips the first discard. A WildDrawFour goes back into
// the pile, which is reshuffled, until something else comes up. An opening
// plain Wild stands for Red.
func (g *GameState) turnUpOpeningCard() {
	for {
		last := len(g.DrawPile) - 1
		first := g.DrawPile[last]
		g.DrawPile = g.DrawPile[:last]
		if first.Type == TypeWildDrawFour {
			g.DrawPile = append(g.DrawPile, first)
			Shuffle(g.DrawPile, g.random())
			continue
		}
		g.DiscardPile = []Card{first}
		if first.IsWild() {
			g.ActiveColor = Red
		} else {
			g.ActiveColor = first.Color
		}
		return
	}
}

// BeginPlay moves a dealt game into the Playing status.
func (g *GameState) BeginPlay() error {
	if g.Status != StatusDealing {
		return fmt.Errorf("%w: cannot begin play from %s", ErrBadStatus, g.Status)
	}
	g.Status = StatusPlaying
	g.LastActionMessage = "Game Started!"
	return nil
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// TopCard returns the active card on the discard pile.
func (g *GameState) TopCard() Card {
	if len(g.DiscardPile) == 0 {
		return Card{}
	}
	return g.DiscardPile[len(g.DiscardPile)-1]
}

// CurrentPlayer returns the player whose turn it is.
func (g *GameState) CurrentPlayer() *Player {
	if g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return nil
	}
	return &g.Players[g.CurrentPlayerIndex]
}

// IsOver reports whether the game has a winner.
func (g *GameState) IsOver() bool { return g.Status == StatusGameOver }

// WinnerPlayer returns the winner, or nil before GameOver.
func (g *GameState) WinnerPlayer() *Player {
	if g.Winner < 0 || g.Winner >= len(g.Players) {
		return nil
	}
	return &g.Players[g.Winner]
}

// HandLen returns the number of cards in the given player's hand, or 0
// for an unknown slot.
func (g *GameState) HandLen(player int) int {
	if player < 0 || player >= len(g.Players) {
		return 0
	}
	return len(g.Players[player].Hand)
}

// TotalCards counts every card in the draw pile, discard pile and hands.
// It equals DeckSize for the whole life of a game.
func (g *GameState) TotalCards() int {
	n := len(g.DrawPile) + len(g.DiscardPile)
	for i := range g.Players {
		n += len(g.Players[i].Hand)
	}
	return n
}

// SeatByID returns the slot of the player with the given ID, or -1.
func (g *GameState) SeatByID(id string) int {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// Reshuffles returns how many times the discard pile was recycled through
// this value. It is not carried over the wire.
func (g *GameState) Reshuffles() int { return g.reshuffles }

// NextPlayerIndex steps one seat in the given direction, wrapping around.
func NextPlayerIndex(current int, dir Direction, total int) int {
	next := current + int(dir)
	if next < 0 {
		next = total - 1
	}
	if next >= total {
		next = 0
	}
	return next
}

// nextIndex steps one seat from the given one in the current direction.
func (g *GameState) nextIndex(from int) int {
	return NextPlayerIndex(from, g.Direction, len(g.Players))
}

// ---------------------------------------------------------------------------
// Randomness and copies
// ---------------------------------------------------------------------------

// SetRand sets the random source used for reshuffles.
func (g *GameState) SetRand(rng Rand) { g.rng = rng }

func (g *GameState) random() Rand {
	if g.rng == nil {
		return DefaultRand
	}
	return g.rng
}

// Clone returns a deep copy that shares no slices with g.
func (g *GameState) Clone() GameState {
	c := *g
	c.DrawPile = cloneCards(g.DrawPile)
	c.DiscardPile = cloneCards(g.DiscardPile)
	c.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		p.Hand = cloneCards(p.Hand)
		c.Players[i] = p
	}
	return c
}

func cloneCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
