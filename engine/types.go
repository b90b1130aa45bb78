package engine

import "fmt"

// Color is a card color. Wild is only ever the printed color of a wild card;
// GameState.ActiveColor never holds it once a game has started.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
	Wild   Color = "wild"
)

// PlayableColors lists the four colors a wild card can stand for, in the
// order the deck is built.
var PlayableColors = [4]Color{Red, Blue, Green, Yellow}

// IsPlayable reports whether c is one of the four real colors.
func (c Color) IsPlayable() bool {
	switch c {
	case Red, Blue, Green, Yellow:
		return true
	}
	return false
}

// CardType is the face kind of a card.
type CardType string

const (
	TypeNumber       CardType = "number"
	TypeSkip         CardType = "skip"
	TypeReverse      CardType = "reverse"
	TypeDrawTwo      CardType = "draw_two"
	TypeWild         CardType = "wild"
	TypeWildDrawFour CardType = "wild_draw_four"
)

// Score values used by the deck builder.
const (
	ScoreAction = 20
	ScoreWild   = 50
)

// Card is an immutable playing card. Value is meaningful only for number
// cards.
type Card struct {
	ID    string   `json:"id"`
	Color Color    `json:"color"`
	Type  CardType `json:"type"`
	Value int      `json:"value"`
	Score int      `json:"score"`
}

// IsWild returns true for Wild and WildDrawFour.
func (c Card) IsWild() bool {
	return c.Type == TypeWild || c.Type == TypeWildDrawFour
}

// IsNumber returns true for number cards.
func (c Card) IsNumber() bool { return c.Type == TypeNumber }

// DrawPenalty returns the number of cards the next player is forced to draw.
func (c Card) DrawPenalty() int {
	switch c.Type {
	case TypeDrawTwo:
		return 2
	case TypeWildDrawFour:
		return 4
	}
	return 0
}

// SameFace reports whether two cards are indistinguishable apart from their
// IDs. Jump-in plays require an identical face.
func (c Card) SameFace(o Card) bool {
	if c.Color != o.Color || c.Type != o.Type {
		return false
	}
	return !c.IsNumber() || c.Value == o.Value
}

func (c Card) String() string {
	if c.IsNumber() {
		return fmt.Sprintf("%s %d", c.Color, c.Value)
	}
	if c.IsWild() {
		return string(c.Type)
	}
	return fmt.Sprintf("%s %s", c.Color, c.Type)
}

// Label is the short human readable form used in action messages.
func (c Card) Label() string {
	switch c.Type {
	case TypeNumber:
		return fmt.Sprintf("%d", c.Value)
	case TypeDrawTwo:
		return "draw two"
	case TypeWildDrawFour:
		return "wild draw four"
	}
	return string(c.Type)
}

// Status is the lifecycle phase of a game. It only ever moves forward,
// except for an explicit restart back to Lobby.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusDealing  Status = "dealing"
	StatusPlaying  Status = "playing"
	StatusGameOver Status = "game_over"
)

// Direction of play: +1 clockwise, -1 counter-clockwise.
type Direction int

const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == CounterClockwise {
		return Clockwise
	}
	return CounterClockwise
}

// Effect tags the visible consequence of the last transition. Presentation
// only; no rule reads it.
type Effect string

const (
	EffectNone         Effect = ""
	EffectPlay         Effect = "play"
	EffectSkip         Effect = "skip"
	EffectReverse      Effect = "reverse"
	EffectDrawTwo      Effect = "draw_two"
	EffectWild         Effect = "wild"
	EffectWildDrawFour Effect = "wild_draw_four"
	EffectDraw         Effect = "draw"
	EffectUno          Effect = "uno"
	EffectUnoPenalty   Effect = "uno_penalty"
	EffectSwap         Effect = "swap"
	EffectRotate       Effect = "rotate"
	EffectJumpIn       Effect = "jump_in"
	EffectWin          Effect = "win"
)

// Player is one seat at the table. Slots never change after dealing.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsHuman bool   `json:"isHuman"`
	Hand    []Card `json:"hand"`
}

// CardIndex returns the position of the card with the given ID, or -1.
func (p *Player) CardIndex(id string) int {
	for i := range p.Hand {
		if p.Hand[i].ID == id {
			return i
		}
	}
	return -1
}

// removeCard takes the card at idx out of the hand, keeping the order of the
// remaining cards stable.
func (p *Player) removeCard(idx int) Card {
	c := p.Hand[idx]
	hand := make([]Card, 0, len(p.Hand)-1)
	hand = append(hand, p.Hand[:idx]...)
	hand = append(hand, p.Hand[idx+1:]...)
	p.Hand = hand
	return c
}
