package engine

import "errors"

var (
	ErrBadStatus        = errors.New("action not allowed in this game status")
	ErrGameNotPlaying   = errors.New("game is not in progress")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNoSuchPlayer     = errors.New("no such player")
	ErrCardNotInHand    = errors.New("card not in hand")
	ErrIllegalPlay      = errors.New("card cannot be played on the current discard")
	ErrColorRequired    = errors.New("wild card needs a color choice")
	ErrInvalidColor     = errors.New("invalid color choice")
	ErrMustPlay         = errors.New("must play a legal card instead of drawing")
	ErrJumpInNotAllowed = errors.New("jump-in not allowed")
	ErrInvalidTarget    = errors.New("invalid swap target")
)

// IsValidPlay reports whether card may be played on top given the active
// color. Wild cards are always legal. On a wild top only the active color
// matches; otherwise color, number value, or card type match. Any number
// card matches a number top by type.
func IsValidPlay(card, top Card, activeColor Color) bool {
	if card.IsWild() {
		return true
	}
	if top.IsWild() {
		return card.Color == activeColor
	}
	if card.Color == activeColor {
		return true
	}
	return card.Type == top.Type
}

// CanPlay applies IsValidPlay plus the variant gates: while a draw stack is
// pending only another draw card may answer it.
func (g *GameState) CanPlay(card Card) bool {
	if g.DrawStack > 0 && card.DrawPenalty() == 0 {
		return false
	}
	return IsValidPlay(card, g.TopCard(), g.ActiveColor)
}

// LegalPlays returns the cards in the player's hand that may be played now.
func (g *GameState) LegalPlays(player int) []Card {
	if player < 0 || player >= len(g.Players) {
		return nil
	}
	var out []Card
	for _, c := range g.Players[player].Hand {
		if g.CanPlay(c) {
			out = append(out, c)
		}
	}
	return out
}

// HasLegalPlay reports whether the player holds at least one playable card.
func (g *GameState) HasLegalPlay(player int) bool {
	for _, c := range g.Players[player].Hand {
		if g.CanPlay(c) {
			return true
		}
	}
	return false
}

// checkTurn validates that the game is running and that player is on turn.
func (g *GameState) checkTurn(player int) error {
	if g.Status != StatusPlaying {
		return ErrGameNotPlaying
	}
	if player < 0 || player >= len(g.Players) {
		return ErrNoSuchPlayer
	}
	if player != g.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	return nil
}
