package engine

import "fmt"

// Choice carries the player's decisions that accompany a play.
type Choice struct {
	// Color is required for Wild and WildDrawFour and ignored otherwise.
	Color Color
	// SwapWithID names the seat a 7 swaps hands with under the SevenZero
	// rule. Empty picks the opponent holding the fewest cards.
	SwapWithID string
	// DeclareUno declares UNO together with the play.
	DeclareUno bool
}

// Outcome summarizes a transition for event fan-out.
type Outcome struct {
	Player  int
	Card    *Card
	Effect  Effect
	Drawn   []Card // cards drawn by Player, or by Victim for forced draws
	Penalty []Card // missed-UNO penalty cards
	Victim  int    // seat hit by a forced draw, or -1
	Passed  bool   // turn passed without a card being played
}

// PlayCard plays the card with the given ID from the current player's hand.
func (g *GameState) PlayCard(player int, cardID string, choice Choice) (Outcome, error) {
	if err := g.checkTurn(player); err != nil {
		return Outcome{}, err
	}
	idx, err := g.validatePlay(player, cardID, choice)
	if err != nil {
		return Outcome{}, err
	}
	if !g.CanPlay(g.Players[player].Hand[idx]) {
		return Outcome{}, ErrIllegalPlay
	}
	return g.resolvePlay(player, idx, choice), nil
}

// JumpIn plays a card identical to the top discard out of turn. Play then
// continues from the jumper.
func (g *GameState) JumpIn(player int, cardID string, choice Choice) (Outcome, error) {
	if g.Status != StatusPlaying {
		return Outcome{}, ErrGameNotPlaying
	}
	if !g.Rules.JumpIn || g.DrawStack > 0 {
		return Outcome{}, ErrJumpInNotAllowed
	}
	if player < 0 || player >= len(g.Players) {
		return Outcome{}, ErrNoSuchPlayer
	}
	idx, err := g.validatePlay(player, cardID, choice)
	if err != nil {
		return Outcome{}, err
	}
	if !g.Players[player].Hand[idx].SameFace(g.TopCard()) {
		return Outcome{}, ErrIllegalPlay
	}

	if player != g.CurrentPlayerIndex {
		g.CurrentPlayerIndex = player
		g.TurnID++
		g.UnoCalled = false
	}
	out := g.resolvePlay(player, idx, choice)
	if !g.IsOver() {
		g.LastEffect = EffectJumpIn
		g.LastActionMessage = fmt.Sprintf("%s jumped in! %s", g.Players[player].Name, g.LastActionMessage)
	}
	return out, nil
}

// validatePlay checks everything about a play except its legality against
// the discard pile, and returns the hand index of the card.
func (g *GameState) validatePlay(player int, cardID string, choice Choice) (int, error) {
	p := &g.Players[player]
	idx := p.CardIndex(cardID)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrCardNotInHand, cardID)
	}
	card := p.Hand[idx]
	if card.IsWild() {
		if choice.Color == "" {
			return -1, ErrColorRequired
		}
		if !choice.Color.IsPlayable() {
			return -1, fmt.Errorf("%w: %q", ErrInvalidColor, choice.Color)
		}
	}
	if g.Rules.SevenZero && card.IsNumber() && card.Value == 7 && choice.SwapWithID != "" {
		target := g.SeatByID(choice.SwapWithID)
		if target < 0 || target == player {
			return -1, fmt.Errorf("%w: %q", ErrInvalidTarget, choice.SwapWithID)
		}
	}
	return idx, nil
}

// resolvePlay applies an already validated play: discard, win check,
// missed-UNO penalty, hand swaps, turn effects, and the turn advance.
func (g *GameState) resolvePlay(player, idx int, choice Choice) Outcome {
	p := &g.Players[player]
	card := p.removeCard(idx)
	g.DiscardPile = append(g.DiscardPile, card)
	g.DrawnCardID = ""

	if card.IsWild() {
		g.ActiveColor = choice.Color
	} else {
		g.ActiveColor = card.Color
	}

	out := Outcome{Player: player, Card: &card, Effect: effectOf(card), Victim: -1}

	// A winning card ends the game before any of its effects fire.
	if len(p.Hand) == 0 {
		g.Status = StatusGameOver
		g.Winner = player
		g.UnoCalled = false
		g.DrawStack = 0
		g.LastEffect = EffectWin
		g.LastActionMessage = fmt.Sprintf("%s plays their last card and WINS!", p.Name)
		out.Effect = EffectWin
		return out
	}

	suffix := ""
	if len(p.Hand) == 1 {
		if p.IsHuman && !(g.UnoCalled || choice.DeclareUno) {
			n := g.Rules.penaltyCount()
			out.Penalty = g.Draw(player, n)
			out.Effect = EffectUnoPenalty
			suffix = fmt.Sprintf(" (Forgot UNO! +%d)", n)
		} else if out.Effect == EffectPlay {
			out.Effect = EffectUno
		}
	}

	if g.Rules.SevenZero && card.IsNumber() {
		switch card.Value {
		case 7:
			target := g.swapTarget(player, choice.SwapWithID)
			g.Players[player].Hand, g.Players[target].Hand = g.Players[target].Hand, g.Players[player].Hand
			suffix += fmt.Sprintf(" and swapped hands with %s", g.Players[target].Name)
			if out.Effect == EffectPlay {
				out.Effect = EffectSwap
			}
		case 0:
			g.rotateHands()
			suffix += " and rotated all hands"
			if out.Effect == EffectPlay {
				out.Effect = EffectRotate
			}
		}
	}

	skip := false
	switch card.Type {
	case TypeSkip:
		skip = true
	case TypeReverse:
		if len(g.Players) == 2 {
			skip = true
		} else {
			g.Direction = g.Direction.Flip()
		}
	}

	next := g.nextIndex(player)
	if skip {
		next = g.nextIndex(next)
	}

	if n := card.DrawPenalty(); n > 0 {
		if g.Rules.Stacking {
			g.DrawStack += n
			suffix += fmt.Sprintf(" (stack +%d)", g.DrawStack)
		} else {
			out.Victim = next
			out.Drawn = g.Draw(next, n)
			next = g.nextIndex(next)
		}
	}

	g.LastActionMessage = fmt.Sprintf("%s played %s%s", p.Name, card.Label(), suffix)
	g.LastEffect = out.Effect
	g.startTurn(next)
	return out
}

// DrawCard is a voluntary draw by the current player. A pending draw stack
// is taken whole; otherwise one card is drawn (or, under DrawUntilPlay,
// cards until a playable one arrives) and the turn passes.
func (g *GameState) DrawCard(player int) (Outcome, error) {
	if err := g.checkTurn(player); err != nil {
		return Outcome{}, err
	}
	p := &g.Players[player]
	out := Outcome{Player: player, Effect: EffectDraw, Victim: -1, Passed: true}

	if g.DrawStack > 0 {
		n := g.DrawStack
		out.Drawn = g.Draw(player, n)
		g.DrawStack = 0
		g.LastActionMessage = fmt.Sprintf("%s drew %d cards", p.Name, len(out.Drawn))
		g.LastEffect = EffectDraw
		g.startTurn(g.nextIndex(player))
		return out, nil
	}

	if g.Rules.ForcePlay && g.HasLegalPlay(player) {
		return Outcome{}, ErrMustPlay
	}

	if g.DrawnCardID != "" {
		g.LastActionMessage = fmt.Sprintf("%s passed", p.Name)
		g.LastEffect = EffectNone
		out.Effect = EffectNone
		g.startTurn(g.nextIndex(player))
		return out, nil
	}

	if g.Rules.DrawUntilPlay {
		for {
			got := g.Draw(player, 1)
			if len(got) == 0 {
				break
			}
			out.Drawn = append(out.Drawn, got[0])
			if g.CanPlay(got[0]) {
				g.DrawnCardID = got[0].ID
				break
			}
		}
		g.LastActionMessage = fmt.Sprintf("%s drew %s", p.Name, plural(len(out.Drawn)))
		g.LastEffect = EffectDraw
		if g.DrawnCardID != "" {
			out.Passed = false
			return out, nil
		}
		g.startTurn(g.nextIndex(player))
		return out, nil
	}

	out.Drawn = g.Draw(player, 1)
	g.LastActionMessage = fmt.Sprintf("%s drew and passed", p.Name)
	g.LastEffect = EffectDraw
	g.startTurn(g.nextIndex(player))
	return out, nil
}

// CallUno records the current player's UNO declaration for this turn.
func (g *GameState) CallUno(player int) error {
	if err := g.checkTurn(player); err != nil {
		return err
	}
	if g.UnoCalled {
		return nil
	}
	g.UnoCalled = true
	g.LastEffect = EffectUno
	g.LastActionMessage = fmt.Sprintf("%s called UNO!", g.Players[player].Name)
	return nil
}

// startTurn hands the turn to next and resets the per-turn flags.
func (g *GameState) startTurn(next int) {
	g.CurrentPlayerIndex = next
	g.TurnID++
	g.UnoCalled = false
	g.DrawnCardID = ""
}

// swapTarget resolves the seat a 7 swaps with. An empty ID picks the
// opponent with the fewest cards, earliest seat after player on ties.
func (g *GameState) swapTarget(player int, id string) int {
	if id != "" {
		return g.SeatByID(id)
	}
	best := -1
	for i := g.nextIndex(player); i != player; i = g.nextIndex(i) {
		if best < 0 || len(g.Players[i].Hand) < len(g.Players[best].Hand) {
			best = i
		}
	}
	return best
}

// rotateHands passes every hand one seat in the direction of play.
func (g *GameState) rotateHands() {
	hands := make([][]Card, len(g.Players))
	for i := range g.Players {
		hands[g.nextIndex(i)] = g.Players[i].Hand
	}
	for i := range g.Players {
		g.Players[i].Hand = hands[i]
	}
}

func effectOf(c Card) Effect {
	switch c.Type {
	case TypeSkip:
		return EffectSkip
	case TypeReverse:
		return EffectReverse
	case TypeDrawTwo:
		return EffectDrawTwo
	case TypeWild:
		return EffectWild
	case TypeWildDrawFour:
		return EffectWildDrawFour
	}
	return EffectPlay
}

func plural(n int) string {
	if n == 1 {
		return "1 card"
	}
	return fmt.Sprintf("%d cards", n)
}
