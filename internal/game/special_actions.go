// internal/game/special_actions.go
package game

import (
	"fmt"

	"github.com/Dsabo2007/UNO/engine"
	"github.com/sirupsen/logrus"
)

// Action types accepted by HandlePlayerAction.
const (
	ActionPlayCard    = "play_card"
	ActionSelectColor = "select_color"
	ActionDrawCard    = "draw_card"
	ActionCallUno     = "call_uno"
	ActionJumpIn      = "jump_in"
)

// PlayerAction is a seat's request as it arrives from a UI or the network.
type PlayerAction struct {
	Type       string       `json:"type"`
	CardID     string       `json:"cardId,omitempty"`
	Color      engine.Color `json:"color,omitempty"`
	SwapWithID string       `json:"swapWithId,omitempty"`
	DeclareUno bool         `json:"declareUno,omitempty"`
}

// HandlePlayerAction routes an action from the player with the given ID.
// Rejections are reported back to that player privately and returned.
func (g *UnoGame) HandlePlayerAction(playerID string, action PlayerAction) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	slot := g.State.SeatByID(playerID)
	if slot < 0 {
		g.log.WithField("player", playerID).Warnf("Action %s from unknown player ignored.", action.Type)
		return engine.ErrNoSuchPlayer
	}

	choice := engine.Choice{Color: action.Color, SwapWithID: action.SwapWithID, DeclareUno: action.DeclareUno}
	var err error
	switch action.Type {
	case ActionPlayCard:
		_, err = g.play(slot, action.CardID, choice, false)
	case ActionJumpIn:
		_, err = g.play(slot, action.CardID, choice, true)
	case ActionSelectColor:
		_, err = g.selectWildColor(slot, action.Color)
	case ActionDrawCard:
		_, err = g.draw(slot)
	case ActionCallUno:
		err = g.callUno(slot)
	default:
		err = fmt.Errorf("unknown action type %q", action.Type)
	}

	if err != nil {
		g.fireEventToPlayer(playerID, GameEvent{
			Type:    EventPrivateActionKO,
			Message: err.Error(),
			Payload: map[string]interface{}{"action": action.Type},
		})
	}
	return err
}

// PlayCard plays a card for slot. A wild card without a color is held back
// and its player is asked to choose with a private_choose_color event;
// SelectWildColor completes the play.
func (g *UnoGame) PlayCard(slot int, cardID string, color engine.Color) error {
	return g.Play(slot, cardID, engine.Choice{Color: color})
}

// Play is PlayCard with the full set of accompanying decisions.
func (g *UnoGame) Play(slot int, cardID string, choice engine.Choice) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	_, err := g.play(slot, cardID, choice, false)
	return err
}

// JumpIn plays an identical card out of turn. The choice carries the same
// decisions as Play, including an UNO declaration for the last-but-one card.
func (g *UnoGame) JumpIn(slot int, cardID string, choice engine.Choice) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	_, err := g.play(slot, cardID, choice, true)
	return err
}

// SelectWildColor completes the wild card slot is holding back.
func (g *UnoGame) SelectWildColor(slot int, color engine.Color) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	_, err := g.selectWildColor(slot, color)
	return err
}

// PendingWild reports the card ID a seat still has to pick a color for.
func (g *UnoGame) PendingWild(slot int) (string, bool) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.pending == nil || g.pending.slot != slot {
		return "", false
	}
	return g.pending.cardID, true
}

// DrawCard draws for slot following the variant rules.
func (g *UnoGame) DrawCard(slot int) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	_, err := g.draw(slot)
	return err
}

// CallUno declares UNO for slot on its own turn.
func (g *UnoGame) CallUno(slot int) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.callUno(slot)
}

// play validates and resolves a play, parking wild cards that still need a
// color.
// Assumes lock is held by caller.
func (g *UnoGame) play(slot int, cardID string, choice engine.Choice, jumpIn bool) (engine.Outcome, error) {
	op := func(s *engine.GameState, c engine.Choice) (engine.Outcome, error) {
		if jumpIn {
			return s.JumpIn(slot, cardID, c)
		}
		return s.PlayCard(slot, cardID, c)
	}

	if choice.Color == "" && g.isWildInHand(slot, cardID) {
		// Try a stand-in color so everything but the color is checked.
		trial := g.State.Clone()
		trial.SetRand(engine.NewXorShift(1))
		trialChoice := choice
		trialChoice.Color = engine.Red
		if _, err := op(&trial, trialChoice); err != nil {
			return engine.Outcome{}, err
		}
		g.pending = &pendingWild{slot: slot, cardID: cardID, jumpIn: jumpIn, choice: choice}
		g.fireEventToPlayer(g.State.Players[slot].ID, GameEvent{
			Type:   EventPrivateChoose,
			Player: g.eventPlayer(slot),
			Card:   g.cardInHand(slot, cardID),
		})
		g.log.WithFields(logrus.Fields{"slot": slot, "card": cardID}).Debug("Waiting for wild color.")
		return engine.Outcome{}, nil
	}

	action := ActionPlayCard
	if jumpIn {
		action = ActionJumpIn
	}
	return g.applyEngine(slot, action, func(s *engine.GameState) (engine.Outcome, error) {
		return op(s, choice)
	})
}

// selectWildColor resolves the parked wild card.
// Assumes lock is held by caller.
func (g *UnoGame) selectWildColor(slot int, color engine.Color) (engine.Outcome, error) {
	p := g.pending
	if p == nil || p.slot != slot {
		return engine.Outcome{}, ErrNoPendingWild
	}
	if !color.IsPlayable() {
		return engine.Outcome{}, fmt.Errorf("%w: %q", engine.ErrInvalidColor, color)
	}
	choice := p.choice
	choice.Color = color
	out, err := g.play(slot, p.cardID, choice, p.jumpIn)
	if err != nil {
		// The state moved on underneath the parked card.
		g.pending = nil
	}
	return out, err
}

// draw applies a voluntary draw.
// Assumes lock is held by caller.
func (g *UnoGame) draw(slot int) (engine.Outcome, error) {
	return g.applyEngine(slot, ActionDrawCard, func(s *engine.GameState) (engine.Outcome, error) {
		return s.DrawCard(slot)
	})
}

// callUno records an UNO declaration. The turn does not change.
// Assumes lock is held by caller.
func (g *UnoGame) callUno(slot int) error {
	if g.closed {
		return ErrGameClosed
	}
	next := g.State.Clone()
	if err := next.CallUno(slot); err != nil {
		g.log.WithFields(logrus.Fields{"slot": slot, "action": ActionCallUno}).WithError(err).Debug("Action rejected.")
		return err
	}
	g.State = next
	g.fireEvent(GameEvent{Type: EventUnoCalled, Player: g.eventPlayer(slot), Message: g.State.LastActionMessage})
	g.notifyState(OriginLocal)
	return nil
}

func (g *UnoGame) isWildInHand(slot int, cardID string) bool {
	c := g.cardInHand(slot, cardID)
	return c != nil && c.IsWild()
}

func (g *UnoGame) cardInHand(slot int, cardID string) *engine.Card {
	if slot < 0 || slot >= len(g.State.Players) {
		return nil
	}
	p := &g.State.Players[slot]
	if i := p.CardIndex(cardID); i >= 0 {
		c := p.Hand[i]
		return &c
	}
	return nil
}
