// internal/game/engine_adapter.go
package game

import (
	"time"

	"github.com/Dsabo2007/UNO/engine"
	"github.com/Dsabo2007/UNO/engine/agent"
	"github.com/sirupsen/logrus"
)

// applyEngine runs op against a clone of the state and keeps the clone only
// if op succeeds, so a rejected action never leaves a partial state behind.
// Assumes lock is held by caller.
func (g *UnoGame) applyEngine(slot int, action string, op func(s *engine.GameState) (engine.Outcome, error)) (engine.Outcome, error) {
	if g.closed {
		return engine.Outcome{}, ErrGameClosed
	}
	next := g.State.Clone()
	out, err := op(&next)
	if err != nil {
		g.log.WithFields(logrus.Fields{"slot": slot, "action": action, "turn": g.State.TurnID}).WithError(err).Debug("Action rejected.")
		return out, err
	}

	g.State = next
	g.pending = nil
	g.log.WithFields(logrus.Fields{"slot": slot, "action": action, "turn": g.State.TurnID}).Debug(g.State.LastActionMessage)
	if action == ActionJumpIn {
		g.fireEvent(GameEvent{Type: EventJumpIn, Player: g.eventPlayer(slot)})
	}
	g.emitEventsForOutcome(out)
	g.afterTransition(OriginLocal)
	return out, nil
}

// emitEventsForOutcome translates an engine outcome into table events.
// Drawn cards go to their owner privately; everyone else only sees a count.
// Assumes lock is held by caller.
func (g *UnoGame) emitEventsForOutcome(out engine.Outcome) {
	actor := g.eventPlayer(out.Player)

	if out.Card != nil {
		card := *out.Card
		g.fireEvent(GameEvent{
			Type:    EventCardPlayed,
			Player:  actor,
			Card:    &card,
			Color:   g.State.ActiveColor,
			Effect:  out.Effect,
			Message: g.State.LastActionMessage,
		})
		if len(out.Penalty) > 0 {
			g.fireEvent(GameEvent{Type: EventUnoPenalty, Player: actor, Count: len(out.Penalty)})
			g.firePrivateDrawn(out.Player, out.Penalty)
		}
		if out.Victim >= 0 && len(out.Drawn) > 0 {
			g.fireEvent(GameEvent{Type: EventCardsDrawn, Player: g.eventPlayer(out.Victim), Count: len(out.Drawn), Effect: out.Effect})
			g.firePrivateDrawn(out.Victim, out.Drawn)
		}
		return
	}

	g.fireEvent(GameEvent{
		Type:    EventCardsDrawn,
		Player:  actor,
		Count:   len(out.Drawn),
		Effect:  out.Effect,
		Message: g.State.LastActionMessage,
		Payload: map[string]interface{}{"passed": out.Passed},
	})
	g.firePrivateDrawn(out.Player, out.Drawn)
}

func (g *UnoGame) firePrivateDrawn(slot int, cards []engine.Card) {
	if len(cards) == 0 || slot < 0 || slot >= len(g.State.Players) {
		return
	}
	g.fireEventToPlayer(g.State.Players[slot].ID, GameEvent{
		Type:   EventPrivateDrawn,
		Player: g.eventPlayer(slot),
		Cards:  append([]engine.Card(nil), cards...),
	})
}

// ---------------------------------------------------------------------------
// AI turns
// ---------------------------------------------------------------------------

// scheduleAI arms the think timer when an AI seat is on turn and no decision
// is already in flight for it.
// Assumes lock is held by caller.
func (g *UnoGame) scheduleAI() {
	if !g.AIEnabled || g.closed || g.aiInFlight || g.State.Status != engine.StatusPlaying {
		return
	}
	cur := g.State.CurrentPlayer()
	if cur == nil || cur.IsHuman {
		return
	}

	g.aiInFlight = true
	turn, gen := g.State.TurnID, g.generation
	g.aiTimer = time.AfterFunc(g.thinkDelay(), func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if g.generation != gen {
			return
		}
		g.aiTimer = nil
		g.aiInFlight = false
		g.runAITurn(turn)
	})
}

// thinkDelay returns ThinkMin plus a random share of ThinkJitter.
// Assumes lock is held by caller.
func (g *UnoGame) thinkDelay() time.Duration {
	d := g.ThinkMin
	if ms := int(g.ThinkJitter / time.Millisecond); ms > 0 {
		d += time.Duration(g.rng.IntN(ms)) * time.Millisecond
	}
	return d
}

// runAITurn lets the strategy act for the seat on turn. A timer that belongs
// to an earlier turn reschedules instead of acting.
// Assumes lock is held by caller.
func (g *UnoGame) runAITurn(turn int) {
	if g.closed || g.State.Status != engine.StatusPlaying {
		return
	}
	if g.State.TurnID != turn {
		g.scheduleAI()
		return
	}
	slot := g.State.CurrentPlayerIndex
	if g.State.Players[slot].IsHuman {
		return
	}

	card, ok := agent.Move(&g.State, slot, g.Strategy)
	if ok {
		if _, err := g.play(slot, card.ID, g.aiChoice(slot, card), false); err == nil {
			return
		}
	}
	if _, err := g.draw(slot); err != nil {
		g.log.WithFields(logrus.Fields{"slot": slot, "turn": turn}).WithError(err).Error("AI could neither play nor draw.")
	}
}

// aiChoice fills in the decisions that accompany an AI play.
// Assumes lock is held by caller.
func (g *UnoGame) aiChoice(slot int, card engine.Card) engine.Choice {
	choice := engine.Choice{DeclareUno: true}
	if card.IsWild() {
		rest := make([]engine.Card, 0, len(g.State.Players[slot].Hand))
		for _, c := range g.State.Players[slot].Hand {
			if c.ID != card.ID {
				rest = append(rest, c)
			}
		}
		choice.Color = g.Strategy.ChooseColor(rest)
	}
	if g.State.Rules.SevenZero && card.IsNumber() && card.Value == 7 {
		if t := g.Strategy.ChooseSwapTarget(&g.State, slot); t >= 0 && t != slot {
			choice.SwapWithID = g.State.Players[t].ID
		}
	}
	return choice
}
