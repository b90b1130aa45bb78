// internal/game/sync_state.go
package game

import (
	"github.com/Dsabo2007/UNO/engine"
	"github.com/google/uuid"
)

// PlayerView is one seat as seen by an observer. Hand is filled in only for
// the observer's own seat.
type PlayerView struct {
	Slot          int           `json:"slot"`
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	IsHuman       bool          `json:"isHuman"`
	HandSize      int           `json:"handSize"`
	IsCurrentTurn bool          `json:"isCurrentTurn"`
	Hand          []engine.Card `json:"hand,omitempty"`
	DrawnCardID   string        `json:"drawnCardId,omitempty"`
}

// StateView is the game state with every hand but the observer's hidden.
type StateView struct {
	GameID            uuid.UUID        `json:"gameId"`
	Status            engine.Status    `json:"status"`
	TurnID            int              `json:"turnId"`
	CurrentPlayerID   string           `json:"currentPlayerId,omitempty"`
	Direction         engine.Direction `json:"direction"`
	ActiveColor       engine.Color     `json:"activeColor"`
	DrawStack         int              `json:"drawStack"`
	DrawPileSize      int              `json:"drawPileSize"`
	DiscardSize       int              `json:"discardSize"`
	DiscardTop        *engine.Card     `json:"discardTop,omitempty"`
	Players           []PlayerView     `json:"players"`
	WinnerID          string           `json:"winnerId,omitempty"`
	UnoCalled         bool             `json:"unoCalled"`
	LastActionMessage string           `json:"lastActionMessage"`
	Rules             engine.GameRules `json:"rules"`
}

// View returns the state as seen by the player with the given ID. An empty
// or unknown ID yields the spectator view.
func (g *UnoGame) View(playerID string) StateView {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.viewFor(playerID)
}

// viewFor builds the view for one observer.
// Assumes lock is held by caller.
func (g *UnoGame) viewFor(playerID string) StateView {
	s := &g.State
	v := StateView{
		GameID:            g.ID,
		Status:            s.Status,
		TurnID:            s.TurnID,
		Direction:         s.Direction,
		ActiveColor:       s.ActiveColor,
		DrawStack:         s.DrawStack,
		DrawPileSize:      len(s.DrawPile),
		DiscardSize:       len(s.DiscardPile),
		UnoCalled:         s.UnoCalled,
		LastActionMessage: s.LastActionMessage,
		Rules:             s.Rules,
	}
	if len(s.DiscardPile) > 0 {
		top := s.TopCard()
		v.DiscardTop = &top
	}
	playing := s.Status == engine.StatusPlaying
	if cur := s.CurrentPlayer(); cur != nil && playing {
		v.CurrentPlayerID = cur.ID
	}
	if w := s.WinnerPlayer(); w != nil {
		v.WinnerID = w.ID
	}

	v.Players = make([]PlayerView, len(s.Players))
	for i, p := range s.Players {
		pv := PlayerView{
			Slot:          i,
			ID:            p.ID,
			Name:          p.Name,
			IsHuman:       p.IsHuman,
			HandSize:      len(p.Hand),
			IsCurrentTurn: playing && i == s.CurrentPlayerIndex,
		}
		if playerID != "" && p.ID == playerID {
			pv.Hand = append([]engine.Card(nil), p.Hand...)
			if i == s.CurrentPlayerIndex {
				pv.DrawnCardID = s.DrawnCardID
			}
		}
		v.Players[i] = pv
	}
	return v
}

// sendSyncState sends one player their view of the table.
// Assumes lock is held by caller.
func (g *UnoGame) sendSyncState(playerID string) {
	view := g.viewFor(playerID)
	g.fireEventToPlayer(playerID, GameEvent{Type: EventPrivateSync, State: &view})
}

// SyncPlayer re-sends a player their view, for example after a reconnect.
func (g *UnoGame) SyncPlayer(playerID string) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.sendSyncState(playerID)
}
