// internal/game/game.go
package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Dsabo2007/UNO/engine"
	"github.com/Dsabo2007/UNO/engine/agent"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Default timings for the table.
const (
	DefaultDealDuration = 2500 * time.Millisecond
	DefaultThinkMin     = 1500 * time.Millisecond
	DefaultThinkJitter  = 1000 * time.Millisecond
)

var (
	ErrGameClosed    = errors.New("game is closed")
	ErrNoPendingWild = errors.New("no wild card is waiting for a color")
)

// Origin tells OnStateChange consumers where a transition came from.
type Origin string

const (
	OriginStart  Origin = "start"  // a new game was dealt on this table
	OriginLocal  Origin = "local"  // a player or AI action on this table
	OriginTimer  Origin = "timer"  // the deal cooldown ran out
	OriginRemote Origin = "remote" // ReplaceState from a peer
)

// OnGameEndFunc is called once per finished game.
type OnGameEndFunc func(gameID uuid.UUID, winner engine.Player, points int)

// GameEventType is the type of a table event.
type GameEventType string

const (
	EventGameDealing     GameEventType = "game_dealing"
	EventGameStarted     GameEventType = "game_started"
	EventGamePlayerTurn  GameEventType = "game_player_turn"
	EventCardPlayed      GameEventType = "card_played"
	EventCardsDrawn      GameEventType = "cards_drawn"          // Public: count only.
	EventPrivateDrawn    GameEventType = "private_cards_drawn"  // Private: the drawn cards.
	EventPrivateChoose   GameEventType = "private_choose_color" // Private: a wild is waiting for its color.
	EventUnoCalled       GameEventType = "uno_called"
	EventUnoPenalty      GameEventType = "uno_penalty"
	EventJumpIn          GameEventType = "jump_in"
	EventStateReplaced   GameEventType = "state_replaced"
	EventPrivateSync     GameEventType = "private_sync_state"
	EventGameEnd         GameEventType = "game_end"
	EventGameRestart     GameEventType = "game_restart"
	EventPrivateActionKO GameEventType = "private_action_fail"
)

// EventPlayer identifies a seat within a GameEvent.
type EventPlayer struct {
	Slot int    `json:"slot"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameEvent is the envelope for every table notification.
type GameEvent struct {
	Type    GameEventType `json:"type"`
	Player  *EventPlayer  `json:"player,omitempty"`
	Card    *engine.Card  `json:"card,omitempty"`
	Cards   []engine.Card `json:"cards,omitempty"`
	Color   engine.Color  `json:"color,omitempty"`
	Effect  engine.Effect `json:"effect,omitempty"`
	Count   int           `json:"count,omitempty"`
	Message string        `json:"message,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`

	State *StateView `json:"state,omitempty"`
}

// pendingWild is a wild card held back until its player names a color.
type pendingWild struct {
	slot   int
	cardID string
	jumpIn bool
	choice engine.Choice
}

// UnoGame is one table: it owns the canonical GameState and serializes every
// transition under Mu. Timer callbacks take the same lock.
//
// Callbacks are invoked with Mu held and must not call back into the game.
type UnoGame struct {
	ID    uuid.UUID
	State engine.GameState

	// Strategy drives every AI seat. It is fixed when the game starts.
	Strategy  agent.Strategy
	AIEnabled bool

	DealDuration time.Duration
	ThinkMin     time.Duration
	ThinkJitter  time.Duration

	Mu sync.Mutex

	BroadcastFn         func(ev GameEvent)
	BroadcastToPlayerFn func(playerID string, ev GameEvent)
	OnStateChange       func(state engine.GameState, origin Origin)
	OnGameEnd           OnGameEndFunc

	difficulty  agent.Difficulty
	rng         engine.Rand
	log         *logrus.Entry
	pending     *pendingWild
	dealTimer   *time.Timer
	aiTimer     *time.Timer
	aiInFlight  bool
	generation  int
	endReported bool
	closed      bool
}

// NewUnoGame returns an idle table in the Lobby status with the hard AI.
func NewUnoGame() *UnoGame {
	id := uuid.New()
	g := &UnoGame{
		ID:           id,
		State:        engine.NewLobby(engine.NormalRules()),
		AIEnabled:    true,
		DealDuration: DefaultDealDuration,
		ThinkMin:     DefaultThinkMin,
		ThinkJitter:  DefaultThinkJitter,
		rng:          engine.DefaultRand,
		log:          logrus.WithField("game", id.String()),
	}
	g.difficulty = agent.Hard
	g.Strategy = agent.ForDifficulty(g.difficulty, g.rng)
	return g
}

// SetDifficulty picks the AI strategy for the next game. It has no effect on
// a game already in progress.
func (g *UnoGame) SetDifficulty(d agent.Difficulty) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.difficulty = d
	if g.State.Status == engine.StatusLobby || g.State.Status == engine.StatusGameOver {
		g.Strategy = agent.ForDifficulty(d, g.rng)
	}
}

// SetRand sets the random source for deals, reshuffles and think delays.
func (g *UnoGame) SetRand(rng engine.Rand) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.rng = rng
	g.State.SetRand(rng)
	g.Strategy = agent.ForDifficulty(g.difficulty, rng)
}

// StartGame deals a solo game: slot 0 is the human, the rest are AI.
func (g *UnoGame) StartGame(playerCount int, rules engine.GameRules) error {
	if playerCount < engine.MinPlayers || playerCount > engine.MaxPlayers {
		return fmt.Errorf("%w: %d", engine.ErrPlayerCount, playerCount)
	}
	return g.StartWithSeats(engine.DefaultSeats(playerCount), rules)
}

// StartWithSeats deals a game for explicit seats. Multiplayer hosts pass one
// human seat per room member. Only a table in the lobby can be dealt; call
// Restart after a game ends.
func (g *UnoGame) StartWithSeats(seats []engine.Seat, rules engine.GameRules) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.closed {
		return ErrGameClosed
	}
	if g.State.Status != engine.StatusLobby {
		return fmt.Errorf("%w: cannot start from %s", engine.ErrBadStatus, g.State.Status)
	}
	state, err := engine.NewGame(seats, rules, g.rng)
	if err != nil {
		g.log.WithError(err).Warn("Cannot start game.")
		return err
	}

	g.resetTimers()
	g.State = state
	g.Strategy = agent.ForDifficulty(g.difficulty, g.rng)
	g.endReported = false
	g.log.WithFields(logrus.Fields{"players": len(seats), "mode": rules.ModeName, "difficulty": g.difficulty}).Info("Dealing.")

	g.fireEvent(GameEvent{Type: EventGameDealing, Message: state.LastActionMessage})
	for _, p := range g.State.Players {
		if p.IsHuman {
			g.sendSyncState(p.ID)
		}
	}
	g.notifyState(OriginStart)
	g.scheduleBeginPlay()
	return nil
}

// scheduleBeginPlay arms the deal cooldown for a Dealing state.
// Assumes lock is held by caller.
func (g *UnoGame) scheduleBeginPlay() {
	if g.State.Status != engine.StatusDealing {
		return
	}
	if g.DealDuration <= 0 {
		g.beginPlay()
		return
	}
	gen := g.generation
	g.dealTimer = time.AfterFunc(g.DealDuration, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if g.closed || g.generation != gen {
			return
		}
		g.dealTimer = nil
		g.beginPlay()
	})
}

// beginPlay moves a dealt game into Playing.
// Assumes lock is held by caller.
func (g *UnoGame) beginPlay() {
	if err := g.State.BeginPlay(); err != nil {
		g.log.WithError(err).Debug("Deal timer fired outside Dealing.")
		return
	}
	g.log.Info("Game started.")
	g.fireEvent(GameEvent{Type: EventGameStarted, Message: g.State.LastActionMessage})
	g.notifyState(OriginTimer)
	g.broadcastPlayerTurn()
	g.scheduleAI()
}

// Restart cancels every pending timer and returns the table to the Lobby,
// keeping the current rules.
func (g *UnoGame) Restart() {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	g.resetTimers()
	g.State = engine.NewLobby(g.State.Rules)
	g.State.SetRand(g.rng)
	g.endReported = false
	g.log.Info("Game restarted.")
	g.fireEvent(GameEvent{Type: EventGameRestart})
	g.notifyState(OriginLocal)
}

// ReplaceState swaps in a state computed elsewhere, wholesale. Pending local
// decisions are dropped.
func (g *UnoGame) ReplaceState(state engine.GameState) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.closed {
		return
	}
	g.resetTimers()
	state.SetRand(g.rng)
	g.State = state
	if state.Status != engine.StatusGameOver {
		g.endReported = false
	}
	g.log.WithFields(logrus.Fields{"turn": state.TurnID, "status": state.Status}).Debug("State replaced.")

	view := g.viewFor("")
	g.fireEvent(GameEvent{Type: EventStateReplaced, Message: state.LastActionMessage, State: &view})
	g.notifyState(OriginRemote)

	switch state.Status {
	case engine.StatusDealing:
		g.scheduleBeginPlay()
	case engine.StatusPlaying:
		g.scheduleAI()
	case engine.StatusGameOver:
		g.reportEnd()
	}
}

// Snapshot returns a deep copy of the current state.
func (g *UnoGame) Snapshot() engine.GameState {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.State.Clone()
}

// Close stops all timers. The table ignores everything afterwards.
func (g *UnoGame) Close() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.closed = true
	g.resetTimers()
}

// resetTimers cancels the deal and AI timers and invalidates callbacks that
// already fired but have not yet taken the lock.
// Assumes lock is held by caller.
func (g *UnoGame) resetTimers() {
	g.generation++
	if g.dealTimer != nil {
		g.dealTimer.Stop()
		g.dealTimer = nil
	}
	if g.aiTimer != nil {
		g.aiTimer.Stop()
		g.aiTimer = nil
	}
	g.aiInFlight = false
	g.pending = nil
}

// afterTransition publishes a successful transition and schedules what
// comes next.
// Assumes lock is held by caller.
func (g *UnoGame) afterTransition(origin Origin) {
	g.notifyState(origin)
	if g.State.IsOver() {
		g.reportEnd()
		return
	}
	g.broadcastPlayerTurn()
	g.scheduleAI()
}

// reportEnd fires the end of game event and OnGameEnd once per game.
// Assumes lock is held by caller.
func (g *UnoGame) reportEnd() {
	if g.endReported {
		return
	}
	g.endReported = true
	g.resetTimers()

	winner := g.State.WinnerPlayer()
	if winner == nil {
		g.log.Warn("Game over without a winner.")
		return
	}
	points := g.State.WinnerPoints()
	g.log.WithFields(logrus.Fields{"winner": winner.Name, "points": points, "turn": g.State.TurnID}).Info("Game over.")

	g.fireEvent(GameEvent{
		Type:    EventGameEnd,
		Player:  g.eventPlayer(g.State.Winner),
		Count:   points,
		Message: g.State.LastActionMessage,
	})
	if g.OnGameEnd != nil {
		g.OnGameEnd(g.ID, *winner, points)
	}
}

// broadcastPlayerTurn notifies everyone whose turn it is.
// Assumes lock is held by caller.
func (g *UnoGame) broadcastPlayerTurn() {
	if g.State.Status != engine.StatusPlaying {
		return
	}
	g.fireEvent(GameEvent{
		Type:    EventGamePlayerTurn,
		Player:  g.eventPlayer(g.State.CurrentPlayerIndex),
		Message: g.State.LastActionMessage,
		Payload: map[string]interface{}{"turn": g.State.TurnID},
	})
}

// notifyState hands a copy of the state to OnStateChange.
// Assumes lock is held by caller.
func (g *UnoGame) notifyState(origin Origin) {
	if g.OnStateChange != nil {
		g.OnStateChange(g.State.Clone(), origin)
	}
}

// fireEvent broadcasts an event via BroadcastFn.
// Assumes lock is held by caller.
func (g *UnoGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends a private event via BroadcastToPlayerFn.
// Assumes lock is held by caller.
func (g *UnoGame) fireEventToPlayer(playerID string, ev GameEvent) {
	if g.BroadcastToPlayerFn != nil && playerID != "" {
		g.BroadcastToPlayerFn(playerID, ev)
	}
}

// eventPlayer builds the EventPlayer for a slot.
// Assumes lock is held by caller.
func (g *UnoGame) eventPlayer(slot int) *EventPlayer {
	if slot < 0 || slot >= len(g.State.Players) {
		return nil
	}
	p := g.State.Players[slot]
	return &EventPlayer{Slot: slot, ID: p.ID, Name: p.Name}
}
