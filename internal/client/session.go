// Package client is the player side of the relay: it connects a local
// UnoGame to a room so every member's table shows the same state.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Dsabo2007/UNO/engine"
	"github.com/Dsabo2007/UNO/internal/game"
	"github.com/Dsabo2007/UNO/internal/relay"
	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const (
	outboxSize   = 64
	writeTimeout = 5 * time.Second
)

var (
	ErrClosed       = errors.New("session closed")
	ErrNotInRoom    = errors.New("not in a room")
	ErrNoGame       = errors.New("no game attached")
	ErrBadHandshake = errors.New("relay did not send welcome")
)

// Handlers receive relay events. They run on the session's reader goroutine;
// nil handlers are skipped.
type Handlers struct {
	RoomCreated    func(roomID string)
	PlayersChanged func(event string, players []relay.Member)
	Message        func(msg relay.MessageData)
	Rooms          func(rooms []relay.RoomInfo)
	Error          func(message string)
}

// Session is one player's connection to the relay.
type Session struct {
	conn     *websocket.Conn
	selfID   string
	handlers Handlers
	log      *logrus.Entry

	out    chan []byte
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	mu      sync.Mutex
	name    string
	roomID  string
	players []relay.Member
	game    *game.UnoGame
	// startEcho is set while the host waits for its own game_started.
	startEcho bool
}

// Dial connects to the relay websocket at url and waits for the welcome.
func Dial(ctx context.Context, url string, h Handlers) (*Session, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	_, msg, err := conn.Read(ctx)
	if err != nil {
		conn.CloseNow()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	var env relay.Envelope
	var welcome relay.WelcomeData
	if json.Unmarshal(msg, &env) != nil || env.Event != relay.EventWelcome || json.Unmarshal(env.Data, &welcome) != nil {
		conn.CloseNow()
		return nil, ErrBadHandshake
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		conn:     conn,
		selfID:   welcome.SocketID,
		handlers: h,
		log:      logrus.WithField("conn", welcome.SocketID),
		out:      make(chan []byte, outboxSize),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	go s.writeLoop(runCtx)
	go s.readLoop(runCtx)
	return s, nil
}

// SelfID is this connection's member ID, and its seat ID in a relay game.
func (s *Session) SelfID() string { return s.selfID }

// RoomID returns the room this session created or joined.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Players returns the last membership list the relay sent.
func (s *Session) Players() []relay.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]relay.Member, len(s.players))
	copy(out, s.players)
	return out
}

// Done is closed once the connection is gone.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) CreateRoom(playerName string) error {
	s.mu.Lock()
	s.name = playerName
	s.mu.Unlock()
	return s.emit(relay.EventCreateRoom, relay.CreateRoomData{PlayerName: playerName})
}

func (s *Session) JoinRoom(roomID, playerName string) error {
	code := relay.NormalizeCode(roomID)
	s.mu.Lock()
	s.name = playerName
	s.roomID = code
	s.mu.Unlock()
	return s.emit(relay.EventJoinRoom, relay.JoinRoomData{RoomID: code, PlayerName: playerName})
}

func (s *Session) ListRooms() error {
	return s.emit(relay.EventRoomsList, nil)
}

func (s *Session) SendMessage(playerName, text string) error {
	room, err := s.room()
	if err != nil {
		return err
	}
	return s.emit(relay.EventSendMessage, relay.MessageData{RoomID: room, PlayerName: playerName, Message: text})
}

// Update sends a locally computed state to the rest of the room.
func (s *Session) Update(state engine.GameState) error {
	room, err := s.room()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.emit(relay.EventUpdateGameState, relay.UpdateGameStateData{RoomID: room, GameState: raw})
}

// Attach binds g to the room. Local transitions go out as state updates and
// states from other members replace g's state. AI seats are turned off: in a
// relay game every seat is a member.
func (s *Session) Attach(g *game.UnoGame) {
	g.Mu.Lock()
	g.AIEnabled = false
	g.OnStateChange = func(state engine.GameState, origin game.Origin) {
		switch origin {
		case game.OriginStart:
			s.sendStart(state)
		case game.OriginLocal:
			if err := s.Update(state); err != nil {
				s.log.WithError(err).Warn("Dropping local state update.")
			}
		}
	}
	g.Mu.Unlock()

	s.mu.Lock()
	s.game = g
	s.mu.Unlock()
}

// StartGame deals on the host: one human seat per current member, in
// membership order. The attached game announces the deal to the room.
func (s *Session) StartGame(rules engine.GameRules) error {
	if _, err := s.room(); err != nil {
		return err
	}
	s.mu.Lock()
	g := s.game
	seats := make([]engine.Seat, len(s.players))
	for i, m := range s.players {
		seats[i] = engine.Seat{ID: m.ID, Name: m.Name, IsHuman: true}
	}
	s.mu.Unlock()
	if g == nil {
		return ErrNoGame
	}
	return g.StartWithSeats(seats, rules)
}

// sendStart runs under the game lock from OnStateChange.
func (s *Session) sendStart(state engine.GameState) {
	room, err := s.room()
	if err != nil {
		s.log.WithError(err).Warn("Game dealt outside a room.")
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		s.log.WithError(err).Error("Encoding initial state failed.")
		return
	}
	s.mu.Lock()
	s.startEcho = true
	s.mu.Unlock()
	if err := s.emit(relay.EventStartGame, relay.StartGameData{RoomID: room, InitialGameState: raw}); err != nil {
		s.log.WithError(err).Warn("Sending start_game failed.")
	}
}

// Close ends the session and waits for the reader to stop.
func (s *Session) Close() error {
	s.shutdown()
	<-s.done
	return nil
}

func (s *Session) shutdown() {
	s.once.Do(func() {
		s.cancel()
		s.conn.Close(websocket.StatusNormalClosure, "bye")
	})
}

func (s *Session) room() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roomID == "" {
		return "", ErrNotInRoom
	}
	return s.roomID, nil
}

func (s *Session) emit(event string, data interface{}) error {
	msg, err := relay.Encode(event, data)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.out <- msg:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				s.log.WithError(err).Debug("Write failed.")
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) readLoop(ctx context.Context) {
	defer close(s.done)
	defer s.shutdown()
	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				s.log.WithError(err).Debug("Read ended.")
			}
			return
		}
		var env relay.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			s.log.WithError(err).Warn("Malformed message from relay.")
			continue
		}
		s.dispatch(env)
	}
}

func (s *Session) dispatch(env relay.Envelope) {
	log := s.log.WithField("event", env.Event)
	switch env.Event {
	case relay.EventRoomCreated:
		var d relay.RoomCreatedData
		if json.Unmarshal(env.Data, &d) != nil {
			return
		}
		s.mu.Lock()
		s.roomID = d.RoomID
		s.players = []relay.Member{{ID: s.selfID, Name: s.name, SocketID: s.selfID}}
		s.mu.Unlock()
		if s.handlers.RoomCreated != nil {
			s.handlers.RoomCreated(d.RoomID)
		}

	case relay.EventPlayerJoined, relay.EventPlayerLeft:
		var d relay.PlayersData
		if json.Unmarshal(env.Data, &d) != nil {
			return
		}
		s.mu.Lock()
		s.players = d.Players
		s.mu.Unlock()
		if s.handlers.PlayersChanged != nil {
			s.handlers.PlayersChanged(env.Event, d.Players)
		}

	case relay.EventGameStarted, relay.EventGameStateUpdated:
		var d relay.GameStateData
		if json.Unmarshal(env.Data, &d) != nil {
			return
		}
		var state engine.GameState
		if err := json.Unmarshal(d.GameState, &state); err != nil {
			log.WithError(err).Warn("Unreadable game state.")
			return
		}
		s.mu.Lock()
		g := s.game
		echo := env.Event == relay.EventGameStarted && s.startEcho
		if echo {
			s.startEcho = false
		}
		s.mu.Unlock()
		if g == nil || echo {
			return
		}
		log.WithField("turn", state.TurnID).Debug("Applying remote state.")
		g.ReplaceState(state)
		if env.Event == relay.EventGameStarted {
			// The host's deal only synced seats on its own table.
			g.SyncPlayer(s.selfID)
		}

	case relay.EventReceiveMessage:
		var d relay.MessageData
		if json.Unmarshal(env.Data, &d) == nil && s.handlers.Message != nil {
			s.handlers.Message(d)
		}

	case relay.EventRooms:
		var d relay.RoomsData
		if json.Unmarshal(env.Data, &d) == nil && s.handlers.Rooms != nil {
			s.handlers.Rooms(d.Rooms)
		}

	case relay.EventError:
		var d relay.ErrorData
		if json.Unmarshal(env.Data, &d) != nil {
			return
		}
		log.WithField("message", d.Message).Info("Relay error.")
		if d.Message == relay.ErrMsgRoomNotFound || d.Message == relay.ErrMsgRoomFull {
			s.mu.Lock()
			if len(s.players) == 0 {
				s.roomID = ""
			}
			s.mu.Unlock()
		}
		if s.handlers.Error != nil {
			s.handlers.Error(d.Message)
		}

	default:
		log.Debug("Ignoring relay event.")
	}
}
