// Package relay is the room-keyed message broker for multiplayer tables. It
// does not know the game rules: it keeps the latest state a member sent and
// forwards it to the others, last write wins.
package relay

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dsabo2007/UNO/engine"
	"github.com/Dsabo2007/UNO/internal/cache"
	"github.com/Dsabo2007/UNO/internal/database"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultCapacity = 4
	RoomCodeLength  = 6

	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	persistTimeout   = 3 * time.Second
)

// Config tunes a Hub. Zero values fall back to the defaults.
type Config struct {
	Capacity   int
	RatePerSec float64
	RateBurst  int
	Store      cache.Store
	Recorder   database.Recorder

	// OriginPatterns are the browser origins allowed to open a websocket.
	OriginPatterns []string
}

// Room is one table's membership and its latest state.
type Room struct {
	ID      string
	Members []Member
	State   json.RawMessage

	ended bool
}

func (r *Room) memberIndex(clientID string) int {
	for i, m := range r.Members {
		if m.SocketID == clientID {
			return i
		}
	}
	return -1
}

// Hub owns the room registry. All registry access goes through mu.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
	rooms   map[string]*Room

	capacity int
	limit    rate.Limit
	burst    int
	store    cache.Store
	recorder database.Recorder
	origins  []string
	log      *logrus.Entry
}

func NewHub(cfg Config) *Hub {
	h := &Hub{
		clients:  make(map[string]*Client),
		rooms:    make(map[string]*Room),
		capacity: cfg.Capacity,
		limit:    rate.Limit(cfg.RatePerSec),
		burst:    cfg.RateBurst,
		store:    cfg.Store,
		recorder: cfg.Recorder,
		origins:  cfg.OriginPatterns,
		log:      logrus.WithField("component", "relay"),
	}
	if h.capacity <= 0 {
		h.capacity = DefaultCapacity
	}
	if cfg.RatePerSec <= 0 {
		h.limit = rate.Inf
	}
	if h.burst <= 0 {
		h.burst = 1
	}
	if h.store == nil {
		h.store = cache.NewMemoryStore()
	}
	if h.recorder == nil {
		h.recorder = database.NopRecorder{}
	}
	return h
}

// NewClient creates a connection handle with its own rate limiter and
// registers it. send receives encoded messages for the connection.
func (h *Hub) NewClient(sendBuffer int) *Client {
	c := &Client{
		id:      uuid.NewString(),
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(h.limit, h.burst),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.log.WithField("conn", c.id).Info("Client connected.")
	return c
}

// Handle processes one inbound message from c.
func (h *Hub) Handle(c *Client, raw []byte) {
	if !c.limiter.Allow() {
		h.sendError(c, ErrMsgRateLimited)
		return
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(c, ErrMsgInvalidPayload)
		return
	}

	switch env.Event {
	case EventCreateRoom:
		var d CreateRoomData
		if h.decode(c, env.Data, &d) {
			h.createRoom(c, d)
		}
	case EventJoinRoom:
		var d JoinRoomData
		if h.decode(c, env.Data, &d) {
			h.joinRoom(c, d)
		}
	case EventStartGame:
		var d StartGameData
		if h.decode(c, env.Data, &d) {
			h.startGame(c, d)
		}
	case EventUpdateGameState:
		var d UpdateGameStateData
		if h.decode(c, env.Data, &d) {
			h.updateGameState(c, d)
		}
	case EventSendMessage:
		var d MessageData
		if h.decode(c, env.Data, &d) {
			h.sendMessage(c, d.RoomID, env.Data)
		}
	case EventRoomsList:
		h.send(c, EventRooms, RoomsData{Rooms: h.Rooms()})
	default:
		h.log.WithFields(logrus.Fields{"conn": c.id, "event": env.Event}).Debug("Unknown event.")
		h.sendError(c, ErrMsgUnknownEvent)
	}
}

func (h *Hub) decode(c *Client, data json.RawMessage, v interface{}) bool {
	if len(data) == 0 || json.Unmarshal(data, v) != nil {
		h.sendError(c, ErrMsgInvalidPayload)
		return false
	}
	return true
}

func (h *Hub) createRoom(c *Client, d CreateRoomData) {
	h.mu.Lock()
	code := h.newRoomCode()
	room := &Room{ID: code, Members: []Member{{ID: c.id, Name: d.PlayerName, SocketID: c.id}}}
	h.rooms[code] = room
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"room": code, "conn": c.id, "player": d.PlayerName}).Info("Room created.")
	h.send(c, EventRoomCreated, RoomCreatedData{RoomID: code})
}

func (h *Hub) joinRoom(c *Client, d JoinRoomData) {
	code := NormalizeCode(d.RoomID)

	h.mu.Lock()
	room, ok := h.rooms[code]
	if !ok {
		h.mu.Unlock()
		h.sendError(c, ErrMsgRoomNotFound)
		return
	}
	if room.memberIndex(c.id) < 0 {
		if len(room.Members) >= h.capacity {
			h.mu.Unlock()
			h.sendError(c, ErrMsgRoomFull)
			return
		}
		room.Members = append(room.Members, Member{ID: c.id, Name: d.PlayerName, SocketID: c.id})
	}
	h.broadcastLocked(room, "", EventPlayerJoined, PlayersData{Players: cloneMembers(room.Members)})
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"room": code, "conn": c.id, "player": d.PlayerName}).Info("Player joined.")
}

func (h *Hub) startGame(c *Client, d StartGameData) {
	code := NormalizeCode(d.RoomID)

	h.mu.Lock()
	room, ok := h.rooms[code]
	if !ok {
		h.mu.Unlock()
		h.sendError(c, ErrMsgRoomNotFound)
		return
	}
	room.State = d.InitialGameState
	room.ended = false
	names := make([]string, len(room.Members))
	for i, m := range room.Members {
		names[i] = m.Name
	}
	h.broadcastLocked(room, "", EventGameStarted, GameStateData{GameState: d.InitialGameState})
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"room": code, "conn": c.id}).Info("Game started.")
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	h.saveSnapshot(ctx, code, d.InitialGameState)
	if err := h.recorder.RecordStart(ctx, code, names); err != nil {
		h.log.WithField("room", code).WithError(err).Warn("Recording game start failed.")
	}
}

func (h *Hub) updateGameState(c *Client, d UpdateGameStateData) {
	code := NormalizeCode(d.RoomID)

	h.mu.Lock()
	room, ok := h.rooms[code]
	if !ok {
		h.mu.Unlock()
		h.sendError(c, ErrMsgRoomNotFound)
		return
	}
	room.State = d.GameState
	h.broadcastLocked(room, c.id, EventGameStateUpdated, GameStateData{GameState: d.GameState})
	finished := !room.ended && isFinished(d.GameState)
	if finished {
		room.ended = true
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	h.saveSnapshot(ctx, code, d.GameState)
	if finished {
		h.recordResult(ctx, code, d.GameState)
	}
}

func (h *Hub) sendMessage(c *Client, roomID string, data json.RawMessage) {
	code := NormalizeCode(roomID)

	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[code]
	if !ok {
		h.sendError(c, ErrMsgRoomNotFound)
		return
	}
	msg, err := json.Marshal(Envelope{Event: EventReceiveMessage, Data: data})
	if err != nil {
		return
	}
	for _, m := range room.Members {
		if m.SocketID != c.id {
			h.deliverLocked(m.SocketID, msg)
		}
	}
}

// Unregister tears a connection down: it leaves every room it sat in, the
// remaining members get player_left, and emptied rooms are deleted.
func (h *Hub) Unregister(c *Client) {
	var emptied []string

	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)

	for code, room := range h.rooms {
		i := room.memberIndex(c.id)
		if i < 0 {
			continue
		}
		room.Members = append(room.Members[:i:i], room.Members[i+1:]...)
		if len(room.Members) == 0 {
			delete(h.rooms, code)
			emptied = append(emptied, code)
			continue
		}
		h.broadcastLocked(room, "", EventPlayerLeft, PlayersData{Players: cloneMembers(room.Members)})
	}
	h.mu.Unlock()

	h.log.WithField("conn", c.id).Info("Client disconnected.")
	if len(emptied) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	for _, code := range emptied {
		h.log.WithField("room", code).Info("Room deleted.")
		if err := h.store.Delete(ctx, code); err != nil {
			h.log.WithField("room", code).WithError(err).Warn("Deleting room snapshot failed.")
		}
	}
}

// Rooms lists the open rooms ordered by code.
func (h *Hub) Rooms() []RoomInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]RoomInfo, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, RoomInfo{RoomID: r.ID, Players: len(r.Members), Capacity: h.capacity, Started: r.State != nil})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Room returns a copy of a room, for inspection.
func (h *Hub) Room(code string) (Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[NormalizeCode(code)]
	if !ok {
		return Room{}, false
	}
	return Room{ID: r.ID, Members: cloneMembers(r.Members), State: append(json.RawMessage(nil), r.State...), ended: r.ended}, true
}

// NormalizeCode canonicalizes a room code as typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// newRoomCode draws an unused code from the random bytes of a v4 UUID.
// Assumes lock is held by caller.
func (h *Hub) newRoomCode() string {
	for {
		id := uuid.New()
		b := make([]byte, RoomCodeLength)
		for i := range b {
			b[i] = roomCodeAlphabet[int(id[i])%len(roomCodeAlphabet)]
		}
		code := string(b)
		if _, taken := h.rooms[code]; !taken {
			return code
		}
	}
}

// broadcastLocked sends to every member of room except skipID.
// Assumes lock is held by caller.
func (h *Hub) broadcastLocked(room *Room, skipID, event string, data interface{}) {
	msg, err := Encode(event, data)
	if err != nil {
		h.log.WithField("event", event).WithError(err).Error("Encoding broadcast failed.")
		return
	}
	for _, m := range room.Members {
		if m.SocketID != skipID {
			h.deliverLocked(m.SocketID, msg)
		}
	}
}

// deliverLocked queues msg for a connection, dropping it if the connection
// is gone or its buffer is full.
// Assumes lock is held by caller.
func (h *Hub) deliverLocked(clientID string, msg []byte) {
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.log.WithField("conn", clientID).Warn("Send buffer full, message dropped.")
	}
}

func (h *Hub) send(c *Client, event string, data interface{}) {
	msg, err := Encode(event, data)
	if err != nil {
		h.log.WithField("event", event).WithError(err).Error("Encoding message failed.")
		return
	}
	h.mu.Lock()
	h.deliverLocked(c.id, msg)
	h.mu.Unlock()
}

func (h *Hub) sendError(c *Client, message string) {
	h.send(c, EventError, ErrorData{Message: message})
}

func (h *Hub) saveSnapshot(ctx context.Context, code string, state json.RawMessage) {
	if len(state) == 0 {
		return
	}
	if err := h.store.Save(ctx, code, state); err != nil {
		h.log.WithField("room", code).WithError(err).Warn("Saving room snapshot failed.")
	}
}

func (h *Hub) recordResult(ctx context.Context, code string, raw json.RawMessage) {
	var st engine.GameState
	if err := json.Unmarshal(raw, &st); err != nil {
		return
	}
	winner := st.WinnerPlayer()
	if winner == nil {
		return
	}
	if err := h.recorder.RecordResult(ctx, code, winner.Name, st.TurnID); err != nil {
		h.log.WithField("room", code).WithError(err).Warn("Recording game result failed.")
	}
}

// isFinished peeks at the status of a forwarded state without validating it.
func isFinished(raw json.RawMessage) bool {
	var peek struct {
		Status engine.Status `json:"status"`
	}
	return json.Unmarshal(raw, &peek) == nil && peek.Status == engine.StatusGameOver
}

func cloneMembers(ms []Member) []Member {
	out := make([]Member, len(ms))
	copy(out, ms)
	return out
}
