package relay

import "encoding/json"

// Event names on the wire.
const (
	EventCreateRoom       = "create_room"
	EventJoinRoom         = "join_room"
	EventStartGame        = "start_game"
	EventUpdateGameState  = "update_game_state"
	EventSendMessage      = "send_message"
	EventRoomsList        = "rooms_list"
	EventWelcome          = "welcome"
	EventRoomCreated      = "room_created"
	EventPlayerJoined     = "player_joined"
	EventGameStarted      = "game_started"
	EventGameStateUpdated = "game_state_updated"
	EventReceiveMessage   = "receive_message"
	EventPlayerLeft       = "player_left"
	EventRooms            = "rooms"
	EventError            = "error"
)

// Error messages sent to the offending connection only.
const (
	ErrMsgRoomNotFound   = "Room not found"
	ErrMsgRoomFull       = "Room is full"
	ErrMsgInvalidPayload = "invalid payload"
	ErrMsgRateLimited    = "rate limited"
	ErrMsgUnknownEvent   = "unknown event"
)

// Envelope wraps every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Member is one connection seated in a room.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SocketID string `json:"socketId"`
}

// WelcomeData tells a new connection its socket ID, which is also its
// member ID in any room it sits in.
type WelcomeData struct {
	SocketID string `json:"socketId"`
}

type CreateRoomData struct {
	PlayerName string `json:"playerName"`
}

type RoomCreatedData struct {
	RoomID string `json:"roomId"`
}

type JoinRoomData struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

// PlayersData carries the membership list for player_joined and player_left.
type PlayersData struct {
	Players []Member `json:"players"`
}

type StartGameData struct {
	RoomID           string          `json:"roomId"`
	InitialGameState json.RawMessage `json:"initialGameState"`
}

type UpdateGameStateData struct {
	RoomID    string          `json:"roomId"`
	GameState json.RawMessage `json:"gameState"`
}

// GameStateData is the payload of game_started and game_state_updated.
type GameStateData struct {
	GameState json.RawMessage `json:"gameState"`
}

// MessageData is a chat or log line. The relay forwards the whole payload.
type MessageData struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName,omitempty"`
	Message    string `json:"message"`
}

type RoomInfo struct {
	RoomID   string `json:"roomId"`
	Players  int    `json:"players"`
	Capacity int    `json:"capacity"`
	Started  bool   `json:"started"`
}

type RoomsData struct {
	Rooms []RoomInfo `json:"rooms"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// Encode builds a wire message.
func Encode(event string, data interface{}) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
