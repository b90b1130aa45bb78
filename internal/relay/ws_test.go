package relay

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialRelay(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })

	_, msg, err := conn.Read(ctx)
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	require.Equal(t, EventWelcome, env.Event)
	var w WelcomeData
	require.NoError(t, json.Unmarshal(env.Data, &w))
	require.NotEmpty(t, w.SocketID)
	return conn
}

func writeEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	msg, err := Encode(event, data)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, msg))
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) Envelope {
	t.Helper()
	_, msg, err := conn.Read(ctx)
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestServeWSRoundTrip(t *testing.T) {
	h := NewHub(Config{})
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	host := dialRelay(t, ctx, srv)
	writeEvent(t, ctx, host, EventCreateRoom, CreateRoomData{PlayerName: "Ann"})
	env := readEvent(t, ctx, host)
	require.Equal(t, EventRoomCreated, env.Event)
	var created RoomCreatedData
	require.NoError(t, json.Unmarshal(env.Data, &created))

	guest := dialRelay(t, ctx, srv)
	writeEvent(t, ctx, guest, EventJoinRoom, JoinRoomData{RoomID: created.RoomID, PlayerName: "Bob"})
	assert.Equal(t, EventPlayerJoined, readEvent(t, ctx, host).Event)
	assert.Equal(t, EventPlayerJoined, readEvent(t, ctx, guest).Event)

	state := json.RawMessage(`{"status":"playing","turnId":4}`)
	writeEvent(t, ctx, host, EventUpdateGameState, UpdateGameStateData{RoomID: created.RoomID, GameState: state})
	env = readEvent(t, ctx, guest)
	require.Equal(t, EventGameStateUpdated, env.Event)
	var got GameStateData
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.JSONEq(t, string(state), string(got.GameState))

	guest.Close(websocket.StatusNormalClosure, "")
	env = readEvent(t, ctx, host)
	require.Equal(t, EventPlayerLeft, env.Event)
	var left PlayersData
	require.NoError(t, json.Unmarshal(env.Data, &left))
	require.Len(t, left.Players, 1)
	assert.Equal(t, "Ann", left.Players[0].Name)
}

func TestServeWSRejectsForeignOrigin(t *testing.T) {
	h := NewHub(Config{OriginPatterns: []string{"localhost:5173"}})
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	opts := &websocket.DialOptions{HTTPHeader: map[string][]string{"Origin": {"http://evil.example"}}}
	_, resp, err := websocket.Dial(ctx, url, opts)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, 403, resp.StatusCode)
	}
}
