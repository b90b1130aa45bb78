package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dsabo2007/UNO/internal/database"
	"github.com/Dsabo2007/UNO/internal/relay"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frontend = "http://localhost:5173"

type fakeHistory struct {
	games []database.GameRecord
	err   error
	limit int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]database.GameRecord, error) {
	f.limit = limit
	return f.games, f.err
}

func serve(t *testing.T, r http.Handler, path, origin string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndRooms(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := relay.NewHub(relay.Config{})
	r := CreateServer(hub, []string{frontend}, nil)

	w := serve(t, r, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", w.Body.String())

	c := hub.NewClient(4)
	msg, err := relay.Encode(relay.EventCreateRoom, relay.CreateRoomData{PlayerName: "Ann"})
	require.NoError(t, err)
	hub.Handle(c, msg)

	w = serve(t, r, "/rooms", frontend)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, frontend, w.Header().Get("Access-Control-Allow-Origin"))
	var rooms relay.RoomsData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, 1, rooms.Rooms[0].Players)

	assert.Equal(t, http.StatusNotFound, serve(t, r, "/history", "").Code)
}

func TestForeignOriginRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := CreateServer(relay.NewHub(relay.Config{}), []string{frontend}, nil)

	w := serve(t, r, "/rooms", "http://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusOK, serve(t, r, "/health", "http://evil.example").Code)
}

func TestHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &fakeHistory{games: []database.GameRecord{{ID: 1, RoomID: "ABC123", Winner: "Ann", Turns: 12}}}
	r := CreateServer(relay.NewHub(relay.Config{}), []string{frontend}, h)

	w := serve(t, r, "/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultHistoryLimit, h.limit)
	var body struct {
		Games []database.GameRecord `json:"games"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Games, 1)
	assert.Equal(t, "Ann", body.Games[0].Winner)

	serve(t, r, "/history?limit=5000", "")
	assert.Equal(t, maxHistoryLimit, h.limit)

	assert.Equal(t, http.StatusBadRequest, serve(t, r, "/history?limit=x", "").Code)

	h.err = errors.New("down")
	assert.Equal(t, http.StatusInternalServerError, serve(t, r, "/history", "").Code)
}
