package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adwski/webrtc-meeting/backend/model"
	"github.com/adwski/webrtc-meeting/backend/storage/memory"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response[T any] struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Data    T      `json:"data"`
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.MemStore) {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.NewMemStore()
	srv := NewServer(Config{
		Logger:      &logger,
		RoomService: store,
		ICEServers:  []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}},
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, store
}

func get[T any](t *testing.T, url string) (int, response[T]) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out response[T]
	require.NoError(t, json.Unmarshal(b, &out))
	return resp.StatusCode, out
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t)

	code, resp := get[any](t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", resp.Message)
}

func TestServer_Rooms(t *testing.T) {
	ts, store := newTestServer(t)

	_, err := store.Join("ABC123", "A", "a@example.com")
	require.NoError(t, err)
	_, err = store.Join("ABC123", "B", "b@example.com")
	require.NoError(t, err)
	_, err = store.Join("XYZ", "C", "c@example.com")
	require.NoError(t, err)

	code, rooms := get[[]model.RoomSummary](t, ts.URL+"/api/rooms")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []model.RoomSummary{
		{ID: "ABC123", Members: 2},
		{ID: "XYZ", Members: 1},
	}, rooms.Data)

	code, room := get[model.Room](t, ts.URL+"/api/rooms/ABC123")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ABC123", room.Data.ID)
	require.Len(t, room.Data.Members, 2)
	assert.Equal(t, "a@example.com", room.Data.Members[0].Identity)
	assert.Equal(t, "b@example.com", room.Data.Members[1].Identity)

	code, missing := get[any](t, ts.URL+"/api/rooms/nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, missing.Error)
}

func TestServer_ICEServers(t *testing.T) {
	ts, _ := newTestServer(t)

	code, resp := get[[]webrtc.ICEServer](t, ts.URL+"/api/ice-servers")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, resp.Data[0].URLs)
}

func TestServer_CORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/rooms", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "GET, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
}
