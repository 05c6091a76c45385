package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adwski/webrtc-meeting/backend/model"
	"github.com/adwski/webrtc-meeting/backend/moderation"
	"github.com/adwski/webrtc-meeting/backend/service"
	"github.com/adwski/webrtc-meeting/backend/storage/memory"
	_switch "github.com/adwski/webrtc-meeting/backend/switch"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T, origins []string) (*httptest.Server, *memory.MemStore) {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.NewMemStore()
	svc := service.NewService(service.Config{
		Registry:  store,
		Switch:    _switch.NewSwitch(_switch.Config{Logger: &logger, QueueSize: 16}),
		Moderator: moderation.Default(),
		Logger:    &logger,
	})
	srv := NewServer(Config{
		Logger:           &logger,
		SignalingService: svc,
		AllowedOrigins:   origins,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, store
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/signal", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func recv(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestServer_Signaling(t *testing.T) {
	ts, store := newTestServer(t, nil)

	a := dial(t, ts)
	send(t, a, `{"type":"join-room","payload":{"roomCode":"ABC123","userEmail":"a@example.com"}}`)
	env := recv(t, a)
	assert.Equal(t, model.EventRoomUsers, env.Type)

	b := dial(t, ts)
	send(t, b, `{"type":"join-room","payload":{"roomCode":"ABC123","userEmail":"b@example.com"}}`)

	env = recv(t, b)
	require.Equal(t, model.EventRoomUsers, env.Type)
	var roster []model.Member
	require.NoError(t, json.Unmarshal(env.Payload, &roster))
	require.Len(t, roster, 1)
	assert.Equal(t, "a@example.com", roster[0].Identity)
	idA := roster[0].ConnID

	env = recv(t, a)
	require.Equal(t, model.EventUserJoined, env.Type)
	var peer model.PeerPayload
	require.NoError(t, json.Unmarshal(env.Payload, &peer))
	assert.Equal(t, "b@example.com", peer.Email)
	idB := peer.SocketID

	send(t, b, `{"type":"offer","payload":{"offer":{"type":"offer","sdp":"v=0"},"to":"`+idA+`"}}`)
	env = recv(t, a)
	require.Equal(t, model.EventOffer, env.Type)
	var offer model.OfferOut
	require.NoError(t, json.Unmarshal(env.Payload, &offer))
	assert.Equal(t, idB, offer.From)
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0"}`, string(offer.Offer))

	require.NoError(t, b.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	env = recv(t, a)
	require.Equal(t, model.EventUserLeft, env.Type)
	require.NoError(t, json.Unmarshal(env.Payload, &peer))
	assert.Equal(t, idB, peer.SocketID)

	assert.Eventually(t, func() bool {
		room, err := store.GetRoom("ABC123")
		return err == nil && len(room.Members) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_MalformedMessageKeepsConnection(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	a := dial(t, ts)
	send(t, a, `not json`)
	send(t, a, `{"type":"no-such-event","payload":{}}`)
	send(t, a, `{"type":"join-room","payload":{"roomCode":"R1","userEmail":"a@example.com"}}`)

	env := recv(t, a)
	assert.Equal(t, model.EventRoomUsers, env.Type)
}

func TestServer_OriginCheck(t *testing.T) {
	ts, _ := newTestServer(t, []string{"https://meet.example.com"})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/signal"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://meet.example.com"}})
	require.NoError(t, err)
	_ = conn.Close()
}

func TestNewServer_Defaults(t *testing.T) {
	logger := zerolog.Nop()
	srv := NewServer(Config{Logger: &logger, PingInterval: 10 * time.Second, PongWait: time.Second})

	assert.Equal(t, int64(defaultWebSocketMaxMessageSize), srv.maxMessageSize)
	assert.Equal(t, 10*time.Second, srv.pingInterval)
	assert.Equal(t, 12*time.Second, srv.pongWait)
}

type closedQueueService struct {
	disconnected chan struct{}
}

func (s *closedQueueService) Connect(connID string) (*service.Session, <-chan model.Announcement, error) {
	tx := make(chan model.Announcement)
	close(tx)
	return service.NewSession(connID), tx, nil
}

func (s *closedQueueService) Receive(*service.Session, []byte) {}

func (s *closedQueueService) Disconnect(*service.Session) {
	close(s.disconnected)
}

func TestServer_SenderExitDisconnectsPromptly(t *testing.T) {
	logger := zerolog.Nop()
	svc := &closedQueueService{disconnected: make(chan struct{})}
	srv := NewServer(Config{
		Logger:           &logger,
		SignalingService: svc,
		PingInterval:     time.Hour,
		PongWait:         2 * time.Hour,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	_ = dial(t, ts)

	select {
	case <-svc.disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("session was not disconnected after sender stopped")
	}
}
