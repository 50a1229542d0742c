package server

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/config"
)

type wireMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.FromEnv()
	cfg.Server.Port = "127.0.0.1:0"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Required = false
	cfg.Database.Enabled = false
	cfg.Redis.Addr = ""
	cfg.Engine.PersistInterval = 0
	cfg.Engine.IdleEviction = 0
	cfg.Engine.ShutdownFlushTime = time.Second
	return cfg
}

func startServer(t *testing.T, cfg *config.Config) (*Server, string) {
	t.Helper()
	s := New(cfg, nil, nil)
	s.SetupMiddleware()
	s.SetupRoutes()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.app.Listener(ln) }()
	t.Cleanup(func() { _ = s.Shutdown() })
	return s, ln.Addr().String()
}

func dial(t *testing.T, addr, query string) *websocket.Conn {
	t.Helper()
	url := "ws://" + addr + "/ws/board"
	if query != "" {
		url += "?" + query
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": eventType, "payload": payload}))
}

// expect reads frames until one of the wanted type arrives.
func expect(t *testing.T, conn *websocket.Conn, eventType string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg wireMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", eventType)
		if msg.Type != eventType {
			continue
		}
		payload := map[string]any{}
		if len(msg.Payload) > 0 {
			require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		}
		return payload
	}
}

func TestServer_CollaborationOverWebSocket(t *testing.T) {
	s, addr := startServer(t, testConfig(t))

	a := dial(t, addr, "")
	sidA := expect(t, a, "connected")["sid"].(string)
	send(t, a, "join_board", map[string]any{"board_id": "X", "user_id": "alice", "display_name": "Alice"})
	state := expect(t, a, "board_state")
	assert.Equal(t, "X", state["board_id"])
	assert.Empty(t, state["strokes"])
	assert.Len(t, state["layers"], 1)

	b := dial(t, addr, "")
	sidB := expect(t, b, "connected")["sid"].(string)
	send(t, b, "join_board", map[string]any{"board_id": "X", "user_id": "bob"})
	expect(t, b, "board_state")

	joined := expect(t, a, "user_joined")
	assert.Equal(t, sidB, joined["sid"])
	assert.Equal(t, float64(2), expect(t, a, "user_count")["count"])

	send(t, b, "stroke_start", map[string]any{"stroke_id": "s1", "tool": "pen"})
	started := expect(t, a, "stroke_start")
	assert.Equal(t, "s1", started["stroke_id"])
	assert.Equal(t, "bob", started["user_id"])

	send(t, b, "stroke_end", map[string]any{"stroke_id": "s1"})
	expect(t, a, "stroke_end")

	live, ok := s.boards.Get("X")
	require.True(t, ok)
	stroke, ok := live.Stroke("s1")
	require.True(t, ok)
	assert.True(t, stroke.Completed)

	send(t, a, "ping", nil)
	expect(t, a, "pong")

	require.NoError(t, a.Close())
	left := expect(t, b, "user_left")
	assert.Equal(t, sidA, left["sid"])
	assert.Equal(t, float64(1), expect(t, b, "user_count")["count"])
	assert.Equal(t, 1, s.rooms.Count("X"))
}

func TestServer_BoardHTTPRoutes(t *testing.T) {
	s, addr := startServer(t, testConfig(t))

	conn := dial(t, addr, "")
	expect(t, conn, "connected")
	send(t, conn, "join_board", map[string]any{"board_id": "live"})
	expect(t, conn, "board_state")
	send(t, conn, "object_add", map[string]any{"object_id": "o1", "type": "rect"})

	require.Eventually(t, func() bool {
		b, ok := s.boards.Get("live")
		if !ok {
			return false
		}
		_, ok = b.Object("o1")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodPost, "/api/boards/live/save", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/api/boards/live/versions", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var versions struct {
		Versions []map[string]any `json:"versions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&versions))
	require.Len(t, versions.Versions, 1)
	assert.Equal(t, float64(1), versions.Versions[0]["version_number"])

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/api/boards/live", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var boardResp map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&boardResp))
	assert.Equal(t, true, boardResp["resident"])

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/api/boards/live/presence", nil))
	require.NoError(t, err)
	var presence map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&presence))
	assert.Equal(t, float64(1), presence["count"])

	resp, err = s.app.Test(httptest.NewRequest(http.MethodPost, "/api/boards/idle/save", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/api/boards/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CreatePrivateBoard(t *testing.T) {
	s, addr := startServer(t, testConfig(t))
	token, err := s.JWTManager().GenerateAccessToken("alice", "Alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/boards", strings.NewReader(`{"name":"Plan","is_public":false}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "owner", created["role"])
	id := created["id"].(string)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/api/boards/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	other, err := s.JWTManager().GenerateAccessToken("mallory", "Mallory")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/boards/"+id+"/save", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/boards/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/api/boards/"+id+"/presence", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/boards/"+id+"/presence", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// websocket joins follow the same rules
	anon := dial(t, addr, "")
	expect(t, anon, "connected")
	send(t, anon, "join_board", map[string]any{"board_id": id, "user_id": "alice"})
	denied := expect(t, anon, "error")
	assert.Equal(t, "FORBIDDEN", denied["code"])
	assert.Equal(t, 0, s.rooms.Count(id))

	owner := dial(t, addr, "token="+token)
	expect(t, owner, "connected")
	send(t, owner, "join_board", map[string]any{"board_id": id})
	expect(t, owner, "board_state")
}

func TestServer_AuthRequired(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Required = true
	s, addr := startServer(t, cfg)

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/board", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := s.JWTManager().GenerateAccessToken("alice", "Alice")
	require.NoError(t, err)
	conn := dial(t, addr, "token="+token)
	expect(t, conn, "connected")

	// the verified identity wins over the payload
	send(t, conn, "join_board", map[string]any{"board_id": "X", "user_id": "impostor", "display_name": "Eve"})
	state := expect(t, conn, "board_state")
	users := state["users"].([]any)
	require.Len(t, users, 1)
	user := users[0].(map[string]any)
	assert.Equal(t, "alice", user["user_id"])
	assert.Equal(t, "Alice", user["display_name"])
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s, _ := startServer(t, testConfig(t))

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "whiteboard_active_connections")
}
