package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/goby-channels/internal/pubsub"
	ws "github.com/nfrund/goby-channels/internal/websocket"
)

// mockPubSub records published messages.
type mockPubSub struct {
	mu       sync.RWMutex
	messages map[string][]pubsub.Message
}

func newMockPubSub() *mockPubSub {
	return &mockPubSub{messages: make(map[string][]pubsub.Message)}
}

func (m *mockPubSub) Publish(ctx context.Context, msg pubsub.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.Topic] = append(m.messages[msg.Topic], msg)
	return nil
}

func (m *mockPubSub) Close() error { return nil }

func (m *mockPubSub) getMessages(topic string) []pubsub.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := make([]pubsub.Message, len(m.messages[topic]))
	copy(msgs, m.messages[topic])
	return msgs
}

// testFixture holds all the components needed for testing the hub over HTTP.
type testFixture struct {
	hub    *ws.Hub
	ps     *mockPubSub
	server *httptest.Server
}

func setupTestFixture(t *testing.T, cfg ws.Config) *testFixture {
	t.Helper()

	ps := newMockPubSub()
	hub := ws.NewHub(cfg, ws.WithPublisher(ps))

	e := echo.New()
	hub.Mount(e.Group(""))
	server := httptest.NewServer(e)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
		server.Close()
	})

	return &testFixture{hub: hub, ps: ps, server: server}
}

func (f *testFixture) url(path string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + path
}

func dial(t *testing.T, f *testFixture, path string, subprotocols ...string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.Dial(context.Background(), f.url(path), &websocket.DialOptions{
		Subprotocols: subprotocols,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() {
		conn.Close(websocket.StatusNormalClosure, "test complete")
	})
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	return string(data)
}

func write(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(frame)))
}

func closeStatus(t *testing.T, conn *websocket.Conn) websocket.StatusCode {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	return websocket.CloseStatus(err)
}

func member(event, username, channel string) map[string]any {
	return map[string]any{
		"type":  "system",
		"event": event,
		"data":  map[string]any{"username": username, "channel": channel},
	}
}

func TestHub_AliceAndBob(t *testing.T) {
	f := setupTestFixture(t, ws.DefaultConfig())

	alice := dial(t, f, "/ws/lobby?username=alice")
	assert.Equal(t, member("connected", "alice", "lobby"), readJSON(t, alice))

	bob := dial(t, f, "/ws/lobby?username=bob")
	assert.Equal(t, member("connected", "bob", "lobby"), readJSON(t, bob))
	assert.Equal(t, member("user_joined", "bob", "lobby"), readJSON(t, alice))

	write(t, alice, `{"type":"message","content":"hi"}`)
	hi := map[string]any{"type": "message", "username": "alice", "content": "hi"}
	assert.Equal(t, hi, readJSON(t, bob))
	assert.Equal(t, hi, readJSON(t, alice), "sender receives its own broadcast")

	write(t, alice, `{"type":"direct","target":"bob","content":"psst"}`)
	assert.Equal(t, map[string]any{"type": "direct", "from": "alice", "content": "psst"}, readJSON(t, bob))

	write(t, bob, `{"type":"command","content":{"cmd":"list_users"}}`)
	assert.Equal(t, map[string]any{"type": "command_result", "command": "list_users", "data": []any{"alice", "bob"}}, readJSON(t, bob))

	require.NoError(t, bob.Close(websocket.StatusNormalClosure, "bye"))
	assert.Equal(t, member("user_left", "bob", "lobby"), readJSON(t, alice))

	require.Eventually(t, func() bool {
		return len(f.ps.getMessages(ws.TopicClientDisconnected.Name())) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, f.ps.getMessages(ws.TopicClientReady.Name()), 2)

	var ev ws.ClientEvent
	require.NoError(t, json.Unmarshal(f.ps.getMessages(ws.TopicClientDisconnected.Name())[0].Payload, &ev))
	assert.Equal(t, "bob", ev.Username)
	assert.Equal(t, "lobby", ev.Channel)
}

func TestHub_DefaultChannel(t *testing.T) {
	f := setupTestFixture(t, ws.DefaultConfig())

	conn := dial(t, f, "/ws?username=zoe")

	assert.Equal(t, member("connected", "zoe", "default"), readJSON(t, conn))
	assert.Equal(t, []string{"zoe"}, f.hub.Registry().Members("default"))
}

func TestHub_DuplicateUsernameRejected(t *testing.T) {
	f := setupTestFixture(t, ws.DefaultConfig())
	alice := dial(t, f, "/ws/lobby?username=alice")
	readJSON(t, alice)

	impostor := dial(t, f, "/ws/lobby?username=alice")
	msg := readJSON(t, impostor)
	assert.Equal(t, "error", msg["type"])
	assert.Contains(t, msg["message"], "username already taken")
	assert.Equal(t, websocket.StatusPolicyViolation, closeStatus(t, impostor))

	assert.Equal(t, []string{"alice"}, f.hub.Registry().Members("lobby"))
}

func TestHub_InvalidFrameKeepsConnection(t *testing.T) {
	f := setupTestFixture(t, ws.DefaultConfig())
	conn := dial(t, f, "/ws/lobby?username=alice")
	readJSON(t, conn)

	write(t, conn, `{invalid json`)
	msg := readJSON(t, conn)
	assert.Equal(t, "error", msg["type"])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, []byte{0x1, 0x2}))
	msg = readJSON(t, conn)
	assert.Equal(t, "error", msg["type"])

	write(t, conn, `{"type":"message","content":"still here"}`)
	assert.Equal(t, "still here", readJSON(t, conn)["content"])
}

func TestHub_TextSubprotocol(t *testing.T) {
	f := setupTestFixture(t, ws.DefaultConfig())

	conn := dial(t, f, "/ws/lobby?username=carol", ws.SubprotocolText)
	assert.Equal(t, ws.SubprotocolText, conn.Subprotocol())
	assert.Equal(t, "Your username is: carol", readText(t, conn))

	other := dial(t, f, "/ws/lobby?username=dan")
	readJSON(t, other)
	assert.Equal(t, "Client dan joined the channel", readText(t, conn))

	write(t, conn, "hello")
	assert.Equal(t, ":: carol: hello", readText(t, conn))
	assert.Equal(t, map[string]any{"type": "message", "username": "carol", "content": "hello"}, readJSON(t, other),
		"each connection receives its own encoding")

	write(t, conn, "close")
	assert.Equal(t, websocket.StatusNormalClosure, closeStatus(t, conn))
	assert.Equal(t, member("user_left", "carol", "lobby"), readJSON(t, other))
}

func TestHub_ShutdownClosesClientsAndRefusesNewOnes(t *testing.T) {
	f := setupTestFixture(t, ws.DefaultConfig())
	conn := dial(t, f, "/ws/lobby?username=alice")
	readJSON(t, conn)

	// Keep reading so the close handshake completes promptly.
	status := make(chan websocket.StatusCode, 1)
	go func() {
		_, _, err := conn.Read(context.Background())
		status <- websocket.CloseStatus(err)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.hub.Shutdown(ctx))

	assert.Equal(t, websocket.StatusGoingAway, <-status)
	assert.Empty(t, f.hub.Registry().Channels())

	_, resp, err := websocket.Dial(context.Background(), f.url("/ws/lobby?username=bob"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHub_AnnouncementsFromBus(t *testing.T) {
	f := setupTestFixture(t, ws.DefaultConfig())
	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, f.hub.Start(ctx, bus))

	conn := dial(t, f, "/ws/lobby?username=alice")
	readJSON(t, conn)

	payload, err := json.Marshal(ws.Announcement{Channel: "lobby", From: "ops", Content: "restart at noon"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, pubsub.Message{Topic: ws.TopicChannelAnnounce.Name(), Payload: payload}))

	assert.Equal(t, map[string]any{
		"type":  "system",
		"event": "announcement",
		"data":  map[string]any{"channel": "lobby", "from": "ops", "content": "restart at noon"},
	}, readJSON(t, conn))
}

func TestHub_ConcurrentClients(t *testing.T) {
	f := setupTestFixture(t, ws.DefaultConfig())
	const numClients = 10

	conns := make([]*websocket.Conn, numClients)
	for i := range conns {
		conns[i] = dial(t, f, "/ws/crowd?username=user"+string(rune('a'+i)))
	}
	require.Eventually(t, func() bool {
		return len(f.hub.Registry().Members("crowd")) == numClients
	}, 2*time.Second, 10*time.Millisecond)

	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func(i int, conn *websocket.Conn) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			assert.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"message","content":"from `+string(rune('a'+i))+`"}`)))
		}(i, conn)
	}
	wg.Wait()

	// Every client sees numClients chat messages among its membership events.
	for _, conn := range conns {
		seen := 0
		for seen < numClients {
			msg := readJSON(t, conn)
			if msg["type"] == "message" {
				seen++
			}
		}
	}
}
