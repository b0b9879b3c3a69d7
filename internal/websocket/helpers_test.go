package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-memory Transport. Frames pushed with deliver are
// returned by Read; frames written by the client are recorded.
type fakeTransport struct {
	in     chan []byte
	closed chan struct{}
	// gate, when set, blocks every Write until it receives a value.
	gate chan struct{}

	mu        sync.Mutex
	out       [][]byte
	closeCode websocket.StatusCode
	reason    string
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) Read(ctx context.Context) ([]byte, error) {
	select {
	case b := <-f.in:
		return b, nil
	case <-f.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) Write(ctx context.Context, frame []byte) error {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-f.closed:
			return net.ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case <-f.closed:
		return net.ErrClosed
	default:
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, frame)
	return nil
}

func (f *fakeTransport) Close(code websocket.StatusCode, reason string) error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closeCode = code
		f.reason = reason
		f.mu.Unlock()
		close(f.closed)
	})
	return nil
}

// deliver simulates the peer sending a frame.
func (f *fakeTransport) deliver(frame string) {
	f.in <- []byte(frame)
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeTransport) closeStatus() websocket.StatusCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCode
}

func (f *fakeTransport) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.out))
	for i, b := range f.out {
		out[i] = string(b)
	}
	return out
}

// writtenJSON decodes every frame the client wrote.
func (f *fakeTransport) writtenJSON(t *testing.T) []map[string]any {
	t.Helper()
	var payloads []map[string]any
	for _, frame := range f.written() {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(frame), &m))
		payloads = append(payloads, m)
	}
	return payloads
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RateLimitBurst = 0
	return cfg
}

// newTestClient builds a client whose frames stay in its queue (no pumps).
func newTestClient(t *testing.T, id string, cfg Config) (*Client, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	return newClient(id, ft, JSONCodec{}, cfg.withDefaults(), "127.0.0.1", nil), ft
}

// joinTestClient creates a client and joins it to channel under username.
func joinTestClient(t *testing.T, reg *Registry, id, channel, username string) *Client {
	t.Helper()
	c, _ := newTestClient(t, id, testConfig())
	_, _, err := reg.Join(context.Background(), channel, username, c)
	require.NoError(t, err)
	return c
}

// drain empties the client's queue and decodes the JSON frames in order.
func drain(t *testing.T, c *Client) []map[string]any {
	t.Helper()
	var payloads []map[string]any
	for {
		select {
		case frame := <-c.send:
			var m map[string]any
			require.NoError(t, json.Unmarshal(frame, &m), "frame: %s", frame)
			payloads = append(payloads, m)
		default:
			return payloads
		}
	}
}

func systemEvent(event, username, channel string) map[string]any {
	return map[string]any{
		"type":  TypeSystem,
		"event": event,
		"data":  map[string]any{"username": username, "channel": channel},
	}
}

const waitFor = 2 * time.Second
const tick = 10 * time.Millisecond
