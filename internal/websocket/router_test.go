package websocket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerFixture struct {
	reg    *Registry
	router *Router
	cmds   *CommandProcessor
	alice  *Client
	bob    *Client
}

func newRouterFixture(t *testing.T, echoToSender bool) *routerFixture {
	t.Helper()
	reg := NewRegistry(UsernameReject, nil)
	cmds := NewCommandProcessor()
	require.NoError(t, RegisterBuiltins(cmds, reg))
	router := NewRouter(reg, NewBroadcaster(reg, nil), cmds, echoToSender, nil)

	f := &routerFixture{
		reg:    reg,
		router: router,
		cmds:   cmds,
		alice:  joinTestClient(t, reg, "id-alice", "lobby", "alice"),
		bob:    joinTestClient(t, reg, "id-bob", "lobby", "bob"),
	}
	drain(t, f.alice)
	drain(t, f.bob)
	return f
}

func (f *routerFixture) route(t *testing.T, c *Client, frame string) {
	t.Helper()
	require.NoError(t, f.router.Route(context.Background(), c, []byte(frame)))
}

func errorPayload(text string) map[string]any {
	return map[string]any{"type": TypeError, "message": text}
}

func TestRouter_MessageBroadcastIncludesSender(t *testing.T) {
	f := newRouterFixture(t, true)

	f.route(t, f.alice, `{"type":"message","content":"hi"}`)

	want := []map[string]any{{"type": TypeMessage, "username": "alice", "content": "hi"}}
	assert.Equal(t, want, drain(t, f.bob))
	assert.Equal(t, want, drain(t, f.alice))
}

func TestRouter_MessageBroadcastExcludesSender(t *testing.T) {
	f := newRouterFixture(t, false)

	f.route(t, f.alice, `{"type":"message","content":"hi"}`)

	assert.Len(t, drain(t, f.bob), 1)
	assert.Empty(t, drain(t, f.alice))
}

func TestRouter_MessageStaysInChannel(t *testing.T) {
	f := newRouterFixture(t, true)
	carol := joinTestClient(t, f.reg, "id-carol", "kitchen", "carol")
	drain(t, carol)

	f.route(t, f.alice, `{"type":"message","content":"hi"}`)

	assert.Empty(t, drain(t, carol))
}

func TestBroadcaster_BroadcastTo(t *testing.T) {
	f := newRouterFixture(t, true)
	carol := joinTestClient(t, f.reg, "id-carol", "lobby", "carol")
	drain(t, carol)
	drain(t, f.alice)
	drain(t, f.bob)
	b := NewBroadcaster(f.reg, nil)

	sent := b.BroadcastTo("lobby", []string{"bob", "carol", "ghost"}, ChatMessage{Username: "alice", Content: "psst"})

	assert.Equal(t, 2, sent)
	want := []map[string]any{{"type": TypeMessage, "username": "alice", "content": "psst"}}
	assert.Equal(t, want, drain(t, f.bob))
	assert.Equal(t, want, drain(t, carol))
	assert.Empty(t, drain(t, f.alice))
}

func TestRouter_Direct(t *testing.T) {
	f := newRouterFixture(t, true)

	f.route(t, f.alice, `{"type":"direct","target":"bob","content":"psst"}`)

	assert.Equal(t, []map[string]any{{"type": TypeDirect, "from": "alice", "content": "psst"}}, drain(t, f.bob))
	assert.Empty(t, drain(t, f.alice))
}

func TestRouter_DirectUnknownTarget(t *testing.T) {
	f := newRouterFixture(t, true)

	f.route(t, f.alice, `{"type":"direct","target":"carol","content":"psst"}`)

	assert.Equal(t, []map[string]any{errorPayload("user carol not found or offline")}, drain(t, f.alice))
	assert.Empty(t, drain(t, f.bob))
}

func TestRouter_Commands(t *testing.T) {
	f := newRouterFixture(t, true)

	tests := []struct {
		name  string
		frame string
		want  map[string]any
	}{
		{
			name:  "list_users",
			frame: `{"type":"command","content":{"cmd":"list_users"}}`,
			want:  map[string]any{"type": TypeCommandResult, "command": "list_users", "data": []any{"alice", "bob"}},
		},
		{
			name:  "flat command form",
			frame: `{"type":"command","cmd":"list_users"}`,
			want:  map[string]any{"type": TypeCommandResult, "command": "list_users", "data": []any{"alice", "bob"}},
		},
		{
			name:  "help",
			frame: `{"type":"command","content":{"cmd":"help"}}`,
			want:  map[string]any{"type": TypeCommandResult, "command": "help", "data": []any{"channel_info", "help", "list_users"}},
		},
		{
			name:  "unknown command",
			frame: `{"type":"command","content":{"cmd":"dance"}}`,
			want:  errorPayload("unknown command"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.route(t, f.alice, tt.frame)
			assert.Equal(t, []map[string]any{tt.want}, drain(t, f.alice))
			assert.Empty(t, drain(t, f.bob), "command results go to the requester only")
		})
	}
}

func TestRouter_ChannelInfoCommand(t *testing.T) {
	f := newRouterFixture(t, true)

	f.route(t, f.bob, `{"type":"command","content":{"cmd":"channel_info"}}`)

	got := drain(t, f.bob)
	require.Len(t, got, 1)
	data, ok := got[0]["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "lobby", data["name"])
	assert.EqualValues(t, 2, data["member_count"])
	assert.NotEmpty(t, data["created_at"])
}

func TestRouter_CustomCommandReceivesArgs(t *testing.T) {
	f := newRouterFixture(t, true)
	var got CommandRequest
	require.NoError(t, f.cmds.Register("echo", func(_ context.Context, req CommandRequest) (any, error) {
		got = req
		return req.Args, nil
	}))

	f.route(t, f.bob, `{"type":"command","content":{"cmd":"echo","args":["a","b"]}}`)

	assert.Equal(t, CommandRequest{Channel: "lobby", Username: "bob", ClientID: "id-bob", Args: []string{"a", "b"}}, got)
	assert.Equal(t, []map[string]any{{"type": TypeCommandResult, "command": "echo", "data": []any{"a", "b"}}}, drain(t, f.bob))
}

func TestRouter_RejectedPayloads(t *testing.T) {
	f := newRouterFixture(t, true)

	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{"unknown type", `{"type":"bogus"}`, "unknown message type"},
		{"server-only type", `{"type":"system","event":"connected"}`, "unknown message type"},
		{"invalid json", `{bad`, ""},
		{"missing type", `{"content":"hi"}`, "malformed payload: missing type"},
		{"missing content", `{"type":"message"}`, "malformed payload: content is required"},
		{"non-string content", `{"type":"message","content":42}`, "malformed payload: content must be a string"},
		{"direct without target", `{"type":"direct","content":"x"}`, "malformed payload: target is required"},
		{"command without name", `{"type":"command","content":{}}`, "malformed payload: cmd is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.route(t, f.alice, tt.frame)

			got := drain(t, f.alice)
			require.Len(t, got, 1, "exactly one error payload per rejected frame")
			assert.Equal(t, TypeError, got[0]["type"])
			if tt.want != "" {
				assert.Equal(t, tt.want, got[0]["message"])
			} else {
				assert.Contains(t, got[0]["message"], "malformed payload")
			}
			assert.Empty(t, drain(t, f.bob))
			assert.Equal(t, StateOpen, f.alice.State(), "the connection stays open")
		})
	}
}

func TestRouter_TextCodecCloseRequest(t *testing.T) {
	reg := NewRegistry(UsernameReject, nil)
	router := NewRouter(reg, NewBroadcaster(reg, nil), NewCommandProcessor(), true, nil)
	ft := newFakeTransport()
	c := newClient("id-t", ft, TextCodec{}, testConfig(), "", nil)
	_, _, err := reg.Join(context.Background(), "lobby", "dave", c)
	require.NoError(t, err)
	<-c.send

	require.NoError(t, router.Route(context.Background(), c, []byte("hello there")))
	assert.Equal(t, ":: dave: hello there", string(<-c.send))

	assert.ErrorIs(t, router.Route(context.Background(), c, []byte("close")), errCloseRequested)
}

func TestRouter_Hooks(t *testing.T) {
	f := newRouterFixture(t, true)

	var directs []string
	f.router.SetHooks(Hooks{
		OnMessage: func(_ context.Context, c *Client, content string) bool {
			return content == "/secret"
		},
		OnDirect: func(_ context.Context, from, to *Client, content string) {
			directs = append(directs, from.Username+"->"+to.Username+":"+content)
		},
	})

	f.route(t, f.alice, `{"type":"message","content":"/secret"}`)
	assert.Empty(t, drain(t, f.bob), "handled messages are not broadcast")

	f.route(t, f.alice, `{"type":"message","content":"public"}`)
	assert.Len(t, drain(t, f.bob), 1)

	f.route(t, f.alice, `{"type":"direct","target":"bob","content":"yo"}`)
	assert.Equal(t, []string{"alice->bob:yo"}, directs)
	drain(t, f.bob)

	// bob is still a member but no longer accepts frames.
	f.bob.state.Store(int32(StateClosing))
	f.route(t, f.alice, `{"type":"direct","target":"bob","content":"lost"}`)
	assert.Equal(t, []string{"alice->bob:yo"}, directs, "undelivered directs are not observed")
}

func TestRouter_PanickingHookIsContained(t *testing.T) {
	f := newRouterFixture(t, true)
	f.router.SetHooks(Hooks{
		OnMessage: func(context.Context, *Client, string) bool { panic("boom") },
	})

	f.route(t, f.alice, `{"type":"message","content":"still works"}`)

	assert.Len(t, drain(t, f.bob), 1)
}
