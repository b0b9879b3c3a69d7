package websocket

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopCommand(context.Context, CommandRequest) (any, error) { return nil, nil }

func TestCommandProcessor_Register(t *testing.T) {
	tests := []struct {
		name          string
		initial       []string
		command       string
		handler       CommandHandler
		expectedError error
		expectedNames []string
	}{
		{
			name:          "add new command",
			initial:       []string{"list_users"},
			command:       "kick",
			handler:       noopCommand,
			expectedNames: []string{"kick", "list_users"},
		},
		{
			name:          "duplicate command",
			initial:       []string{"list_users"},
			command:       "list_users",
			handler:       noopCommand,
			expectedError: ErrCommandAlreadyExists,
			expectedNames: []string{"list_users"},
		},
		{
			name:          "empty name",
			initial:       []string{"list_users"},
			command:       "",
			handler:       noopCommand,
			expectedError: ErrInvalidCommand,
			expectedNames: []string{"list_users"},
		},
		{
			name:          "nil handler",
			command:       "kick",
			expectedError: ErrInvalidCommand,
			expectedNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewCommandProcessor()
			for _, name := range tt.initial {
				require.NoError(t, p.Register(name, noopCommand))
			}

			err := p.Register(tt.command, tt.handler)

			assert.ErrorIs(t, err, tt.expectedError)
			assert.Equal(t, tt.expectedNames, p.Names())
		})
	}
}

func TestCommandProcessor_ExecuteUnknown(t *testing.T) {
	p := NewCommandProcessor()

	_, err := p.Execute(context.Background(), "nope", CommandRequest{})

	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestCommandProcessor_HandlerErrorsPassThrough(t *testing.T) {
	p := NewCommandProcessor()
	boom := fmt.Errorf("boom")
	require.NoError(t, p.Register("fail", func(context.Context, CommandRequest) (any, error) {
		return nil, boom
	}))

	_, err := p.Execute(context.Background(), "fail", CommandRequest{})

	assert.ErrorIs(t, err, boom)
}

func TestCommandProcessor_ConcurrentAccess(t *testing.T) {
	p := NewCommandProcessor()
	const numGoroutines = 100
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			_ = p.Register(string(rune('a'+(idx%26))), noopCommand)
		}(i)
		go func(idx int) {
			defer wg.Done()
			_, _ = p.Execute(context.Background(), string(rune('a'+(idx%26))), CommandRequest{})
		}(i)
	}
	wg.Wait()

	assert.Len(t, p.Names(), 26)
}

func TestRegisterBuiltins(t *testing.T) {
	reg := NewRegistry(UsernameReject, nil)
	p := NewCommandProcessor()
	require.NoError(t, RegisterBuiltins(p, reg))

	assert.Equal(t, []string{"channel_info", "help", "list_users"}, p.Names())
	assert.ErrorIs(t, RegisterBuiltins(p, reg), ErrCommandAlreadyExists)

	joinTestClient(t, reg, "id-1", "lobby", "zed")
	joinTestClient(t, reg, "id-2", "lobby", "amy")

	users, err := p.Execute(context.Background(), "list_users", CommandRequest{Channel: "lobby"})
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "zed"}, users)

	_, err = p.Execute(context.Background(), "channel_info", CommandRequest{Channel: "gone"})
	assert.Error(t, err)
}
