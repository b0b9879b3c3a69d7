package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/coder/websocket"
)

// Transport is the socket primitive a Client runs on: receive a text frame,
// send a text frame, close. Read and Write must unblock once Close is called or
// their context is done.
type Transport interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, frame []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// connTransport adapts a coder/websocket connection.
type connTransport struct {
	conn *websocket.Conn
}

// NewTransport wraps an accepted coder/websocket connection.
func NewTransport(conn *websocket.Conn) Transport {
	return &connTransport{conn: conn}
}

func (t *connTransport) Read(ctx context.Context) ([]byte, error) {
	typ, data, err := t.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText {
		return nil, fmt.Errorf("%w: binary frames are not supported", ErrMalformedPayload)
	}
	return data, nil
}

func (t *connTransport) Write(ctx context.Context, frame []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, frame)
}

func (t *connTransport) Close(code websocket.StatusCode, reason string) error {
	return t.conn.Close(code, reason)
}

// isExpectedCloseError reports errors that merely mean the peer is already gone.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway, websocket.StatusNoStatusRcvd:
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "already wrote close") ||
		strings.Contains(msg, "broken pipe")
}
