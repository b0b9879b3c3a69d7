package websocket

import "errors"

// Sentinel errors for the channel layer. Everything except ErrTransportFailure is
// recoverable: the offending client gets an error payload and stays connected.
var (
	ErrNameConflict     = errors.New("username already taken in channel")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnknownType      = errors.New("unknown message type")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrTargetNotFound   = errors.New("target not found")
	ErrTransportFailure = errors.New("transport failure")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrClientClosed     = errors.New("client closed")
	ErrShuttingDown     = errors.New("server shutting down")
)

// errCloseRequested is returned by the router when the client asked to end the session.
var errCloseRequested = errors.New("close requested")

// isRecoverable reports whether err should be answered with an error payload
// instead of tearing the session down.
func isRecoverable(err error) bool {
	return errors.Is(err, ErrMalformedPayload) ||
		errors.Is(err, ErrUnknownType) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrTargetNotFound) ||
		errors.Is(err, ErrRateLimited)
}

// clientText maps an error onto the text sent back in an error payload.
func clientText(err error) string {
	switch {
	case errors.Is(err, ErrUnknownType):
		return ErrUnknownType.Error()
	case errors.Is(err, ErrUnknownCommand):
		return ErrUnknownCommand.Error()
	default:
		return err.Error()
	}
}
