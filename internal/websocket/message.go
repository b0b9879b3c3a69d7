package websocket

import "encoding/json"

// Wire type tags. Every payload carries exactly one of these in its "type" field.
const (
	TypeSystem        = "system"
	TypeMessage       = "message"
	TypeDirect        = "direct"
	TypeCommand       = "command"
	TypeCommandResult = "command_result"
	TypeError         = "error"
)

// System event names.
const (
	EventConnected  = "connected"
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
	// EventAnnouncement carries an Announcement published on the bus.
	EventAnnouncement = "announcement"
)

// Outbound is a payload the server sends to a client. The set of implementations
// is closed: SystemMessage, ChatMessage, DirectMessage, CommandResult, ErrorMessage.
type Outbound interface {
	MessageType() string
	outbound()
}

// Inbound is a decoded client payload. Implementations: InboundMessage,
// InboundDirect, InboundCommand and CloseRequest.
type Inbound interface {
	inbound()
}

// MemberEvent is the data carried by membership system events.
type MemberEvent struct {
	Username string `json:"username"`
	Channel  string `json:"channel"`
}

// SystemMessage announces a lifecycle event (connected, user_joined, user_left).
type SystemMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ChatMessage is a channel broadcast attributed to a username.
type ChatMessage struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

// DirectMessage is delivered to exactly one member of the sender's channel.
type DirectMessage struct {
	From    string `json:"from"`
	Content string `json:"content"`
}

// CommandResult answers a command, sent to the requester only.
type CommandResult struct {
	Command string `json:"command"`
	Data    any    `json:"data"`
}

// ErrorMessage reports a rejected payload to its originator.
type ErrorMessage struct {
	Message string `json:"message"`
}

func (SystemMessage) MessageType() string { return TypeSystem }
func (ChatMessage) MessageType() string   { return TypeMessage }
func (DirectMessage) MessageType() string { return TypeDirect }
func (CommandResult) MessageType() string { return TypeCommandResult }
func (ErrorMessage) MessageType() string  { return TypeError }

func (SystemMessage) outbound() {}
func (ChatMessage) outbound()   {}
func (DirectMessage) outbound() {}
func (CommandResult) outbound() {}
func (ErrorMessage) outbound()  {}

// MarshalJSON adds the type tag to the encoded payload.
func (m SystemMessage) MarshalJSON() ([]byte, error) {
	type alias SystemMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeSystem, alias(m)})
}

// MarshalJSON adds the type tag to the encoded payload.
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	type alias ChatMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeMessage, alias(m)})
}

// MarshalJSON adds the type tag to the encoded payload.
func (m DirectMessage) MarshalJSON() ([]byte, error) {
	type alias DirectMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeDirect, alias(m)})
}

// MarshalJSON adds the type tag to the encoded payload.
func (m CommandResult) MarshalJSON() ([]byte, error) {
	type alias CommandResult
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeCommandResult, alias(m)})
}

// MarshalJSON adds the type tag to the encoded payload.
func (m ErrorMessage) MarshalJSON() ([]byte, error) {
	type alias ErrorMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeError, alias(m)})
}

// InboundMessage asks for a broadcast to the sender's channel.
type InboundMessage struct {
	Content string `json:"content" validate:"required"`
}

// InboundDirect asks for delivery to a single member of the sender's channel.
type InboundDirect struct {
	Target  string `json:"target" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// InboundCommand invokes a registered command.
type InboundCommand struct {
	Cmd  string   `json:"cmd" validate:"required"`
	Args []string `json:"args"`
}

// CloseRequest is produced by codecs that let the client end the session in-band.
type CloseRequest struct{}

func (InboundMessage) inbound() {}
func (InboundDirect) inbound()  {}
func (InboundCommand) inbound() {}
func (CloseRequest) inbound()   {}

// NewError builds an error payload.
func NewError(text string) ErrorMessage {
	return ErrorMessage{Message: text}
}

func memberEvent(event, username, channel string) SystemMessage {
	return SystemMessage{
		Event: event,
		Data:  MemberEvent{Username: username, Channel: channel},
	}
}
