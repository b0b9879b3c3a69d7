package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Negotiated WebSocket sub-protocols. A connection uses exactly one codec for its
// whole lifetime; JSON is assumed when the client does not ask for one.
const (
	SubprotocolJSON = "chat.v1.json"
	SubprotocolText = "chat.v1.text"
)

// Codec converts between text frames and payloads.
type Codec interface {
	// Name returns the sub-protocol the codec implements.
	Name() string
	Decode(frame []byte) (Inbound, error)
	Encode(msg Outbound) ([]byte, error)
}

// CodecFor returns the codec for a negotiated sub-protocol.
func CodecFor(subprotocol string) Codec {
	if subprotocol == SubprotocolText {
		return TextCodec{}
	}
	return JSONCodec{}
}

var validate = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	// Report json field names so error payloads match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validatePayload(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrMalformedPayload, strings.Join(problems, ", "))
}

// JSONCodec implements the chat.v1.json framing: one JSON object per frame with a
// "type" discriminant.
type JSONCodec struct{}

type envelope struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
	Target  string          `json:"target"`
	Cmd     string          `json:"cmd"`
	Args    []string        `json:"args"`
}

func (JSONCodec) Name() string { return SubprotocolJSON }

func (JSONCodec) Encode(msg Outbound) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("cannot encode nil payload")
	}
	return json.Marshal(msg)
}

func (JSONCodec) Decode(frame []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch env.Type {
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedPayload)

	case TypeMessage:
		content, err := stringContent(env.Content)
		if err != nil {
			return nil, err
		}
		msg := InboundMessage{Content: content}
		if err := validatePayload(msg); err != nil {
			return nil, err
		}
		return msg, nil

	case TypeDirect:
		content, err := stringContent(env.Content)
		if err != nil {
			return nil, err
		}
		msg := InboundDirect{Target: env.Target, Content: content}
		if err := validatePayload(msg); err != nil {
			return nil, err
		}
		return msg, nil

	case TypeCommand:
		// The command body normally sits under "content"; a flat
		// {"type":"command","cmd":...} form is accepted too.
		cmd := InboundCommand{Cmd: env.Cmd, Args: env.Args}
		if len(env.Content) > 0 && string(env.Content) != "null" {
			cmd = InboundCommand{}
			if err := json.Unmarshal(env.Content, &cmd); err != nil {
				return nil, fmt.Errorf("%w: content: %v", ErrMalformedPayload, err)
			}
		}
		if err := validatePayload(cmd); err != nil {
			return nil, err
		}
		return cmd, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func stringContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: content must be a string", ErrMalformedPayload)
	}
	return s, nil
}

// TextCodec implements the legacy chat.v1.text mode: every inbound frame is a raw
// chat line, the literal "close" ends the session, and outbound payloads are
// rendered as human readable lines.
type TextCodec struct{}

func (TextCodec) Name() string { return SubprotocolText }

func (TextCodec) Decode(frame []byte) (Inbound, error) {
	line := strings.TrimSpace(string(frame))
	switch {
	case line == "":
		return nil, fmt.Errorf("%w: empty message", ErrMalformedPayload)
	case line == "close":
		return CloseRequest{}, nil
	default:
		return InboundMessage{Content: line}, nil
	}
}

func (TextCodec) Encode(msg Outbound) ([]byte, error) {
	switch m := msg.(type) {
	case SystemMessage:
		if a, ok := m.Data.(Announcement); ok {
			return []byte("** " + a.From + ": " + a.Content), nil
		}
		ev, ok := m.Data.(MemberEvent)
		if !ok {
			return []byte("* " + m.Event), nil
		}
		switch m.Event {
		case EventConnected:
			return []byte("Your username is: " + ev.Username), nil
		case EventUserJoined:
			return []byte("Client " + ev.Username + " joined the channel"), nil
		case EventUserLeft:
			return []byte("Client " + ev.Username + " left the channel"), nil
		}
		return []byte("* " + m.Event + " " + ev.Username), nil
	case ChatMessage:
		return []byte(":: " + m.Username + ": " + m.Content), nil
	case DirectMessage:
		return []byte(":: " + m.From + " (direct): " + m.Content), nil
	case CommandResult:
		data, err := json.Marshal(m.Data)
		if err != nil {
			return nil, err
		}
		return []byte(m.Command + ": " + string(data)), nil
	case ErrorMessage:
		return []byte("error: " + m.Message), nil
	default:
		return nil, fmt.Errorf("text codec cannot encode %T", msg)
	}
}
