package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/goby-channels/internal/topicmgr"
)

// Event binds a topic name to its payload type T.
type Event[T any] struct {
	name string
}

// NewEvent defines a typed module event and registers its topic with the default
// topic manager. The module is the first dotted segment of name. Registering the
// same name twice is tolerated so events may be declared at package level.
func NewEvent[T any](name, description string) Event[T] {
	module, _, _ := strings.Cut(name, ".")

	topic := topicmgr.DefineModule(topicmgr.TopicConfig{
		Name:        name,
		Module:      module,
		Description: description,
		Pattern:     name,
		Metadata: map[string]interface{}{
			"payload_fields": payloadFields[T](),
			"type_name":      typeName[T](),
			"is_typed":       true,
		},
	})
	if err := topicmgr.Default().Register(topic); err != nil && !errors.Is(err, topicmgr.ErrDuplicate) {
		panic(fmt.Sprintf("pubsub: cannot define event %q: %v", name, err))
	}

	return Event[T]{name: name}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.name
}

// Publish marshals payload and sends it on the event's topic.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	return PublishAs(ctx, p, event, "", payload)
}

// PublishAs is Publish with the message attributed to userID.
func PublishAs[T any](ctx context.Context, p Publisher, event Event[T], userID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.name, err)
	}
	return p.Publish(ctx, Message{
		Topic:   event.name,
		UserID:  userID,
		Payload: data,
	})
}

// Subscribe decodes each message on the event's topic into T before calling handler.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], handler func(ctx context.Context, payload T) error) error {
	return s.Subscribe(ctx, event.name, func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.name, err)
		}
		return handler(ctx, payload)
	})
}

func structType[T any]() reflect.Type {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func typeName[T any]() string {
	return structType[T]().Name()
}

// payloadFields lists the JSON field names of T for topic documentation.
func payloadFields[T any]() []string {
	t := structType[T]()
	fields := make([]string, 0)
	if t.Kind() != reflect.Struct {
		return fields
	}
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			fields = append(fields, name)
		}
	}
	return fields
}
