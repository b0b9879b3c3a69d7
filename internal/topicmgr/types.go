package topicmgr

import (
	"errors"
	"time"
)

// Topic is a named, documented bus topic.
type Topic interface {
	Name() string
	// Module returns the owning module; empty for framework topics.
	Module() string
	Description() string
	Pattern() string
	Example() string
	Metadata() map[string]interface{}
	Scope() TopicScope
}

// TopicScope tells framework topics from module topics.
type TopicScope string

const (
	ScopeFramework TopicScope = "framework"
	ScopeModule    TopicScope = "module"
)

// TopicConfig describes a topic to define.
type TopicConfig struct {
	Name        string                 `json:"name"`
	Module      string                 `json:"module"`
	Scope       TopicScope             `json:"scope"`
	Description string                 `json:"description"`
	Pattern     string                 `json:"pattern"`
	Example     string                 `json:"example"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// TypedTopic is the Topic implementation returned by DefineFramework and DefineModule.
type TypedTopic struct {
	cfg TopicConfig
}

var _ Topic = (*TypedTopic)(nil)

func (t *TypedTopic) Name() string        { return t.cfg.Name }
func (t *TypedTopic) Module() string      { return t.cfg.Module }
func (t *TypedTopic) Description() string { return t.cfg.Description }
func (t *TypedTopic) Pattern() string     { return t.cfg.Pattern }
func (t *TypedTopic) Example() string     { return t.cfg.Example }
func (t *TypedTopic) Scope() TopicScope   { return t.cfg.Scope }
func (t *TypedTopic) String() string      { return t.cfg.Name }

// Metadata returns a copy of the topic's metadata.
func (t *TypedTopic) Metadata() map[string]interface{} {
	out := make(map[string]interface{}, len(t.cfg.Metadata))
	for k, v := range t.cfg.Metadata {
		out[k] = v
	}
	return out
}

// DefineFramework creates a framework-scoped topic. Any module is cleared.
func DefineFramework(cfg TopicConfig) Topic {
	cfg.Scope = ScopeFramework
	cfg.Module = ""
	return &TypedTopic{cfg: cfg}
}

// DefineModule creates a module-scoped topic.
func DefineModule(cfg TopicConfig) Topic {
	cfg.Scope = ScopeModule
	return &TypedTopic{cfg: cfg}
}

// Sentinel errors matched by TopicError through errors.Is.
var (
	ErrDuplicate = errors.New("topic already registered")
	ErrNotFound  = errors.New("topic not found")
	ErrInvalid   = errors.New("invalid topic")
)

// ErrorType classifies a TopicError.
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

// TopicError is returned by registration and lookup.
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *TopicError) Unwrap() error {
	return e.Cause
}

// Is maps the error type onto the package sentinels.
func (e *TopicError) Is(target error) bool {
	switch e.Type {
	case ErrorDuplicateRegistration:
		return target == ErrDuplicate
	case ErrorTopicNotFound:
		return target == ErrNotFound
	case ErrorValidationFailed:
		return target == ErrInvalid
	}
	return false
}

// RegistryEntry is a registered topic with bookkeeping.
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
}
