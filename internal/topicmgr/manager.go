package topicmgr

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Manager validates and registers topics.
type Manager struct {
	registry  *Registry
	validator *Validator
}

// NewManager creates a manager with an empty registry.
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

// Register validates topic and adds it to the registry.
func (m *Manager) Register(topic Topic) error {
	if err := m.validator.ValidateDefinition(topic); err != nil {
		name, module := "", ""
		if topic != nil {
			name, module = topic.Name(), topic.Module()
		}
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   name,
			Module:  module,
			Message: "topic validation failed",
			Cause:   err,
		}
	}
	return m.registry.Register(topic)
}

// MustRegister registers a topic and panics on error (for static initialization).
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a topic by name.
func (m *Manager) Get(name string) (Topic, bool) {
	return m.registry.Get(name)
}

// Lookup is Get with a TopicError for missing topics.
func (m *Manager) Lookup(name string) (Topic, error) {
	t, ok := m.registry.Get(name)
	if !ok {
		return nil, &TopicError{Type: ErrorTopicNotFound, Topic: name, Message: "topic not found: " + name}
	}
	return t, nil
}

// List returns every registered topic sorted by name.
func (m *Manager) List() []Topic { return m.registry.List() }

// ListByModule returns the topics owned by module.
func (m *Manager) ListByModule(module string) []Topic { return m.registry.ListByModule(module) }

// ListByScope returns the topics with the given scope.
func (m *Manager) ListByScope(scope TopicScope) []Topic { return m.registry.ListByScope(scope) }

// ListModules returns the modules that own at least one topic.
func (m *Manager) ListModules() []string {
	seen := make(map[string]struct{})
	for _, t := range m.registry.ListByScope(ScopeModule) {
		seen[t.Module()] = struct{}{}
	}
	modules := make([]string, 0, len(seen))
	for mod := range seen {
		modules = append(modules, mod)
	}
	sort.Strings(modules)
	return modules
}

// FindTopics matches names against pattern; a trailing * matches any suffix.
func (m *Manager) FindTopics(pattern string) []Topic {
	var matches []Topic
	for _, t := range m.registry.List() {
		if matchesPattern(t.Name(), pattern) {
			matches = append(matches, t)
		}
	}
	return matches
}

// Count returns the number of registered topics.
func (m *Manager) Count() int { return m.registry.Count() }

// Stats returns topic counts by scope and module.
func (m *Manager) Stats() RegistryStats { return m.registry.Stats() }

// Reset removes all registered topics (primarily for testing).
func (m *Manager) Reset() { m.registry.Reset() }

func matchesPattern(name, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return name == pattern
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// Register registers a topic with the default manager.
func Register(topic Topic) error { return Default().Register(topic) }

// Get retrieves a topic from the default manager.
func Get(name string) (Topic, bool) { return Default().Get(name) }

// List returns all topics from the default manager.
func List() []Topic { return Default().List() }
