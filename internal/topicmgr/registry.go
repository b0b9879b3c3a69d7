package topicmgr

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry stores registered topics by name.
type Registry struct {
	entries map[string]*RegistryEntry
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

// Register adds topic; names must be unique.
func (r *Registry) Register(topic Topic) error {
	if topic == nil || topic.Name() == "" {
		return &TopicError{Type: ErrorValidationFailed, Message: "topic and name are required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := topic.Name()
	if _, exists := r.entries[name]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   name,
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic already registered: %s", name),
		}
	}
	r.entries[name] = &RegistryEntry{Topic: topic, RegisteredAt: time.Now()}
	return nil
}

// Get looks a topic up by name.
func (r *Registry) Get(name string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Topic, true
}

// List returns all topics sorted by name.
func (r *Registry) List() []Topic {
	return r.filter(func(Topic) bool { return true })
}

// ListByModule returns the topics owned by module.
func (r *Registry) ListByModule(module string) []Topic {
	return r.filter(func(t Topic) bool { return t.Module() == module })
}

// ListByScope returns the topics with the given scope.
func (r *Registry) ListByScope(scope TopicScope) []Topic {
	return r.filter(func(t Topic) bool { return t.Scope() == scope })
}

func (r *Registry) filter(keep func(Topic) bool) []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]Topic, 0, len(r.entries))
	for _, entry := range r.entries {
		if keep(entry.Topic) {
			topics = append(topics, entry.Topic)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name() < topics[j].Name() })
	return topics
}

// Count returns the number of registered topics.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset removes all topics (primarily for testing).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*RegistryEntry)
}

// RegistryStats summarises the registry.
type RegistryStats struct {
	TotalTopics     int            `json:"total_topics"`
	FrameworkTopics int            `json:"framework_topics"`
	ModuleTopics    int            `json:"module_topics"`
	ModuleBreakdown map[string]int `json:"module_breakdown"`
}

// Stats returns topic counts by scope and module.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{TotalTopics: len(r.entries), ModuleBreakdown: make(map[string]int)}
	for _, entry := range r.entries {
		switch entry.Topic.Scope() {
		case ScopeFramework:
			stats.FrameworkTopics++
		case ScopeModule:
			stats.ModuleTopics++
			stats.ModuleBreakdown[entry.Topic.Module()]++
		}
	}
	return stats
}
