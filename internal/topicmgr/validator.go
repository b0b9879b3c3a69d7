package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Topic names are dotted lowercase segments: ws.client.ready, chat.user.joined.
	namePattern   = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`)
	modulePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	frameworkPrefixes = []string{"ws.", "server."}
	reservedPrefixes  = []string{"system.", "internal.", "debug."}
)

// Validator checks topic definitions before registration.
type Validator struct{}

// NewValidator creates a topic validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDefinition checks the name, documentation and scope rules of topic.
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}
	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}
	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}
	if strings.TrimSpace(topic.Pattern()) == "" {
		return fmt.Errorf("topic pattern cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		if topic.Module() != "" {
			return fmt.Errorf("framework topics should not have a module")
		}
		if !hasAnyPrefix(topic.Name(), frameworkPrefixes) {
			return fmt.Errorf("framework topic must start with one of %v", frameworkPrefixes)
		}
	case ScopeModule:
		if !modulePattern.MatchString(topic.Module()) {
			return fmt.Errorf("module topics need a lowercase module name, got %q", topic.Module())
		}
	default:
		return fmt.Errorf("invalid topic scope: %q", topic.Scope())
	}
	return nil
}

// ValidateName checks a topic name against the naming convention.
func (v *Validator) ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name cannot be empty")
	case len(name) > 100:
		return fmt.Errorf("name too long (max 100 characters)")
	case !namePattern.MatchString(name):
		return fmt.Errorf("name must be dotted lowercase alphanumeric segments")
	case hasAnyPrefix(name, reservedPrefixes):
		return fmt.Errorf("name cannot start with a reserved prefix %v", reservedPrefixes)
	}
	return nil
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
