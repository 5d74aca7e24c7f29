package associator

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = "replace"

// ErrUnknownPolicy is returned by Get for unregistered names.
var ErrUnknownPolicy = errors.New("unknown inheritance policy")

// Factory creates an Associator.
type Factory func() Associator

// registry holds the registered policy factories.
var registry = map[string]Factory{
	"replace": func() Associator { return Replace{} },
	"merge":   func() Associator { return Merge{} },
}

// Register registers a policy factory under name, replacing any existing one.
// This should be called during package init.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Get returns the Associator registered under name. An empty name selects
// DefaultPolicy.
func Get(name string) (Associator, error) {
	if name == "" {
		name = DefaultPolicy
	}
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}
	return factory(), nil
}

// RegisteredPolicies returns the registered policy names, sorted.
func RegisteredPolicies() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
