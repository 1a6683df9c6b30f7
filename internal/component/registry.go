package component

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a component from its constructor parameters.
type Factory func(init map[string]any) (Component, error)

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// Register makes a component type available to FromConfig. Components
// register themselves in package init. Registering the same name twice
// panics, since it indicates an init-order bug rather than a runtime
// condition.
func Register(name string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("component: duplicate registration for %q", name))
	}
	registry[name] = f
}

// FromConfig reconstructs a component from a configuration record.
func FromConfig(cfg Config) (Component, error) {
	regMu.RLock()
	f, ok := registry[cfg.Type]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("component: unknown type %q (registered: %v)", cfg.Type, Types())
	}
	return f(cfg.Init)
}

// Types returns the registered component type names, sorted.
func Types() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
