package depletion

import (
	"fmt"
	"sort"
)

// Registry maps strategy keys to engines. It is built once and never
// modified, so it is safe for concurrent use.
type Registry struct {
	engines  map[string]Engine
	fallback Engine
}

// NewRegistry indexes engines by their own Key. A STANDARD engine is required
// because it serves every unknown or empty key.
func NewRegistry(engines ...Engine) (*Registry, error) {
	m := make(map[string]Engine, len(engines))
	for _, e := range engines {
		if e == nil {
			return nil, fmt.Errorf("nil depletion engine")
		}
		if _, dup := m[e.Key()]; dup {
			return nil, fmt.Errorf("duplicate depletion engine %q", e.Key())
		}
		m[e.Key()] = e
	}

	fallback, ok := m[StandardKey]
	if !ok {
		return nil, fmt.Errorf("depletion engine %q is not registered", StandardKey)
	}

	return &Registry{engines: m, fallback: fallback}, nil
}

// NewDefaultRegistry registers the built-in engines
func NewDefaultRegistry() (*Registry, error) {
	return NewRegistry(NewStandardEngine(), NewAtomicEngine())
}

// Lookup returns the engine for key and whether it was an exact match
func (r *Registry) Lookup(key string) (Engine, bool) {
	if e, ok := r.engines[key]; ok {
		return e, true
	}
	return r.fallback, false
}

// Get returns the engine for key, or the STANDARD engine for unknown keys
func (r *Registry) Get(key string) Engine {
	e, _ := r.Lookup(key)
	return e
}

func (r *Registry) Default() Engine {
	return r.fallback
}

// Keys lists the registered strategy keys in sorted order
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.engines))
	for k := range r.engines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
