// Package registry is a named lookup table of node bodies, letting a
// declarative graph definition (internal/config + internal/graphbuild)
// reference Go-implemented node logic by name instead of embedding code in
// HCL — the same named-handler indirection the teacher's own
// internal/registry provides for runners and assets, narrowed here to the
// one thing this engine's declarative surface needs: op name to Body.
package registry

import (
	"sort"
	"sync"

	"github.com/vk/dagflow/internal/node"
)

// Registry maps a declarative `op` name to the Go function that implements
// it. Safe for concurrent registration and lookup.
type Registry struct {
	mu     sync.RWMutex
	bodies map[string]node.Body
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{bodies: make(map[string]node.Body)}
}

// Register associates name with body. Registering the same name twice
// replaces the previous body, matching the teacher's last-write-wins
// module-registration behavior.
func (r *Registry) Register(name string, body node.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies[name] = body
}

// Lookup returns the body registered under name, if any.
func (r *Registry) Lookup(name string) (node.Body, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bodies[name]
	return b, ok
}

// Names returns every registered op name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.bodies))
	for k := range r.bodies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
