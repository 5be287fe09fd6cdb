package engine

import (
	"sync"

	"github.com/iambrandonn/converse/internal/catalog"
)

// DefaultMaxAncestorDepth bounds the containment walk against misconfigured
// parent chains.
const DefaultMaxAncestorDepth = 16

// ParentFunc returns the parent of a live instance, or nil at the root.
// The business object knows its own parent; the router stores no graph.
type ParentFunc func(catalog.Instance) catalog.Instance

// Navigator holds per-type parent callbacks and answers parent lookups on
// demand. Registration happens at wiring time; lookups happen per dispatch.
type Navigator struct {
	mu      sync.RWMutex
	parents map[string]ParentFunc
}

// NewNavigator creates an empty navigator.
func NewNavigator() *Navigator {
	return &Navigator{parents: make(map[string]ParentFunc)}
}

// Register binds a parent callback to a context type name.
func (n *Navigator) Register(typeName string, fn ParentFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.parents[typeName] = fn
}

// Parent returns the parent of an instance, or nil when the instance's type
// has no callback or the callback reports no parent.
func (n *Navigator) Parent(instance catalog.Instance) catalog.Instance {
	if instance == nil {
		return nil
	}
	n.mu.RLock()
	fn := n.parents[instance.TypeName()]
	n.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(instance)
}
