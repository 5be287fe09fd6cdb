package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Instance is a live context object owned by the caller. The router inspects
// it polymorphically and never constructs or destroys one. Implementations
// must be comparable so the containment walk can detect cycles.
type Instance interface {
	TypeName() string
}

// Outcome is what a handler returns on success. A non-nil NewContext tells
// the engine to transition the conversation's current context.
type Outcome struct {
	Output     map[string]any
	NewContext Instance
}

// Handler executes a command's business logic against a context instance.
type Handler interface {
	Invoke(ctx context.Context, instance Instance, params map[string]any) (*Outcome, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, instance Instance, params map[string]any) (*Outcome, error)

// Invoke calls the wrapped function.
func (f HandlerFunc) Invoke(ctx context.Context, instance Instance, params map[string]any) (*Outcome, error) {
	return f(ctx, instance, params)
}

// HandlerTable maps handler reference keys to implementations. Registration
// happens before workflow composition; lookups happen on every dispatch.
type HandlerTable struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewHandlerTable creates an empty handler table.
func NewHandlerTable() *HandlerTable {
	return &HandlerTable{handlers: make(map[string]Handler)}
}

// Register binds a handler implementation to a reference key, replacing any
// previous binding for the same key.
func (t *HandlerTable) Register(key string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[key] = h
}

// RegisterFunc binds a plain function to a reference key.
func (t *HandlerTable) RegisterFunc(key string, f HandlerFunc) {
	t.Register(key, f)
}

// Lookup resolves a handler reference key.
func (t *HandlerTable) Lookup(key string) (Handler, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandler, key)
	}
	return h, nil
}

// Has reports whether a handler is registered under the key.
func (t *HandlerTable) Has(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.handlers[key]
	return ok
}

// Keys returns all registered handler keys in sorted order.
func (t *HandlerTable) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.handlers))
	for key := range t.handlers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
