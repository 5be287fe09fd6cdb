// Package contexts resolves, for each declared context type, the full set of
// commands it exposes through inheritance: own commands, base-type commands,
// and universal commands contributed by a wildcard base entry.
package contexts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Wildcard is the base entry meaning "this type also exposes every universal
// (context-free) command".
const Wildcard = "*"

var (
	// ErrUnknownType indicates a resolution request for an undeclared context type.
	ErrUnknownType = errors.New("contexts: unknown context type")
	// ErrUnknownBase indicates a declared base references an undeclared context type.
	ErrUnknownBase = errors.New("contexts: unknown base type")
	// ErrCycle indicates the base graph contains a cycle.
	ErrCycle = errors.New("contexts: inheritance cycle")
)

// Type declares one context kind: the commands it owns directly and the
// ordered list of bases it inherits from. Immutable after model construction.
type Type struct {
	Name        string   `json:"name" yaml:"name"`
	OwnCommands []string `json:"own_commands,omitempty" yaml:"commands,omitempty"`
	Bases       []string `json:"bases,omitempty" yaml:"bases,omitempty"`
}

// Model holds the declared context types of a composed workflow and answers
// command-set resolution queries. Resolution is pure, so results are cached
// for the lifetime of the model. Safe for concurrent use after construction.
type Model struct {
	types     map[string]Type
	universal []string

	mu    sync.Mutex
	cache map[string][]string
}

// NewModel builds a model from declared types plus the sorted universal
// command names a wildcard base contributes. Every type is resolved eagerly
// so unknown bases and cycles fail at load time rather than at dispatch time.
func NewModel(types []Type, universal []string) (*Model, error) {
	m := &Model{
		types:     make(map[string]Type, len(types)),
		universal: append([]string(nil), universal...),
		cache:     make(map[string][]string, len(types)),
	}
	sort.Strings(m.universal)

	for _, t := range types {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("contexts: context type name required")
		}
		if t.Name == Wildcard {
			return nil, fmt.Errorf("contexts: %q is reserved and cannot name a context type", Wildcard)
		}
		m.types[t.Name] = t
	}

	names := make([]string, 0, len(m.types))
	for name := range m.types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := m.Resolve(name); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Has reports whether a context type is declared.
func (m *Model) Has(name string) bool {
	_, ok := m.types[name]
	return ok
}

// Type returns the declaration for a context type.
func (m *Model) Type(name string) (Type, error) {
	t, ok := m.types[name]
	if !ok {
		return Type{}, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}

// TypeNames returns all declared context type names in sorted order.
func (m *Model) TypeNames() []string {
	names := make([]string, 0, len(m.types))
	for name := range m.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the full command set visible at a context type: its own
// commands unioned with the resolved sets of its bases, deduplicated and
// sorted for deterministic listings.
func (m *Model) Resolve(typeName string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked(typeName, nil)
}

func (m *Model) resolveLocked(typeName string, path []string) ([]string, error) {
	if cached, ok := m.cache[typeName]; ok {
		return cached, nil
	}

	for _, seen := range path {
		if seen == typeName {
			cycle := append(append([]string(nil), path...), typeName)
			return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
		}
	}

	t, ok := m.types[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}

	set := make(map[string]struct{}, len(t.OwnCommands))
	for _, name := range t.OwnCommands {
		set[name] = struct{}{}
	}

	path = append(path, typeName)
	for _, base := range t.Bases {
		if base == Wildcard {
			for _, name := range m.universal {
				set[name] = struct{}{}
			}
			continue
		}
		if _, declared := m.types[base]; !declared {
			return nil, fmt.Errorf("%w: %s (base of %s)", ErrUnknownBase, base, typeName)
		}
		resolved, err := m.resolveLocked(base, path)
		if err != nil {
			return nil, err
		}
		for _, name := range resolved {
			set[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	m.cache[typeName] = out
	return out, nil
}
