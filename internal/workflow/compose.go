package workflow

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iambrandonn/converse/internal/catalog"
	"github.com/iambrandonn/converse/internal/contexts"
)

var (
	// ErrNoSources indicates Compose was called with no workflow sources.
	ErrNoSources = errors.New("workflow: at least one source required")
	// ErrDanglingHandler indicates a command references a handler key with no
	// registered implementation.
	ErrDanglingHandler = errors.New("workflow: command handler not registered")
	// ErrDanglingCommand indicates a context type lists a command that no
	// source declares.
	ErrDanglingCommand = errors.New("workflow: context type references undeclared command")
	// ErrUnknownOwningContext indicates a command is owned by an undeclared
	// context type.
	ErrUnknownOwningContext = errors.New("workflow: command owned by undeclared context type")
)

// Composition is the read-only result of merging workflow sources. It may be
// shared across concurrent dispatches; hot reload replaces the whole value.
type Composition struct {
	Catalog  *catalog.Catalog
	Model    *contexts.Model
	Handlers *catalog.HandlerTable
	Root     string
	Origins  []string
}

// Compose merges the built-in core source and the given sources, lowest
// precedence first, into one effective catalog. A later source's declaration
// for the same context-type or command name fully replaces the earlier one.
// All referential invariants are checked here so activation either gets a
// consistent catalog or a load error, never a partially valid one.
func Compose(handlers *catalog.HandlerTable, sources ...Source) (*Composition, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	all := append([]Source{Builtins()}, sources...)

	cat := catalog.New()
	mergedTypes := make(map[string]contexts.Type)
	root := ""
	origins := make([]string, 0, len(all))

	for _, src := range all {
		origins = append(origins, src.Origin)
		seen := make(map[string]struct{}, len(src.Commands))
		for _, d := range src.Commands {
			if _, dup := seen[d.QualifiedName]; dup {
				return nil, fmt.Errorf("workflow: source %s: %w: %s", src.Origin, catalog.ErrDuplicateCommand, d.QualifiedName)
			}
			seen[d.QualifiedName] = struct{}{}
			if err := cat.Put(d); err != nil {
				return nil, fmt.Errorf("workflow: source %s: %w", src.Origin, err)
			}
		}
		for _, t := range src.Types {
			mergedTypes[t.Name] = t
		}
		if src.Root != "" {
			root = src.Root
		}
	}

	for _, d := range cat.All() {
		if !d.Global() {
			if _, declared := mergedTypes[d.OwningContext]; !declared {
				return nil, fmt.Errorf("%w: %s owned by %s", ErrUnknownOwningContext, d.QualifiedName, d.OwningContext)
			}
		}
		if !handlers.Has(d.Handler) {
			return nil, fmt.Errorf("%w: %s (handler %s)", ErrDanglingHandler, d.QualifiedName, d.Handler)
		}
	}

	types := make([]contexts.Type, 0, len(mergedTypes))
	for _, t := range mergedTypes {
		for _, name := range t.OwnCommands {
			if !cat.Has(name) {
				return nil, fmt.Errorf("%w: %s lists %s", ErrDanglingCommand, t.Name, name)
			}
		}
		types = append(types, t)
	}

	model, err := contexts.NewModel(types, cat.GlobalCommands())
	if err != nil {
		return nil, err
	}

	if root != "" && !model.Has(root) {
		return nil, fmt.Errorf("%w: root %s", contexts.ErrUnknownType, root)
	}

	return &Composition{
		Catalog:  cat,
		Model:    model,
		Handlers: handlers,
		Root:     root,
		Origins:  origins,
	}, nil
}

// Available returns the descriptors visible at a context type: its resolved
// inherited set unioned with all context-free commands, sorted by name.
func (c *Composition) Available(typeName string) ([]catalog.Descriptor, error) {
	resolved, err := c.Model.Resolve(typeName)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(resolved))
	for _, name := range resolved {
		set[name] = struct{}{}
	}
	for _, name := range c.Catalog.GlobalCommands() {
		set[name] = struct{}{}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]catalog.Descriptor, 0, len(names))
	for _, name := range names {
		d, err := c.Catalog.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
