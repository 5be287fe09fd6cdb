package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// GlobalContext is the owning-context value for context-free commands.
// Commands owned by it are candidates everywhere and are the set contributed
// by a wildcard base entry in a context-type declaration.
const GlobalContext = "global"

var (
	// ErrDuplicateCommand indicates two descriptors with the same qualified name were added.
	ErrDuplicateCommand = errors.New("catalog: duplicate command")
	// ErrUnknownCommand indicates a lookup for a qualified name that is not registered.
	ErrUnknownCommand = errors.New("catalog: unknown command")
	// ErrUnknownHandler indicates a handler key with no registered implementation.
	ErrUnknownHandler = errors.New("catalog: unknown handler")
)

// FieldType enumerates the primitive types an input schema field may declare.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeNumber FieldType = "number"
	FieldTypeBool   FieldType = "bool"
)

// Field describes one input schema field: its type, whether extraction must
// supply it, and declarative validation hints checked before execution.
type Field struct {
	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Pattern  string    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Min      *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Enum     []string  `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// Validate checks that the field declaration itself is well formed.
func (f Field) Validate() error {
	switch f.Type {
	case FieldTypeString, FieldTypeInt, FieldTypeNumber, FieldTypeBool:
	default:
		return fmt.Errorf("catalog: unknown field type %q", f.Type)
	}
	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return fmt.Errorf("catalog: invalid pattern %q: %w", f.Pattern, err)
		}
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("catalog: min %v exceeds max %v", *f.Min, *f.Max)
	}
	return nil
}

// InputSchema maps field names to their declarations.
type InputSchema map[string]Field

// RequiredFields returns the sorted names of all required fields.
func (s InputSchema) RequiredFields() []string {
	var required []string
	for name, field := range s {
		if field.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	return required
}

// Descriptor describes one invocable command. Examples feed the intent
// classifier; the router itself never interprets them.
type Descriptor struct {
	QualifiedName string      `json:"qualified_name" yaml:"name"`
	OwningContext string      `json:"owning_context" yaml:"context"`
	Description   string      `json:"description,omitempty" yaml:"description,omitempty"`
	Schema        InputSchema `json:"schema,omitempty" yaml:"params,omitempty"`
	Handler       string      `json:"handler" yaml:"handler"`
	Examples      []string    `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// Global reports whether the command is context-free.
func (d Descriptor) Global() bool {
	return d.OwningContext == "" || d.OwningContext == GlobalContext
}

// Validate checks the descriptor is complete enough to register.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.QualifiedName) == "" {
		return fmt.Errorf("catalog: command name required")
	}
	if strings.TrimSpace(d.Handler) == "" {
		return fmt.Errorf("catalog: command %s: handler reference required", d.QualifiedName)
	}
	for name, field := range d.Schema {
		if err := field.Validate(); err != nil {
			return fmt.Errorf("catalog: command %s field %s: %w", d.QualifiedName, name, err)
		}
	}
	return nil
}

// Catalog is a flat registry of command descriptors keyed by qualified name.
// It is immutable once composition finishes and safe for concurrent reads.
type Catalog struct {
	commands map[string]Descriptor
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{commands: make(map[string]Descriptor)}
}

// Add registers a descriptor, rejecting duplicates.
func (c *Catalog) Add(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := c.commands[d.QualifiedName]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, d.QualifiedName)
	}
	c.commands[d.QualifiedName] = d
	return nil
}

// Put registers a descriptor, replacing any existing entry with the same
// qualified name. Composition uses it to apply precedence.
func (c *Catalog) Put(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	c.commands[d.QualifiedName] = d
	return nil
}

// Get returns the descriptor for a qualified name.
func (c *Catalog) Get(name string) (Descriptor, error) {
	d, ok := c.commands[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return d, nil
}

// Has reports whether a qualified name is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.commands[name]
	return ok
}

// Len returns the number of registered commands.
func (c *Catalog) Len() int {
	return len(c.commands)
}

// Names returns all qualified names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every descriptor sorted by qualified name.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, 0, len(c.commands))
	for _, name := range c.Names() {
		out = append(out, c.commands[name])
	}
	return out
}

// GlobalCommands returns the sorted names of all context-free commands.
func (c *Catalog) GlobalCommands() []string {
	var names []string
	for name, d := range c.commands {
		if d.Global() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
