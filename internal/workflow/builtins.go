package workflow

import "github.com/iambrandonn/converse/internal/catalog"

// Built-in navigation command names. These are ordinary descriptors supplied
// at the lowest precedence, so any workflow source may shadow them by
// declaring a command with the same qualified name.
const (
	CommandNavigateToParent = "navigate_to_parent"
	CommandResetContext     = "reset_context"
	CommandCurrentContext   = "current_context"
)

// Handler reference keys for the built-in commands. The dispatch engine
// registers implementations under these keys before composition.
const (
	HandlerNavigateToParent = "core.navigate_to_parent"
	HandlerResetContext     = "core.reset_context"
	HandlerCurrentContext   = "core.current_context"
)

// CoreOrigin identifies the built-in source in composition listings.
const CoreOrigin = "core"

// Builtins returns the always-available navigation primitives. They are
// context-free, so they are candidates at every context instance.
func Builtins() Source {
	return Source{
		Origin: CoreOrigin,
		Commands: []catalog.Descriptor{
			{
				QualifiedName: CommandNavigateToParent,
				OwningContext: catalog.GlobalContext,
				Description:   "Move the current context to the parent of the current object.",
				Handler:       HandlerNavigateToParent,
				Examples: []string{
					"go back",
					"go up one level",
					"navigate to the parent",
				},
			},
			{
				QualifiedName: CommandResetContext,
				OwningContext: catalog.GlobalContext,
				Description:   "Return to the workflow's root context.",
				Handler:       HandlerResetContext,
				Examples: []string{
					"start over",
					"go to the beginning",
					"reset the context",
				},
			},
			{
				QualifiedName: CommandCurrentContext,
				OwningContext: catalog.GlobalContext,
				Description:   "Describe the current context.",
				Handler:       HandlerCurrentContext,
				Examples: []string{
					"where am i",
					"what is the current context",
					"show current context",
				},
			},
		},
	}
}
