package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iambrandonn/converse/internal/catalog"
	"github.com/iambrandonn/converse/internal/workflow"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.yaml> [more.yaml...]",
	Short: "Check workflow files compose into a usable catalog",
	Long: `Load the given workflow declaration files in precedence order (last
wins ties), compose them, and report the resulting catalog: context
types, commands, and the handler keys a host must register. Handler
implementations are stubbed, so this checks structure only.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	sources, err := workflow.LoadSources(args)
	if err != nil {
		return err
	}

	// Composition rejects dangling handler references, so register a stub
	// under every key the sources (and the built-ins) name.
	table := catalog.NewHandlerTable()
	stub := func(context.Context, catalog.Instance, map[string]any) (*catalog.Outcome, error) {
		return &catalog.Outcome{}, nil
	}
	keys := map[string]struct{}{
		workflow.HandlerNavigateToParent: {},
		workflow.HandlerResetContext:     {},
		workflow.HandlerCurrentContext:   {},
	}
	for _, src := range sources {
		for _, c := range src.Commands {
			if c.Handler != "" {
				keys[c.Handler] = struct{}{}
			}
		}
	}
	for key := range keys {
		table.RegisterFunc(key, stub)
	}

	comp, err := workflow.Compose(table, sources...)
	if err != nil {
		return fmt.Errorf("composition failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "OK: %d sources composed (%s)\n", len(comp.Origins), strings.Join(comp.Origins, " < "))
	fmt.Fprintf(out, "root context type: %s\n", comp.Root)
	fmt.Fprintf(out, "context types: %s\n", strings.Join(comp.Model.TypeNames(), ", "))
	fmt.Fprintf(out, "commands: %d\n", comp.Catalog.Len())
	for _, name := range comp.Catalog.Names() {
		d, _ := comp.Catalog.Get(name)
		fmt.Fprintf(out, "  %-28s context=%-14s handler=%s\n", d.QualifiedName, d.OwningContext, d.Handler)
	}

	hostKeys := make([]string, 0, len(keys))
	for key := range keys {
		if !strings.HasPrefix(key, "core.") {
			hostKeys = append(hostKeys, key)
		}
	}
	sort.Strings(hostKeys)
	if len(hostKeys) > 0 {
		fmt.Fprintf(out, "handler keys the host must register: %s\n", strings.Join(hostKeys, ", "))
	}
	return nil
}
