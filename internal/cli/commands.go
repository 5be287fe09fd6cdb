package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the commands visible at a context type",
	Long: `List the commands a conversation sees at the given context type: its
own commands, everything inherited through its base types, and the
context-free built-ins. Uses the demo domain plus any workflow files
named in the configuration.`,
	RunE: runCommands,
}

func init() {
	commandsCmd.Flags().StringP("type", "t", "", "Context type to inspect (default: the root type)")
}

func runCommands(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	state, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	typeName, err := cmd.Flags().GetString("type")
	if err != nil {
		return err
	}
	comp := state.d.Composition()
	if typeName == "" {
		typeName = comp.Root
	}

	decl, err := comp.Model.Type(typeName)
	if err != nil {
		return err
	}
	available, err := comp.Available(typeName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "commands visible at %s:\n", typeName)
	if len(decl.Bases) > 0 {
		fmt.Fprintf(out, "  inherits from: %s\n", strings.Join(decl.Bases, ", "))
	}
	for _, d := range available {
		fmt.Fprintf(out, "  %-28s %s\n", d.QualifiedName, d.Description)
		if len(d.Schema) > 0 {
			required := d.Schema.RequiredFields()
			if len(required) > 0 {
				fmt.Fprintf(out, "    requires: %s\n", strings.Join(required, ", "))
			}
		}
	}
	return nil
}
