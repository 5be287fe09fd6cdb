package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "converse",
	Short: "Natural-language command router",
	Long: `converse routes natural-language utterances to declared commands. Each
conversation carries a current context object; the router resolves the
commands visible there through context-type inheritance, walks the
containment chain when nothing matches locally, extracts and validates
parameters, and executes the chosen command's handler.

Running 'converse' without a subcommand is equivalent to 'converse run'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the 'run' command
		return runCmd.RunE(cmd, args)
	},
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(commandsCmd)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to converse.yaml config file (default: search working directory)")
	addClassifierFlags(rootCmd.PersistentFlags())
}

// addClassifierFlags registers the baseline classifier tuning flags. Flag
// values override the config file when set explicitly.
func addClassifierFlags(fs *pflag.FlagSet) {
	fs.Float64("threshold", 0, "Minimum similarity score for an intent match (overrides config)")
	fs.Float64("margin", 0, "Score window within which candidates count as tied (overrides config)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
