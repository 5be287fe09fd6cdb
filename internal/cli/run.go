package cli

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iambrandonn/converse/internal/engine"
	"github.com/iambrandonn/converse/internal/intent"
	"github.com/iambrandonn/converse/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive dispatch session",
	Long: `Start an interactive session against the built-in retail demo domain.
Each input line is dispatched as an utterance; the session keeps a
current context that commands and the navigation built-ins move around.

Directives start with ':' (:commands, :context, :reload, :quit).`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	state, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	transcriptPath := filepath.Join(cfg.TranscriptDir,
		fmt.Sprintf("session-%s-%s.ndjson", time.Now().UTC().Format("20060102T150405Z"), uuid.New().String()[:8]))
	recorder, err := session.NewRecorder(transcriptPath, logger)
	if err != nil {
		return err
	}
	defer recorder.Close()

	out := cmd.OutOrStdout()
	formatter := session.NewFormatter()
	logger.Info("session started", "transcript", transcriptPath, "context", state.current.TypeName())
	fmt.Fprintf(out, "Current context: %s. Type an instruction, or :quit to exit.\n", state.current.TypeName())

	var history []intent.Exchange
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprintf(out, "%s> ", state.current.TypeName())
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			done, err := state.directive(cmd, line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if done {
				break
			}
			continue
		}

		from := state.current
		res := state.d.Dispatch(cmd.Context(), state.current, line, history)
		if res.NewContext != nil {
			state.current = res.NewContext
		}

		rec := session.FromResult(res, from)
		if err := recorder.Append(rec); err != nil {
			logger.Warn("transcript append failed", "error", err)
		}
		fmt.Fprintln(out, formatter.FormatRecord(rec))
		printResultDetail(out, res)

		exchange := intent.Exchange{Utterance: res.Utterance, Command: res.CommandName()}
		if res.Failure != nil {
			exchange.Failure = string(res.Failure.Kind)
		}
		history = append(history, exchange)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	logger.Info("session ended", "exchanges", len(history))
	return nil
}

// directive handles ':'-prefixed session controls. It returns true when the
// session should end.
func (s *sessionState) directive(cmd *cobra.Command, line string) (bool, error) {
	out := cmd.OutOrStdout()
	switch line {
	case ":quit", ":exit":
		return true, nil
	case ":context":
		fmt.Fprintf(out, "current context: %s\n", s.current.TypeName())
		return false, nil
	case ":commands":
		available, err := s.d.Available(s.current)
		if err != nil {
			return false, err
		}
		for _, c := range available {
			fmt.Fprintf(out, "  %-28s %s\n", c.QualifiedName, c.Description)
		}
		return false, nil
	case ":reload":
		if err := s.d.Reload(s.sources); err != nil {
			return false, fmt.Errorf("reload rejected, previous catalog kept: %w", err)
		}
		fmt.Fprintln(out, "catalog reloaded")
		return false, nil
	default:
		return false, fmt.Errorf("unknown directive %s", line)
	}
}

// printResultDetail prints the parts of a result the one-line summary omits:
// command output on success, remediation hints on failure.
func printResultDetail(out io.Writer, res engine.Result) {
	if !res.Failed() {
		keys := make([]string, 0, len(res.Output))
		for key := range res.Output {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(out, "  %s: %v\n", key, res.Output[key])
		}
		return
	}
	f := res.Failure
	switch f.Kind {
	case engine.FailureAmbiguousIntent:
		fmt.Fprintf(out, "  did you mean: %s\n", strings.Join(f.Candidates, ", "))
	case engine.FailureMissingParameters:
		fmt.Fprintf(out, "  please provide: %s\n", strings.Join(f.Missing, ", "))
	case engine.FailureInvalidParameters:
		for _, v := range f.Violations {
			fmt.Fprintf(out, "  %s: %s\n", v.Field, v.Message)
			if len(v.Suggestions) > 0 {
				fmt.Fprintf(out, "    try one of: %s\n", strings.Join(v.Suggestions, ", "))
			}
		}
	}
}
