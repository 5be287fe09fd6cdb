package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iambrandonn/converse/internal/catalog"
	"github.com/iambrandonn/converse/internal/config"
	"github.com/iambrandonn/converse/internal/demo"
	"github.com/iambrandonn/converse/internal/engine"
	"github.com/iambrandonn/converse/internal/intent"
	"github.com/iambrandonn/converse/internal/workflow"
)

// loadConfig reads the config file named by --config (or the default search
// path) and applies any explicit classifier flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("threshold") {
		cfg.Classifier.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("margin") {
		cfg.Classifier.Margin, _ = cmd.Flags().GetFloat64("margin")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the structured logger at the configured level, writing to
// stderr so dispatch output on stdout stays clean.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// sessionState is one interactive conversation: the demo domain, its
// dispatcher, and the caller-owned current-context pointer.
type sessionState struct {
	domain  *demo.Domain
	d       *engine.Dispatcher
	current catalog.Instance
	sources []workflow.Source
}

// newSession wires the demo domain, layers any configured workflow files on
// top of it, and builds the dispatcher. File-sourced commands must reference
// already-registered handler keys (demo.* or core.*).
func newSession(cfg *config.Config, logger *slog.Logger) (*sessionState, error) {
	domain := demo.NewDomain()
	table := catalog.NewHandlerTable()
	domain.Register(table)

	sources := []workflow.Source{domain.Workflow()}
	if len(cfg.Workflows) > 0 {
		extra, err := workflow.LoadSources(cfg.Workflows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, extra...)
	}

	classifier := &intent.BaselineClassifier{
		Threshold: cfg.Classifier.Threshold,
		Margin:    cfg.Classifier.Margin,
	}

	d, err := engine.New(table, sources, classifier, intent.KeyValueExtractor{},
		engine.WithLogger(logger),
		engine.WithMaxAncestorDepth(cfg.MaxAncestorDepth),
		engine.WithRoot(func() catalog.Instance { return domain.Store }),
	)
	if err != nil {
		return nil, fmt.Errorf("workflow activation failed: %w", err)
	}
	domain.Wire(d.Navigator())

	return &sessionState{
		domain:  domain,
		d:       d,
		current: domain.Store,
		sources: sources,
	}, nil
}
