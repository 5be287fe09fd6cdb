// Package engine implements the dispatch pipeline: candidate lookup through
// context inheritance and containment, intent ranking, parameter extraction
// and validation, handler execution, and context-transition bookkeeping.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/iambrandonn/converse/internal/catalog"
	"github.com/iambrandonn/converse/internal/intent"
	"github.com/iambrandonn/converse/internal/workflow"
)

// ErrAtRoot is returned by the navigate-to-parent handler when the current
// instance has no parent. The dispatcher maps it to FailureAtRoot.
var ErrAtRoot = errors.New("engine: current context has no parent")

// errNoRoot is returned by the reset handler when no root instance was wired.
var errNoRoot = errors.New("engine: no root context instance registered")

// Dispatcher routes utterances to commands. It is stateless between calls:
// the caller owns the current-context pointer and passes it into every
// Dispatch, so one process can serve many independent conversations. The
// composed catalog is swapped atomically on reload, letting in-flight
// dispatches finish against a consistent snapshot.
type Dispatcher struct {
	comp       atomic.Pointer[workflow.Composition]
	table      *catalog.HandlerTable
	classifier intent.Classifier
	extractor  intent.Extractor
	validator  intent.FieldValidator
	navigator  *Navigator
	root       func() catalog.Instance
	logger     *slog.Logger
	maxDepth   int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithFieldValidator installs an external per-field validator run after the
// declarative schema checks.
func WithFieldValidator(v intent.FieldValidator) Option {
	return func(d *Dispatcher) { d.validator = v }
}

// WithMaxAncestorDepth overrides the containment walk bound.
func WithMaxAncestorDepth(depth int) Option {
	return func(d *Dispatcher) { d.maxDepth = depth }
}

// WithRoot supplies the workflow's root context instance used by the
// reset_context built-in.
func WithRoot(fn func() catalog.Instance) Option {
	return func(d *Dispatcher) { d.root = fn }
}

// New registers the built-in navigation handlers into the table, composes
// the workflow sources, and returns a ready dispatcher. Composition errors
// are load-time fatal and halt workflow activation.
func New(table *catalog.HandlerTable, sources []workflow.Source, classifier intent.Classifier, extractor intent.Extractor, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		table:      table,
		classifier: classifier,
		extractor:  extractor,
		navigator:  NewNavigator(),
		logger:     slog.Default(),
		maxDepth:   DefaultMaxAncestorDepth,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.registerBuiltins(table)

	comp, err := workflow.Compose(table, sources...)
	if err != nil {
		return nil, err
	}
	d.comp.Store(comp)
	return d, nil
}

// Navigator returns the parent-callback registry for wiring per-type
// navigation callbacks.
func (d *Dispatcher) Navigator() *Navigator {
	return d.navigator
}

// Composition returns the current catalog snapshot.
func (d *Dispatcher) Composition() *workflow.Composition {
	return d.comp.Load()
}

// Reload recomposes the given sources and swaps the catalog atomically.
func (d *Dispatcher) Reload(sources []workflow.Source) error {
	comp, err := workflow.Compose(d.table, sources...)
	if err != nil {
		return err
	}
	d.comp.Store(comp)
	d.logger.Info("catalog reloaded", "origins", comp.Origins, "commands", comp.Catalog.Len())
	return nil
}

// Available returns the commands visible at a live instance, for
// what-can-I-do introspection.
func (d *Dispatcher) Available(instance catalog.Instance) ([]catalog.Descriptor, error) {
	if instance == nil {
		return nil, fmt.Errorf("engine: nil context instance")
	}
	return d.comp.Load().Available(instance.TypeName())
}

// Dispatch runs the full pipeline for one utterance against the caller's
// current context instance. The returned Result is terminal: Executed, or a
// structured failure; errors never cross the router boundary as panics.
func (d *Dispatcher) Dispatch(ctx context.Context, instance catalog.Instance, utterance string, history []intent.Exchange) Result {
	res := Result{
		DispatchID: fmt.Sprintf("disp-%s", uuid.New().String()[:8]),
		Utterance:  utterance,
		Stage:      StageIdle,
	}
	if instance == nil {
		res.Failure = &Failure{Kind: FailureNoMatchingCommand, Message: "no current context instance"}
		return res
	}

	comp := d.comp.Load()
	log := d.logger.With("dispatch_id", res.DispatchID, "context_type", instance.TypeName())

	chosen, effective, failure := d.resolveCommand(ctx, comp, instance, utterance, history, &res)
	if failure != nil {
		res.Failure = failure
		log.Info("dispatch failed", "stage", res.Stage, "kind", failure.Kind)
		return res
	}
	res.Stage = StageRanked
	res.Command = &chosen
	log.Debug("intent ranked", "command", chosen.QualifiedName)

	if cancelled(ctx, &res) {
		return res
	}

	values, failure := d.extractParams(ctx, chosen, effective, utterance)
	if failure != nil {
		res.Failure = failure
		log.Info("dispatch failed", "stage", res.Stage, "kind", failure.Kind)
		return res
	}
	res.Stage = StageExtracted
	res.Params = values

	if cancelled(ctx, &res) {
		return res
	}

	if failure := d.validateParams(ctx, chosen, effective, values); failure != nil {
		res.Failure = failure
		log.Info("dispatch failed", "stage", res.Stage, "kind", failure.Kind)
		return res
	}
	res.Stage = StageValidated

	if cancelled(ctx, &res) {
		return res
	}

	outcome, failure := d.execute(ctx, comp, chosen, effective, values)
	if failure != nil {
		res.Failure = failure
		log.Info("dispatch failed", "stage", res.Stage, "kind", failure.Kind)
		return res
	}
	res.Stage = StageExecuted
	if outcome != nil {
		res.Output = outcome.Output
		res.NewContext = outcome.NewContext
	}
	// A match found at a containment ancestor moves the current context
	// there unless the handler navigated somewhere else.
	if res.NewContext == nil && effective != instance {
		res.NewContext = effective
	}
	log.Info("dispatch executed", "command", chosen.QualifiedName, "navigated", res.NewContext != nil)
	return res
}

// resolveCommand walks the containment chain from the current instance
// upward, gathering candidates at each level and ranking them, until a
// single match is found or the chain ends.
func (d *Dispatcher) resolveCommand(ctx context.Context, comp *workflow.Composition, instance catalog.Instance, utterance string, history []intent.Exchange, res *Result) (catalog.Descriptor, catalog.Instance, *Failure) {
	visited := make(map[catalog.Instance]struct{})
	current := instance
	sawCandidates := false

	for depth := 0; current != nil; depth++ {
		if cancelled(ctx, res) {
			return catalog.Descriptor{}, nil, res.Failure
		}
		if _, seen := visited[current]; seen {
			return catalog.Descriptor{}, nil, &Failure{
				Kind:    FailureContainmentCycle,
				Message: fmt.Sprintf("containment cycle detected at %s", current.TypeName()),
			}
		}
		if depth > d.maxDepth {
			return catalog.Descriptor{}, nil, &Failure{
				Kind:    FailureContainmentCycle,
				Message: fmt.Sprintf("containment chain exceeds max depth %d", d.maxDepth),
			}
		}
		visited[current] = struct{}{}

		candidates, err := comp.Available(current.TypeName())
		if err != nil {
			return catalog.Descriptor{}, nil, &Failure{
				Kind:    FailureNoMatchingCommand,
				Message: fmt.Sprintf("context type %s not declared by the workflow", current.TypeName()),
				Cause:   err,
			}
		}

		if len(candidates) > 0 {
			sawCandidates = true
			res.Stage = StageCandidates

			ranking, err := d.classifier.Rank(ctx, utterance, candidates, history)
			if err != nil {
				if ctx.Err() != nil {
					return catalog.Descriptor{}, nil, &Failure{Kind: FailureCancelled, Message: "dispatch cancelled", Cause: ctx.Err()}
				}
				return catalog.Descriptor{}, nil, &Failure{Kind: FailureIntentNotUnderstood, Message: "intent classifier failed", Cause: err}
			}

			switch ranking.Decision {
			case intent.DecisionMatched:
				if len(ranking.Matches) == 0 {
					return catalog.Descriptor{}, nil, &Failure{
						Kind:    FailureIntentNotUnderstood,
						Message: "classifier reported a match without naming a candidate",
					}
				}
				name := ranking.Matches[0].Command
				for _, c := range candidates {
					if c.QualifiedName == name {
						return c, current, nil
					}
				}
				return catalog.Descriptor{}, nil, &Failure{
					Kind:    FailureIntentNotUnderstood,
					Message: fmt.Sprintf("classifier chose %s, which is not a candidate", name),
				}
			case intent.DecisionAmbiguous:
				names := make([]string, 0, len(ranking.Matches))
				for _, m := range ranking.Matches {
					names = append(names, m.Command)
				}
				return catalog.Descriptor{}, nil, &Failure{
					Kind:       FailureAmbiguousIntent,
					Message:    "several commands match; disambiguation needed",
					Candidates: names,
				}
			case intent.DecisionNone:
				// Walk up and retry against the parent's command set.
			}
		}

		current = d.navigator.Parent(current)
	}

	if sawCandidates {
		return catalog.Descriptor{}, nil, &Failure{
			Kind:    FailureIntentNotUnderstood,
			Message: "no command matched the utterance at any containment level",
		}
	}
	return catalog.Descriptor{}, nil, &Failure{
		Kind:    FailureNoMatchingCommand,
		Message: "no commands visible from the current context or its ancestors",
	}
}

// extractParams delegates to the external extractor and enforces that every
// required schema field was filled, reporting the full missing set at once.
func (d *Dispatcher) extractParams(ctx context.Context, cmd catalog.Descriptor, instance catalog.Instance, utterance string) (map[string]any, *Failure) {
	extraction, err := d.extractor.Extract(ctx, utterance, cmd.Schema, instance)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Failure{Kind: FailureCancelled, Message: "dispatch cancelled", Cause: ctx.Err()}
		}
		return nil, &Failure{Kind: FailureMissingParameters, Message: "parameter extraction failed", Cause: err}
	}

	// Keep only fields the schema declares.
	values := make(map[string]any, len(extraction.Values))
	for name := range cmd.Schema {
		if v, ok := extraction.Values[name]; ok {
			values[name] = v
		}
	}

	missing := make(map[string]struct{})
	for _, name := range extraction.Missing {
		missing[name] = struct{}{}
	}
	for _, name := range cmd.Schema.RequiredFields() {
		if _, ok := values[name]; !ok {
			missing[name] = struct{}{}
		}
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, &Failure{
			Kind:    FailureMissingParameters,
			Message: fmt.Sprintf("required parameters missing for %s", cmd.QualifiedName),
			Missing: names,
		}
	}
	return values, nil
}

// validateParams runs declarative schema checks plus the optional external
// validator, aggregating every violation into one failure.
func (d *Dispatcher) validateParams(ctx context.Context, cmd catalog.Descriptor, instance catalog.Instance, values map[string]any) *Failure {
	violations := intent.ValidateParams(cmd.Schema, values)

	if d.validator != nil {
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			corrected, violation, err := d.validator.Check(ctx, name, values[name], instance)
			if err != nil {
				if ctx.Err() != nil {
					return &Failure{Kind: FailureCancelled, Message: "dispatch cancelled", Cause: ctx.Err()}
				}
				return &Failure{Kind: FailureInvalidParameters, Message: fmt.Sprintf("validator failed on %s", name), Cause: err}
			}
			if violation != nil {
				violations = append(violations, *violation)
				continue
			}
			values[name] = corrected
		}
	}

	if len(violations) > 0 {
		return &Failure{
			Kind:       FailureInvalidParameters,
			Message:    fmt.Sprintf("invalid parameters for %s", cmd.QualifiedName),
			Violations: violations,
		}
	}
	return nil
}

// execute invokes the command handler. Handler failures propagate wrapped,
// never silently recovered, so operators see real defects. Once execution
// begins the handler runs to completion: caller cancellation is stripped from
// the context so a half-applied side effect cannot be abandoned mid-flight.
func (d *Dispatcher) execute(ctx context.Context, comp *workflow.Composition, cmd catalog.Descriptor, instance catalog.Instance, values map[string]any) (*catalog.Outcome, *Failure) {
	handler, err := comp.Handlers.Lookup(cmd.Handler)
	if err != nil {
		return nil, &Failure{Kind: FailureHandlerError, Message: fmt.Sprintf("command %s", cmd.QualifiedName), Cause: err}
	}

	outcome, err := handler.Invoke(context.WithoutCancel(ctx), instance, values)
	if err != nil {
		if errors.Is(err, ErrAtRoot) {
			return nil, &Failure{Kind: FailureAtRoot, Message: "current context has no parent", Cause: err}
		}
		return nil, &Failure{
			Kind:    FailureHandlerError,
			Message: fmt.Sprintf("command %s handler failed", cmd.QualifiedName),
			Cause:   err,
		}
	}
	return outcome, nil
}

// cancelled checks for caller cancellation between pipeline states. Once a
// handler has begun executing it is not interrupted.
func cancelled(ctx context.Context, res *Result) bool {
	if err := ctx.Err(); err != nil {
		res.Failure = &Failure{Kind: FailureCancelled, Message: "dispatch cancelled", Cause: err}
		return true
	}
	return false
}

func (d *Dispatcher) registerBuiltins(table *catalog.HandlerTable) {
	table.RegisterFunc(workflow.HandlerNavigateToParent, func(ctx context.Context, instance catalog.Instance, params map[string]any) (*catalog.Outcome, error) {
		parent := d.navigator.Parent(instance)
		if parent == nil {
			return nil, ErrAtRoot
		}
		return &catalog.Outcome{
			Output:     map[string]any{"context_type": parent.TypeName()},
			NewContext: parent,
		}, nil
	})

	table.RegisterFunc(workflow.HandlerResetContext, func(ctx context.Context, instance catalog.Instance, params map[string]any) (*catalog.Outcome, error) {
		if d.root == nil {
			return nil, errNoRoot
		}
		root := d.root()
		if root == nil {
			return nil, errNoRoot
		}
		return &catalog.Outcome{
			Output:     map[string]any{"context_type": root.TypeName()},
			NewContext: root,
		}, nil
	})

	table.RegisterFunc(workflow.HandlerCurrentContext, func(ctx context.Context, instance catalog.Instance, params map[string]any) (*catalog.Outcome, error) {
		available, err := d.Available(instance)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(available))
		for _, c := range available {
			names = append(names, c.QualifiedName)
		}
		return &catalog.Outcome{
			Output: map[string]any{
				"context_type":       instance.TypeName(),
				"available_commands": names,
			},
		}, nil
	})
}
