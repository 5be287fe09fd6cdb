package engine

import (
	"fmt"
	"strings"

	"github.com/iambrandonn/converse/internal/catalog"
	"github.com/iambrandonn/converse/internal/intent"
)

// Stage tracks how far a dispatch progressed through the pipeline. Terminal
// results carry the stage they reached, which makes failures explainable.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageCandidates Stage = "candidates_gathered"
	StageRanked     Stage = "intent_ranked"
	StageExtracted  Stage = "params_extracted"
	StageValidated  Stage = "validated"
	StageExecuted   Stage = "executed"
)

// FailureKind classifies a dispatch failure for the caller. Failures are
// return values, never panics; a hosting session loop can always continue.
type FailureKind string

const (
	FailureNoMatchingCommand   FailureKind = "no_matching_command"
	FailureAmbiguousIntent     FailureKind = "ambiguous_intent"
	FailureIntentNotUnderstood FailureKind = "intent_not_understood"
	FailureMissingParameters   FailureKind = "missing_parameters"
	FailureInvalidParameters   FailureKind = "invalid_parameters"
	FailureAtRoot              FailureKind = "at_root"
	FailureContainmentCycle    FailureKind = "containment_cycle"
	FailureHandlerError        FailureKind = "handler_error"
	FailureCancelled           FailureKind = "cancelled"
)

// Failure describes why a dispatch stopped. Candidates accompanies ambiguous
// intents; Missing and Violations carry the complete offending field sets so
// one caller round-trip can fix everything.
type Failure struct {
	Kind       FailureKind        `json:"kind"`
	Message    string             `json:"message"`
	Candidates []string           `json:"candidates,omitempty"`
	Missing    []string           `json:"missing,omitempty"`
	Violations []intent.Violation `json:"violations,omitempty"`
	Cause      error              `json:"-"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", f.Kind, f.Message)
	if len(f.Candidates) > 0 {
		fmt.Fprintf(&b, " (candidates: %s)", strings.Join(f.Candidates, ", "))
	}
	if f.Cause != nil {
		fmt.Fprintf(&b, ": %v", f.Cause)
	}
	return b.String()
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (f *Failure) Unwrap() error {
	return f.Cause
}

// Result is the terminal value of one dispatch: either an executed command
// (possibly with a context transition) or a structured failure. The engine
// never persists results; the caller decides what to log or store.
type Result struct {
	DispatchID string              `json:"dispatch_id"`
	Utterance  string              `json:"utterance"`
	Stage      Stage               `json:"stage"`
	Command    *catalog.Descriptor `json:"command,omitempty"`
	Params     map[string]any      `json:"params,omitempty"`
	Output     map[string]any      `json:"output,omitempty"`
	NewContext catalog.Instance    `json:"-"`
	Failure    *Failure            `json:"failure,omitempty"`
}

// Failed reports whether the dispatch ended in a failure.
func (r Result) Failed() bool {
	return r.Failure != nil
}

// CommandName returns the chosen command's qualified name, if any.
func (r Result) CommandName() string {
	if r.Command == nil {
		return ""
	}
	return r.Command.QualifiedName
}
