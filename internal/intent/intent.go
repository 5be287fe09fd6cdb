// Package intent defines the contracts the dispatch engine consumes from
// external collaborators: intent classification, parameter extraction, and
// field validation. A levenshtein-based baseline classifier ships alongside
// so the router is usable without a trained model.
package intent

import (
	"context"

	"github.com/iambrandonn/converse/internal/catalog"
)

// Decision is the three-way outcome of ranking an utterance against a
// candidate command set.
type Decision string

const (
	// DecisionMatched means exactly one candidate cleared the classifier's
	// confidence threshold.
	DecisionMatched Decision = "matched"
	// DecisionAmbiguous means several candidates tied above the threshold.
	DecisionAmbiguous Decision = "ambiguous"
	// DecisionNone means no candidate cleared the threshold.
	DecisionNone Decision = "none"
)

// Match pairs a candidate command with the classifier's confidence score.
type Match struct {
	Command string  `json:"command"`
	Score   float64 `json:"score"`
}

// Ranking is a classifier verdict. Matched carries exactly one match;
// Ambiguous carries the tied set, best first; None carries nothing.
type Ranking struct {
	Decision Decision `json:"decision"`
	Matches  []Match  `json:"matches,omitempty"`
}

// Exchange is one prior turn of the conversation, passed through to the
// classifier as history. The router records it but never interprets it.
type Exchange struct {
	Utterance string `json:"utterance"`
	Command   string `json:"command,omitempty"`
	Failure   string `json:"failure,omitempty"`
}

// Classifier ranks candidate commands for an utterance. Implementations own
// their confidence threshold and tie-breaking policy; the engine consumes
// only the three-way outcome.
type Classifier interface {
	Rank(ctx context.Context, utterance string, candidates []catalog.Descriptor, history []Exchange) (Ranking, error)
}

// Extraction is the result of pulling parameter values out of an utterance.
type Extraction struct {
	Values  map[string]any `json:"values"`
	Missing []string       `json:"missing,omitempty"`
}

// Extractor fills a command's input schema from an utterance. Missing lists
// required fields the extractor could not fill.
type Extractor interface {
	Extract(ctx context.Context, utterance string, schema catalog.InputSchema, instance catalog.Instance) (Extraction, error)
}

// Violation describes one failed field check, with optional suggestions the
// caller can surface for a single-round-trip fix.
type Violation struct {
	Field       string   `json:"field"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// FieldValidator is an external per-field check run after the declarative
// schema checks. It may correct the value (returned value replaces the
// extracted one) or report a violation. An error aborts the dispatch.
type FieldValidator interface {
	Check(ctx context.Context, field string, value any, instance catalog.Instance) (any, *Violation, error)
}
