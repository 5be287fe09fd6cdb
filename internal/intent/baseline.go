package intent

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/iambrandonn/converse/internal/catalog"
)

const (
	// DefaultThreshold is the minimum similarity score a candidate needs to
	// be considered a match.
	DefaultThreshold = 0.55
	// DefaultMargin is the score window within which runners-up count as
	// tied with the best candidate.
	DefaultMargin = 0.05
)

// BaselineClassifier ranks candidates by normalized edit distance between
// the utterance and each candidate's utterance examples. It is deterministic
// and dependency-free, which makes it both the default classifier for the
// CLI and the test double for the engine. Production deployments swap in a
// trained model behind the same Classifier interface.
type BaselineClassifier struct {
	Threshold float64
	Margin    float64
}

// NewBaselineClassifier creates a classifier with the default threshold and
// tie margin.
func NewBaselineClassifier() *BaselineClassifier {
	return &BaselineClassifier{Threshold: DefaultThreshold, Margin: DefaultMargin}
}

// Rank scores each candidate against the utterance and reduces the scores to
// the three-way outcome. Ties are broken deterministically by command name.
func (c *BaselineClassifier) Rank(ctx context.Context, utterance string, candidates []catalog.Descriptor, history []Exchange) (Ranking, error) {
	if err := ctx.Err(); err != nil {
		return Ranking{}, err
	}

	normalized := normalize(utterance)
	if normalized == "" || len(candidates) == 0 {
		return Ranking{Decision: DecisionNone}, nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, d := range candidates {
		score := c.score(normalized, d)
		if score >= c.Threshold {
			matches = append(matches, Match{Command: d.QualifiedName, Score: score})
		}
	}

	if len(matches) == 0 {
		return Ranking{Decision: DecisionNone}, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Command < matches[j].Command
	})

	best := matches[0].Score
	tied := matches[:1]
	for _, m := range matches[1:] {
		if best-m.Score <= c.Margin {
			tied = append(tied, m)
		}
	}

	if len(tied) > 1 {
		return Ranking{Decision: DecisionAmbiguous, Matches: tied}, nil
	}
	return Ranking{Decision: DecisionMatched, Matches: tied}, nil
}

// score returns the best similarity across the candidate's examples plus its
// qualified name, in [0, 1].
func (c *BaselineClassifier) score(utterance string, d catalog.Descriptor) float64 {
	best := similarity(utterance, normalize(strings.ReplaceAll(d.QualifiedName, "_", " ")))
	for _, example := range d.Examples {
		if s := similarity(utterance, normalize(example)); s > best {
			best = s
		}
	}
	return best
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
