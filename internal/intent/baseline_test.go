package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iambrandonn/converse/internal/catalog"
)

func candidates() []catalog.Descriptor {
	return []catalog.Descriptor{
		{
			QualifiedName: "orders.cancel",
			Examples:      []string{"cancel my order", "cancel the order"},
		},
		{
			QualifiedName: "orders.ship",
			Examples:      []string{"ship my order", "send the order out"},
		},
		{
			QualifiedName: "store.list_orders",
			Examples:      []string{"show my orders", "list all orders"},
		},
	}
}

func TestBaselineExactExampleMatches(t *testing.T) {
	c := NewBaselineClassifier()

	ranking, err := c.Rank(context.Background(), "cancel my order", candidates(), nil)
	require.NoError(t, err)

	require.Equal(t, DecisionMatched, ranking.Decision)
	require.Len(t, ranking.Matches, 1)
	assert.Equal(t, "orders.cancel", ranking.Matches[0].Command)
	assert.Equal(t, 1.0, ranking.Matches[0].Score)
}

func TestBaselineFuzzyMatch(t *testing.T) {
	c := NewBaselineClassifier()

	ranking, err := c.Rank(context.Background(), "cancel my ordr", candidates(), nil)
	require.NoError(t, err)

	require.Equal(t, DecisionMatched, ranking.Decision)
	assert.Equal(t, "orders.cancel", ranking.Matches[0].Command)
	assert.Less(t, ranking.Matches[0].Score, 1.0)
}

func TestBaselineNoneBelowThreshold(t *testing.T) {
	c := NewBaselineClassifier()

	ranking, err := c.Rank(context.Background(), "qwertyuiop zxcvbnm", candidates(), nil)
	require.NoError(t, err)
	assert.Equal(t, DecisionNone, ranking.Decision)
	assert.Empty(t, ranking.Matches)
}

func TestBaselineNoneForEmptyInputs(t *testing.T) {
	c := NewBaselineClassifier()

	ranking, err := c.Rank(context.Background(), "   ", candidates(), nil)
	require.NoError(t, err)
	assert.Equal(t, DecisionNone, ranking.Decision)

	ranking, err = c.Rank(context.Background(), "cancel my order", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DecisionNone, ranking.Decision)
}

func TestBaselineAmbiguousWithinMargin(t *testing.T) {
	c := NewBaselineClassifier()

	tied := []catalog.Descriptor{
		{QualifiedName: "orders.cancel", Examples: []string{"cancel the order"}},
		{QualifiedName: "orders.cancel_all", Examples: []string{"cancel the order"}},
	}

	ranking, err := c.Rank(context.Background(), "cancel the order", tied, nil)
	require.NoError(t, err)

	require.Equal(t, DecisionAmbiguous, ranking.Decision)
	require.Len(t, ranking.Matches, 2)
	assert.Equal(t, "orders.cancel", ranking.Matches[0].Command, "ties break by name")
}

func TestBaselineNormalizesCaseAndSpace(t *testing.T) {
	c := NewBaselineClassifier()

	ranking, err := c.Rank(context.Background(), "  CANCEL   My ORDER ", candidates(), nil)
	require.NoError(t, err)
	require.Equal(t, DecisionMatched, ranking.Decision)
	assert.Equal(t, 1.0, ranking.Matches[0].Score)
}

func TestBaselineHonorsCancellation(t *testing.T) {
	c := NewBaselineClassifier()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Rank(ctx, "cancel my order", candidates(), nil)
	require.ErrorIs(t, err, context.Canceled)
}
