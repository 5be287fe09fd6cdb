package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iambrandonn/converse/internal/catalog"
)

func floatPtr(f float64) *float64 { return &f }

func TestValidateParamsAggregatesAllViolations(t *testing.T) {
	schema := catalog.InputSchema{
		"reason":   {Type: catalog.FieldTypeString, Required: true, Pattern: `^\w[\w ]*$`},
		"quantity": {Type: catalog.FieldTypeInt, Required: true, Min: floatPtr(1), Max: floatPtr(100)},
	}

	violations := ValidateParams(schema, map[string]any{
		"reason":   "!!!",
		"quantity": 0,
	})

	require.Len(t, violations, 2)
	assert.Equal(t, "quantity", violations[0].Field)
	assert.Equal(t, "reason", violations[1].Field)
}

func TestValidateParamsPassesValidValues(t *testing.T) {
	schema := catalog.InputSchema{
		"reason":   {Type: catalog.FieldTypeString, Pattern: `^\w[\w ]*$`},
		"quantity": {Type: catalog.FieldTypeInt, Min: floatPtr(1)},
		"priority": {Type: catalog.FieldTypeNumber, Max: floatPtr(10)},
		"notify":   {Type: catalog.FieldTypeBool},
	}

	violations := ValidateParams(schema, map[string]any{
		"reason":   "damaged in transit",
		"quantity": 3,
		"priority": 2.5,
		"notify":   true,
	})
	assert.Empty(t, violations)
}

func TestValidateParamsSkipsAbsentFields(t *testing.T) {
	schema := catalog.InputSchema{
		"reason": {Type: catalog.FieldTypeString, Pattern: `^\w+$`},
	}
	assert.Empty(t, ValidateParams(schema, map[string]any{}))
}

func TestValidateParamsTypeChecks(t *testing.T) {
	tests := []struct {
		name  string
		field catalog.Field
		value any
	}{
		{"string gets int", catalog.Field{Type: catalog.FieldTypeString}, 7},
		{"int gets fraction", catalog.Field{Type: catalog.FieldTypeInt}, 1.5},
		{"int gets string", catalog.Field{Type: catalog.FieldTypeInt}, "one"},
		{"number gets bool", catalog.Field{Type: catalog.FieldTypeNumber}, true},
		{"bool gets string", catalog.Field{Type: catalog.FieldTypeBool}, "yes"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			violations := ValidateParams(catalog.InputSchema{"f": tc.field}, map[string]any{"f": tc.value})
			require.Len(t, violations, 1)
			assert.Equal(t, "f", violations[0].Field)
		})
	}
}

func TestValidateParamsIntAcceptsIntegralFloat(t *testing.T) {
	// JSON decoding yields float64 for all numbers.
	schema := catalog.InputSchema{"quantity": {Type: catalog.FieldTypeInt}}
	assert.Empty(t, ValidateParams(schema, map[string]any{"quantity": float64(4)}))
}

func TestValidateParamsEnumSuggestions(t *testing.T) {
	schema := catalog.InputSchema{
		"carrier": {Type: catalog.FieldTypeString, Enum: []string{"ups", "fedex"}},
	}

	violations := ValidateParams(schema, map[string]any{"carrier": "dhl"})
	require.Len(t, violations, 1)
	assert.Equal(t, []string{"ups", "fedex"}, violations[0].Suggestions)
}
