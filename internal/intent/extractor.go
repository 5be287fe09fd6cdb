package intent

import (
	"context"
	"strconv"
	"strings"

	"github.com/iambrandonn/converse/internal/catalog"
)

// KeyValueExtractor is a deterministic extractor that pulls `field=value`
// tokens out of the utterance and coerces them per the schema. It stands in
// for a trained extraction model the same way the baseline classifier stands
// in for a trained ranker; hosts swap in their own Extractor implementation.
type KeyValueExtractor struct{}

// Extract scans the utterance for schema fields written as name=value.
// Multi-word string values may be quoted: reason="damaged in transit".
func (KeyValueExtractor) Extract(ctx context.Context, utterance string, schema catalog.InputSchema, instance catalog.Instance) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}

	values := make(map[string]any)
	for _, token := range splitTokens(utterance) {
		name, raw, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		field, declared := schema[name]
		if !declared {
			continue
		}
		if v, ok := coerce(field.Type, strings.Trim(raw, `"`)); ok {
			values[name] = v
		}
	}

	var missing []string
	for _, name := range schema.RequiredFields() {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return Extraction{Values: values, Missing: missing}, nil
}

// splitTokens splits on spaces while keeping quoted spans intact.
func splitTokens(s string) []string {
	var tokens []string
	var current strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case r == ' ' && !quoted:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func coerce(t catalog.FieldType, raw string) (any, bool) {
	switch t {
	case catalog.FieldTypeString:
		return raw, true
	case catalog.FieldTypeInt:
		n, err := strconv.Atoi(raw)
		return n, err == nil
	case catalog.FieldTypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil
	case catalog.FieldTypeBool:
		b, err := strconv.ParseBool(raw)
		return b, err == nil
	}
	return nil, false
}
