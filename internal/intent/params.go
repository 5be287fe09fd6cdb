package intent

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/iambrandonn/converse/internal/catalog"
)

// ValidateParams runs the declarative checks an input schema carries
// (type, pattern, range, enum) against extracted values. All violations are
// collected so one response can report every offending field. Fields absent
// from the values map are skipped; required-field presence is enforced
// earlier, at extraction.
func ValidateParams(schema catalog.InputSchema, values map[string]any) []Violation {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	var violations []Violation
	for _, name := range names {
		value, present := values[name]
		if !present {
			continue
		}
		if v := checkField(name, schema[name], value); v != nil {
			violations = append(violations, *v)
		}
	}
	return violations
}

func checkField(name string, field catalog.Field, value any) *Violation {
	switch field.Type {
	case catalog.FieldTypeString:
		s, ok := value.(string)
		if !ok {
			return &Violation{Field: name, Message: fmt.Sprintf("expected string, got %T", value)}
		}
		if field.Pattern != "" {
			// Patterns are compile-checked at load time.
			re, err := regexp.Compile(field.Pattern)
			if err != nil {
				return &Violation{Field: name, Message: fmt.Sprintf("invalid pattern %q", field.Pattern)}
			}
			if !re.MatchString(s) {
				return &Violation{Field: name, Message: fmt.Sprintf("value %q does not match pattern %q", s, field.Pattern)}
			}
		}
		if len(field.Enum) > 0 && !contains(field.Enum, s) {
			return &Violation{Field: name, Message: fmt.Sprintf("value %q not one of %v", s, field.Enum), Suggestions: field.Enum}
		}

	case catalog.FieldTypeInt:
		n, ok := asNumber(value)
		if !ok || n != math.Trunc(n) {
			return &Violation{Field: name, Message: fmt.Sprintf("expected integer, got %v", value)}
		}
		return checkRange(name, field, n)

	case catalog.FieldTypeNumber:
		n, ok := asNumber(value)
		if !ok {
			return &Violation{Field: name, Message: fmt.Sprintf("expected number, got %v", value)}
		}
		return checkRange(name, field, n)

	case catalog.FieldTypeBool:
		if _, ok := value.(bool); !ok {
			return &Violation{Field: name, Message: fmt.Sprintf("expected bool, got %T", value)}
		}
	}
	return nil
}

func checkRange(name string, field catalog.Field, n float64) *Violation {
	if field.Min != nil && n < *field.Min {
		return &Violation{Field: name, Message: fmt.Sprintf("value %v below minimum %v", n, *field.Min)}
	}
	if field.Max != nil && n > *field.Max {
		return &Violation{Field: name, Message: fmt.Sprintf("value %v above maximum %v", n, *field.Max)}
	}
	return nil
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
