package session

import (
	"fmt"
	"strings"
)

// Formatter renders transcript records for console display
type Formatter struct{}

// NewFormatter creates a new transcript formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatRecord formats one dispatch record as a single console line.
func (f *Formatter) FormatRecord(rec Record) string {
	context := rec.FromContext
	if context == "" {
		context = "?"
	}

	if rec.FailureKind != "" {
		return fmt.Sprintf("[%s] %q failed: %s (%s)", context, rec.Utterance, rec.FailureKind, rec.Message)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %q -> %s", context, rec.Utterance, rec.Command)
	if rec.Transitioned() {
		fmt.Fprintf(&b, " (now at %s)", rec.ToContext)
	}
	return b.String()
}
