// Package diag collects the non-fatal problems found while scanning inputs.
// Scanners append to a List; the caller decides when to print it.
package diag

import (
	"fmt"

	"go.uber.org/zap"
)

// Kind names a class of non-fatal diagnostic.
type Kind string

const (
	Duplicate         Kind = "duplicate"
	NoDeclaration     Kind = "no-declaration"
	NoMonitor         Kind = "no-monitor"
	MultipleMonitors  Kind = "multiple-monitors"
	UndeclaredResult  Kind = "undeclared-result"
	UnterminatedBlock Kind = "unterminated-block"
	MalformedResult   Kind = "malformed-result"
	UnknownProfile    Kind = "unknown-profile"
	LowercaseKeyword  Kind = "lowercase-keyword"
)

// Diagnostic is one reported problem. Source is the file it came from and
// Line its 1-based line number, both optional.
type Diagnostic struct {
	Kind    Kind
	Source  string
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	switch {
	case d.Source != "" && d.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", d.Source, d.Line, d.Kind, d.Message)
	case d.Source != "":
		return fmt.Sprintf("%s: %s: %s", d.Source, d.Kind, d.Message)
	default:
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
}

// List is an ordered collection of diagnostics. The zero value is ready to use.
type List struct {
	items []Diagnostic
}

// Addf appends a diagnostic with a formatted message.
func (l *List) Addf(kind Kind, source string, line int, format string, args ...any) {
	l.items = append(l.items, Diagnostic{
		Kind:    kind,
		Source:  source,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// Merge appends all of other's diagnostics.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}

func (l *List) Len() int { return len(l.items) }

// Items returns a copy of the collected diagnostics in insertion order.
func (l *List) Items() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Count returns how many diagnostics of kind were collected.
func (l *List) Count(kind Kind) int {
	n := 0
	for _, d := range l.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Log writes every diagnostic to logger at warn level.
func (l *List) Log(logger *zap.Logger) {
	for _, d := range l.items {
		fields := []zap.Field{zap.String("kind", string(d.Kind))}
		if d.Source != "" {
			fields = append(fields, zap.String("source", d.Source))
		}
		if d.Line > 0 {
			fields = append(fields, zap.Int("line", d.Line))
		}
		logger.Warn(d.Message, fields...)
	}
}
