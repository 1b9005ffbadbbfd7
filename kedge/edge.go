// Package kedge holds the edge representations shared by readers and sinks:
// the untyped RawEdge parsed from one input line and the typed Edge handed to
// the host pipeline.
package kedge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedLine is wrapped by every ParseError.
var ErrMalformedLine = errors.New("kedge: malformed edge line")

// RawEdge is one parsed input line. It is a plain value: two parses of the
// same line with the same Parser compare equal.
type RawEdge struct {
	SourceID string
	TargetID string
	// RawValue is the third field, or the parser's default when the line has
	// only two fields.
	RawValue string
}

// Edge is the typed record produced for the host pipeline.
type Edge[V any] struct {
	Source string
	Target string
	Value  V
}

// Reverse returns the edge with source and target swapped and the same value.
func (e Edge[V]) Reverse() Edge[V] {
	return Edge[V]{Source: e.Target, Target: e.Source, Value: e.Value}
}

func (e Edge[V]) String() string {
	return fmt.Sprintf("(%s,%s,%v)", e.Source, e.Target, e.Value)
}

// ParseError reports a line that does not carry both a source and a target.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %s: %q", ErrMalformedLine, e.Reason, e.Line)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedLine
}

// Parser tokenizes lines of the form source<d>target[<d>value].
type Parser struct {
	delimiter    string
	defaultValue string
}

// NewParser returns a Parser splitting on delimiter and injecting
// defaultValue when the value field is missing. The delimiter must not be
// empty.
func NewParser(delimiter, defaultValue string) Parser {
	return Parser{delimiter: delimiter, defaultValue: defaultValue}
}

// Delimiter returns the field separator.
func (p Parser) Delimiter() string {
	return p.delimiter
}

// DefaultValue returns the value injected for two-field lines.
func (p Parser) DefaultValue() string {
	return p.defaultValue
}

// Parse splits line into at most three fields. Anything after the second
// delimiter, further delimiters included, is the raw value.
func (p Parser) Parse(line string) (RawEdge, error) {
	fields := strings.SplitN(line, p.delimiter, 3)
	if len(fields) < 2 {
		return RawEdge{}, &ParseError{Line: line, Reason: "missing target field"}
	}
	if fields[0] == "" {
		return RawEdge{}, &ParseError{Line: line, Reason: "empty source field"}
	}
	if fields[1] == "" {
		return RawEdge{}, &ParseError{Line: line, Reason: "empty target field"}
	}

	edge := RawEdge{
		SourceID: fields[0],
		TargetID: fields[1],
		RawValue: p.defaultValue,
	}
	if len(fields) == 3 {
		edge.RawValue = fields[2]
	}
	return edge, nil
}
