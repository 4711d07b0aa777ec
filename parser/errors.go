package parser

import "fmt"

// ParseError represents a syntax error at a specific source position,
// grounded on go-calcmark's parser.ParseError.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Line, e.Column)
}

func newParseError(message string, line, column int) *ParseError {
	return &ParseError{Message: message, Line: line, Column: column}
}

// SecurityError reports a hard resource-limit violation: too many tokens,
// or expression nesting too deep. Grounded on go-calcmark's
// spec/parser/limits.go SecurityError, which protects the parser against
// pathological or adversarial input.
type SecurityError struct {
	Message string
	Limit   string
	Actual  int
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("%s (limit %s, actual %d)", e.Message, e.Limit, e.Actual)
}
