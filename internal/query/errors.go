package query

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Input limits guarding against resource exhaustion.
const (
	// MaxQueryLength is the maximum accepted query text length (1MB).
	MaxQueryLength = 1024 * 1024

	// MaxExpressionDepth is the maximum nesting depth of expressions and subqueries.
	MaxExpressionDepth = 100
)

var (
	// ErrQueryTooLong is wrapped when input exceeds MaxQueryLength.
	ErrQueryTooLong = errors.New("query too long")

	// ErrExpressionTooDeep is wrapped when nesting exceeds MaxExpressionDepth.
	ErrExpressionTooDeep = errors.New("expression nesting too deep")
)

// ParseError reports where parsing stopped. Remainder is the unconsumed
// input starting at the offending token.
type ParseError struct {
	Message   string
	Offset    int
	Line      int
	Column    int
	Remainder string
	Err       error
}

// remainderPreview bounds how much of the remainder is quoted in messages.
const remainderPreview = 40

func (e *ParseError) Error() string {
	near := e.Remainder
	if utf8.RuneCountInString(near) > remainderPreview {
		near = string([]rune(near)[:remainderPreview]) + "..."
	}
	if near == "" {
		return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error at %d:%d: %s near %q", e.Line, e.Column, e.Message, near)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// AsParseError extracts the *ParseError from err.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
