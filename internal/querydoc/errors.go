package querydoc

import (
	"errors"
	"fmt"
)

// ParseError reports a syntax error at a position in the query source.
type ParseError struct {
	// Source names where the query came from: a file path, or empty for
	// inline text.
	Source string

	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Source, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func errorAt(pos Pos, format string, args ...any) *ParseError {
	return &ParseError{Line: pos.Line, Column: pos.Column, Message: fmt.Sprintf(format, args...)}
}
