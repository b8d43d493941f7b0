package engine

import (
	"errors"
	"fmt"
)

// ErrResultConsumed is returned when the records of an uncached Result are
// read after it was exhausted.
var ErrResultConsumed = errors.New("result records already consumed")

// RowsExceededError is returned when a result produces more rows than the
// engine's row quota allows.
type RowsExceededError struct {
	QueryID string // The query that exceeded the quota
	Rows    int    // Number of rows produced, including the offending one
	Limit   int    // Maximum allowed rows
}

// Error implements the error interface.
func (e *RowsExceededError) Error() string {
	return fmt.Sprintf("query %s exceeded max rows quota: %d rows > %d limit", e.QueryID, e.Rows, e.Limit)
}

// IsRowsExceededError returns true if the error is a RowsExceededError.
// Uses errors.As to handle wrapped errors.
func IsRowsExceededError(err error) bool {
	var re *RowsExceededError
	return errors.As(err, &re)
}
