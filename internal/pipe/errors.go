package pipe

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	// ErrCodeUnboundVariable indicates an expression read a variable the
	// record does not carry.
	ErrCodeUnboundVariable ErrorCode = "UNBOUND_VARIABLE"

	// ErrCodeMissingParameter indicates a referenced parameter has no value.
	ErrCodeMissingParameter ErrorCode = "MISSING_PARAMETER"

	// ErrCodeTypeMismatch indicates an operator got operands it is not
	// defined on.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeInvalidArgument indicates a bad SKIP/LIMIT count or a similar
	// out-of-domain value.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeArithmetic indicates integer division or modulo by zero.
	ErrCodeArithmetic ErrorCode = "ARITHMETIC"
)

// RuntimeError represents an error detected while executing a pipe.
type RuntimeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Expr is the expression being evaluated, if any.
	Expr string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("%s: %s (in %s)", e.Code, e.Message, e.Expr)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// IsTypeMismatch returns true if err is a type mismatch error.
func IsTypeMismatch(err error) bool { return hasCode(err, ErrCodeTypeMismatch) }

// IsMissingParameter returns true if err reports a parameter without value.
func IsMissingParameter(err error) bool { return hasCode(err, ErrCodeMissingParameter) }

// IsUnboundVariable returns true if err reports an unbound variable.
func IsUnboundVariable(err error) bool { return hasCode(err, ErrCodeUnboundVariable) }

func hasCode(err error, code ErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func typeError(expr string, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: ErrCodeTypeMismatch, Message: fmt.Sprintf(format, args...), Expr: expr}
}
