package logical

import (
	"errors"
	"fmt"
)

// ErrorCode classifies planning failures.
type ErrorCode string

const (
	// ErrCodeUnsupportedFeature marks valid syntax the planner cannot
	// express, e.g. an aggregate nested inside an expression.
	ErrCodeUnsupportedFeature ErrorCode = "UNSUPPORTED_FEATURE"

	// ErrCodeInvalidStatement marks statements that fail analysis.
	ErrCodeInvalidStatement ErrorCode = "INVALID_STATEMENT"
)

// PlanError reports a statement that cannot be planned.
type PlanError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *PlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("logical plan [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("logical plan [%s]: %s", e.Code, e.Message)
}

func (e *PlanError) Unwrap() error { return e.Err }

// IsPlanError reports whether err is or wraps a *PlanError.
func IsPlanError(err error) bool {
	var pe *PlanError
	return errors.As(err, &pe)
}

func unsupported(format string, args ...any) *PlanError {
	return &PlanError{Code: ErrCodeUnsupportedFeature, Message: fmt.Sprintf(format, args...)}
}
