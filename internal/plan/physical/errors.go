package physical

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes physical planning errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedPlan indicates a logical operator no pipe implements.
	ErrCodeUnsupportedPlan ErrorCode = "UNSUPPORTED_PLAN"

	// ErrCodeMissingParameter indicates a referenced parameter that the
	// caller did not supply.
	ErrCodeMissingParameter ErrorCode = "MISSING_PARAMETER"

	// ErrCodeParameterType indicates a supplied parameter whose kind cannot
	// serve where it is used.
	ErrCodeParameterType ErrorCode = "PARAMETER_TYPE"

	// ErrCodeInvalidCall indicates a call of an unknown function or with the
	// wrong number of arguments. Err holds the *procedure.Error.
	ErrCodeInvalidCall ErrorCode = "INVALID_CALL"
)

// UnsupportedPlanError reports a logical operator with no physical
// counterpart.
type UnsupportedPlanError struct {
	// Operator is the rendering of the offending operator, or "<nil>".
	Operator string

	// Reason explains what is missing.
	Reason string
}

// Error implements the error interface.
func (e *UnsupportedPlanError) Error() string {
	return fmt.Sprintf("physical plan [%s]: %s: %s", ErrCodeUnsupportedPlan, e.Operator, e.Reason)
}

// PlanError reports an expression the planning context rejects.
type PlanError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("physical plan [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("physical plan [%s]: %s", e.Code, e.Message)
}

func (e *PlanError) Unwrap() error { return e.Err }

// IsUnsupportedPlan returns true if err is an *UnsupportedPlanError.
func IsUnsupportedPlan(err error) bool {
	var upe *UnsupportedPlanError
	return errors.As(err, &upe)
}

// IsMissingParameter returns true if err reports an unsupplied parameter.
func IsMissingParameter(err error) bool {
	var pe *PlanError
	return errors.As(err, &pe) && pe.Code == ErrCodeMissingParameter
}
