package procedure

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes procedure call failures.
type ErrorCode string

const (
	// ErrCodeWrongNumberOfArguments indicates a call whose argument count
	// differs from the declared signature.
	ErrCodeWrongNumberOfArguments ErrorCode = "WRONG_NUMBER_OF_ARGUMENTS"

	// ErrCodeWrongArgumentType indicates an argument whose kind does not
	// conform to the declared parameter kind.
	ErrCodeWrongArgumentType ErrorCode = "WRONG_ARGUMENT_TYPE"

	// ErrCodeUnknownProcedure indicates a call to a name with no registration.
	ErrCodeUnknownProcedure ErrorCode = "UNKNOWN_PROCEDURE"

	// ErrCodeDuplicateProcedure indicates a second registration of a name.
	ErrCodeDuplicateProcedure ErrorCode = "DUPLICATE_PROCEDURE"
)

// Error is a procedure call or registration failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Procedure is the called name.
	Procedure string

	// Param names the offending parameter for type errors.
	Param string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsArityError returns true if err is a wrong-number-of-arguments error.
// Uses errors.As to handle wrapped errors.
func IsArityError(err error) bool {
	return hasCode(err, ErrCodeWrongNumberOfArguments)
}

// IsArgumentTypeError returns true if err is a wrong-argument-type error.
func IsArgumentTypeError(err error) bool {
	return hasCode(err, ErrCodeWrongArgumentType)
}

// IsUnknownProcedure returns true if err reports an unregistered name.
func IsUnknownProcedure(err error) bool {
	return hasCode(err, ErrCodeUnknownProcedure)
}

func hasCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

func newArityError(sig Signature, got int) *Error {
	return &Error{
		Code:      ErrCodeWrongNumberOfArguments,
		Procedure: sig.Name,
		Message:   fmt.Sprintf("%s expects %d argument(s), got %d", sig.CallString(), len(sig.Inputs), got),
	}
}

func newTypeError(sig Signature, p Param, got any) *Error {
	return &Error{
		Code:      ErrCodeWrongArgumentType,
		Procedure: sig.Name,
		Param:     p.Name,
		Message:   fmt.Sprintf("%s: parameter %s expects %s, got %s", sig.Name, p.Name, p.Type, got),
	}
}

func newUnknownError(name string) *Error {
	return &Error{
		Code:      ErrCodeUnknownProcedure,
		Procedure: name,
		Message:   fmt.Sprintf("no procedure or function named %q", name),
	}
}
