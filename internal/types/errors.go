package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a calculation produced no result.
type ErrorKind int

const (
	InsufficientData ErrorKind = iota + 1
	InvalidParameter
	ComputationFailure
)

func (k ErrorKind) String() string {
	switch k {
	case InsufficientData:
		return "insufficient_data"
	case InvalidParameter:
		return "invalid_parameter"
	case ComputationFailure:
		return "computation_failure"
	default:
		return "unknown"
	}
}

// Error is returned by every calculator. Error() yields the human readable
// message only, so it can be shown to a user as is.
type Error struct {
	Kind   ErrorKind
	Method string
	Msg    string
	// Hint suggests what input would make the calculation possible.
	Hint string
}

func (e *Error) Error() string { return e.Msg }

// Is matches the kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Method == "" && t.Kind == e.Kind
}

var (
	ErrInsufficientData   = &Error{Kind: InsufficientData}
	ErrInvalidParameter   = &Error{Kind: InvalidParameter}
	ErrComputationFailure = &Error{Kind: ComputationFailure}
)

func Insufficient(method, msg string) *Error {
	return &Error{Kind: InsufficientData, Method: method, Msg: msg}
}

func Invalid(method, msg string) *Error {
	return &Error{Kind: InvalidParameter, Method: method, Msg: msg}
}

func Failure(method, msg string) *Error {
	return &Error{Kind: ComputationFailure, Method: method, Msg: msg}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Recover must be deferred directly. It turns a panic into a
// ComputationFailure assigned to *err.
func Recover(method string, err *error) {
	if r := recover(); r != nil {
		*err = Failure(method, fmt.Sprint(r))
	}
}
