package contract

import (
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// ErrorKind classifies failures across the engine, aggregators and outer surfaces.
type ErrorKind string

// Error kinds.
const (
	InvalidInputKind       ErrorKind = "invalid_input"
	PartialDataKind        ErrorKind = "partial_data"
	ComputationAnomalyKind ErrorKind = "computation_anomaly"
)

// Error wraps an errbuilder error with its kind.
type Error struct {
	*errbuilder.ErrBuilder
	Kind ErrorKind
}

// Error renders the kind and message, followed by the cause when present.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.ErrBuilder.Msg)
	if cause := e.ErrBuilder.Unwrap(); cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

var _ error = &Error{} // Compile-time check

func newError(kind ErrorKind, builder *errbuilder.ErrBuilder, cause error) *Error {
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return &Error{ErrBuilder: builder, Kind: kind}
}

// NewInvalidInput reports malformed caller input. It always fails fast.
func NewInvalidInput(msg string, cause error) *Error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg)
	return newError(InvalidInputKind, builder, cause)
}

// NewInvalidInputf is NewInvalidInput with formatting and no cause.
func NewInvalidInputf(format string, args ...any) *Error {
	return NewInvalidInput(fmt.Sprintf(format, args...), nil)
}

// NewComputationAnomaly reports a non-finite intermediate value.
func NewComputationAnomaly(msg string) *Error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg)
	return newError(ComputationAnomalyKind, builder, nil)
}

// NewPartialData consolidates per-unit failures into one warning error.
// Each entry of failures is keyed by the unit that failed, such as a day or a user.
func NewPartialData(msg string, failures map[string]error) *Error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(msg)
	if len(failures) > 0 {
		errMap := errbuilder.ErrorMap{}
		for unit, err := range failures {
			errMap.Set(unit, err)
		}
		builder = builder.WithDetails(errbuilder.NewErrDetails(errMap))
	}
	return newError(PartialDataKind, builder, nil)
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsInvalidInput reports whether err is an InvalidInput error.
func IsInvalidInput(err error) bool {
	return KindOf(err) == InvalidInputKind
}

// IsPartialData reports whether err is a PartialData error.
func IsPartialData(err error) bool {
	return KindOf(err) == PartialDataKind
}

// IsComputationAnomaly reports whether err is a ComputationAnomaly error.
func IsComputationAnomaly(err error) bool {
	return KindOf(err) == ComputationAnomalyKind
}
