package core

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes domain errors.
type ErrorKind string

const (
	// ErrTempIDCollision indicates a user-supplied causetid that was never
	// allocated, and so would collide with a future allocation.
	ErrTempIDCollision ErrorKind = "TEMPID_COLLISION"

	// ErrBadTopographAssertion indicates a schema mutation failed validation.
	ErrBadTopographAssertion ErrorKind = "BAD_TOPOGRAPH_ASSERTION"

	// ErrUnknownAttribute indicates a reference to something that is not an attribute.
	ErrUnknownAttribute ErrorKind = "UNKNOWN_ATTRIBUTE"

	ErrTimelinesInvalidRange   ErrorKind = "TIMELINES_INVALID_RANGE"
	ErrTimelinesMixed          ErrorKind = "TIMELINES_MIXED"
	ErrTimelinesMoveToNonEmpty ErrorKind = "TIMELINES_MOVE_TO_NON_EMPTY"

	// ErrStore wraps a failure from the underlying storage engine.
	ErrStore ErrorKind = "STORE_ERROR"

	// ErrEdnParse indicates malformed surface syntax.
	ErrEdnParse ErrorKind = "EDN_PARSE_ERROR"

	// ErrBadValuePair indicates a value whose type does not match its attribute.
	ErrBadValuePair ErrorKind = "BAD_VALUE_PAIR"

	// ErrUnrecognizedSolitonid indicates a keyword with no causetid bound to it.
	ErrUnrecognizedSolitonid ErrorKind = "UNRECOGNIZED_SOLITONID"

	// ErrSchemaConstraintViolation indicates conflicting changes within one
	// transaction, such as two values for a cardinality-one attribute.
	ErrSchemaConstraintViolation ErrorKind = "SCHEMA_CONSTRAINT_VIOLATION"

	ErrNotYetImplemented ErrorKind = "NOT_YET_IMPLEMENTED"
)

// Error is the structured error returned by every core operation.
// Causetid, Attribute and Value carry the offending datom parts when known.
type Error struct {
	Kind    ErrorKind
	Message string

	Causetid  Causetid
	Attribute Causetid
	Value     TypedValue

	Err error
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates an Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// StoreError wraps err as an ErrStore. A nil err stays nil.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: ErrStore, Message: op, Err: err}
}

// WithCausetid returns e with the offending entity recorded.
func (e *Error) WithCausetid(id Causetid) *Error {
	e.Causetid = id
	return e
}

// WithAttribute returns e with the offending attribute recorded.
func (e *Error) WithAttribute(a Causetid) *Error {
	e.Attribute = a
	return e
}

// WithValue returns e with the offending value recorded.
func (e *Error) WithValue(v TypedValue) *Error {
	e.Value = v
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped storage error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) is an *Error of kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
