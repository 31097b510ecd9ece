package models

import (
	"errors"
	"fmt"
)

// ErrorKind separates "fix your input" from "try again later".
type ErrorKind string

const (
	KindInvalid     ErrorKind = "invalid"
	KindNotFound    ErrorKind = "not_found"
	KindProvider    ErrorKind = "provider"
	KindUnavailable ErrorKind = "unavailable"
)

// Error is the domain error. Field names the offending input for caller
// errors; Op names what was being computed or resolved otherwise.
type Error struct {
	Kind    ErrorKind
	Field   string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidInput is a caller error about one field.
func InvalidInput(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalid, Field: field, Message: fmt.Sprintf(format, args...)}
}

// LocationNotFound reports a place name the geocoder could not resolve.
func LocationNotFound(place string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Field:   "city",
		Message: fmt.Sprintf("location %q not found", place),
	}
}

// ProviderFailure wraps an error raised while computing op.
func ProviderFailure(op string, err error) *Error {
	return &Error{Kind: KindProvider, Op: op, Message: "provider failed", Err: err}
}

// ServiceUnavailable reports an external service that exhausted its retries.
func ServiceUnavailable(service string, err error) *Error {
	return &Error{
		Kind:    KindUnavailable,
		Op:      service,
		Message: "location service unavailable",
		Err:     err,
	}
}

// PrefixField qualifies the field of the first *Error in err's chain,
// e.g. "person2.city". Errors without a field are returned unchanged.
func PrefixField(prefix string, err error) error {
	var e *Error
	if prefix == "" || !errors.As(err, &e) || e.Field == "" {
		return err
	}
	cp := *e
	cp.Field = prefix + "." + e.Field
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsCallerError reports whether err was caused by bad input.
func IsCallerError(err error) bool {
	k := KindOf(err)
	return k == KindInvalid || k == KindNotFound
}
