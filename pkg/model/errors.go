package model

import "errors"

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotReady     ErrorKind = "not_ready"
	KindPrecondition ErrorKind = "precondition"
	KindNetwork      ErrorKind = "network"
	KindSchema       ErrorKind = "schema"
	KindRead         ErrorKind = "read"
)

// Error is the boundary error every component converts its failures into.
// Message is safe to show to a user; Err keeps the original cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotReady     = &Error{Kind: KindNotReady}
	ErrPrecondition = &Error{Kind: KindPrecondition}
	ErrNetwork      = &Error{Kind: KindNetwork}
	ErrSchema       = &Error{Kind: KindSchema}
	ErrRead         = &Error{Kind: KindRead}
)

func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any error of the same kind against the bare sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage returns the user-facing text of err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred."
}
