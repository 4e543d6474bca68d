// Package apperr defines the typed failure taxonomy shared by the ledger and
// refund engine. Handlers map each Kind to an HTTP status; services return
// these instead of bare strings so callers can branch without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	// NotFound: missing transaction, item, or barcode.
	NotFound
	// InvalidInput: malformed quantity, empty refund selection, bad cash amount.
	InvalidInput
	// InvalidState: operation not legal for the transaction's current status.
	InvalidState
	// InsufficientPayment: cash tendered below the transaction total.
	InsufficientPayment
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidInput:
		return "invalid_input"
	case InvalidState:
		return "invalid_state"
	case InsufficientPayment:
		return "insufficient_payment"
	default:
		return "internal"
	}
}

// Error carries a Kind plus a user-renderable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from an error chain; unrecognized errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func IsNotFound(err error) bool     { return KindOf(err) == NotFound }
func IsInvalidInput(err error) bool { return KindOf(err) == InvalidInput }
func IsInvalidState(err error) bool { return KindOf(err) == InvalidState }
