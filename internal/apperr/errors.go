// Package apperr defines the error kinds surfaced by the billing engine.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an engine failure so callers can decide how to recover.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not-found"
	KindInUse              Kind = "in-use"
	KindInsufficientStock  Kind = "insufficient-stock"
	KindNumberingConflict  Kind = "numbering-conflict"
	KindNumberingExhausted Kind = "numbering-exhausted"
	KindOverpayment        Kind = "overpayment"
	KindStorage            Kind = "storage"
	KindInvariant          Kind = "invariant"
)

// Messages shared with callers that match on text (UI, CLI output).
const (
	MsgInvalidEmail       = "invalid email"
	MsgRateOutOfRange     = "rate out of range"
	MsgInvalidDueDate     = "invalid due date"
	MsgEmptyInvoice       = "empty invoice"
	MsgInsufficientStock  = "insufficient stock"
	MsgOverpayment        = "overpayment"
	MsgNumberingExhausted = "numbering exhausted"
	MsgInUse              = "in use"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInUse              = &Error{Kind: KindInUse}
	ErrInsufficientStock  = &Error{Kind: KindInsufficientStock}
	ErrNumberingConflict  = &Error{Kind: KindNumberingConflict}
	ErrNumberingExhausted = &Error{Kind: KindNumberingExhausted}
	ErrOverpayment        = &Error{Kind: KindOverpayment}
	ErrStorage            = &Error{Kind: KindStorage}
	ErrInvariant          = &Error{Kind: KindInvariant}
)

// Error is a tagged engine outcome.
type Error struct {
	// Kind is the failure class.
	Kind Kind

	// Op is the engine operation that failed (e.g. "billing.Commit").
	Op string

	// Message is the caller-facing reason.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(string(e.Kind))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels: errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" && t.Message == "" && t.Err == nil {
		return t.Kind == e.Kind
	}
	return t == e
}

// New builds a tagged error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap tags an underlying error. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// NotFound reports a missing entity, e.g. NotFound("catalog.Get", "item", 7).
func NotFound(op, entity string, id any) *Error {
	return New(KindNotFound, op, fmt.Sprintf("%s %v not found", entity, id))
}

func InUse(op, entity string, id any) *Error {
	return New(KindInUse, op, fmt.Sprintf("%s %v %s", entity, id, MsgInUse))
}

// KindOf returns the kind of an engine error, or "" for foreign errors.
func KindOf(err error) Kind {
	var se *StockError
	if errors.As(err, &se) {
		return KindInsufficientStock
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
