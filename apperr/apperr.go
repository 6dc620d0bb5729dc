package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures so the HTTP layer can pick a status code.
type Kind string

const (
	KindInternal           Kind = "internal_error"
	KindNotFound           Kind = "not_found"
	KindInsufficientStock  Kind = "insufficient_stock"
	KindDuplicateReference Kind = "duplicate_reference"
	KindValidation         Kind = "validation_error"
	KindInvalidTransition  Kind = "invalid_transition"
	KindTransactionFailure Kind = "transaction_failure"
)

// Error carries a Kind together with the operation that failed.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match on kind using the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInsufficientStock  = &Error{Kind: KindInsufficientStock}
	ErrDuplicateReference = &Error{Kind: KindDuplicateReference}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition}
	ErrTransactionFailure = &Error{Kind: KindTransactionFailure}
)

func NotFound(op, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Duplicate(op, field, value string, err error) *Error {
	return &Error{
		Kind:    KindDuplicateReference,
		Op:      op,
		Message: fmt.Sprintf("%s %q already exists", field, value),
		Details: map[string]any{"field": field, "value": value},
		Err:     err,
	}
}

// InsufficientStock reports a stock shortfall for a single product.
func InsufficientStock(op string, productID int64, available, required int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Op:      op,
		Message: fmt.Sprintf("product %d has %d in stock, %d required", productID, available, required),
		Details: map[string]any{
			"product_id": productID,
			"available":  available,
			"required":   required,
		},
	}
}

func InvalidTransition(op, from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Op:      op,
		Message: fmt.Sprintf("cannot move order from %q to %q", from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

func TransactionFailure(op string, err error) *Error {
	return &Error{Kind: KindTransactionFailure, Op: op, Message: "transaction rolled back", Err: err}
}

func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: "internal error", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As is a shorthand for errors.As into *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
