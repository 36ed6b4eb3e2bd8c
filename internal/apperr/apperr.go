// Package apperr defines the recoverable failures returned by the chore and
// reward engines. Callers switch on Kind instead of parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindNone is returned by KindOf for errors that are not *Error.
	KindNone Kind = iota
	KindNotFound
	KindValidation
	KindInsufficientFunds
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return newf(KindNotFound, format, args...)
}

func Validationf(format string, args ...any) error {
	return newf(KindValidation, format, args...)
}

func InsufficientFundsf(format string, args ...any) error {
	return newf(KindInsufficientFunds, format, args...)
}

func Conflictf(format string, args ...any) error {
	return newf(KindConflict, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
