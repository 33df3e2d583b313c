package order

import (
	"errors"
	"fmt"
)

// Kind classifies a failed order operation for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindPermissionDenied
	KindInvalid
	KindOutOfRange
	KindGateway
	KindOrderInError
	KindInvalidTransition
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalid:
		return "invalid"
	case KindOutOfRange:
		return "out_of_range"
	case KindGateway:
		return "gateway"
	case KindOrderInError:
		return "order_in_error"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is returned by every Manager operation. Detail is safe to show to
// the caller; Err carries the underlying cause, if any.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal if there is none.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindInternal
}

func newError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func internalError(op string, err error) *Error {
	return &Error{Kind: KindInternal, Detail: op, Err: err}
}
