package services

import "errors"

// Every error returned by the services wraps exactly one of these kinds. The text after the
// kind is safe to show to the user, except for ErrPersistence.
var (
	ErrValidation         = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrAuth               = errors.New("authentication failed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrNoSuchHolding      = errors.New("no such holding")
	ErrQuoteUnavailable   = errors.New("quote unavailable")
	ErrPersistence        = errors.New("persistence failure")
)

// kindError pairs a kind with a user facing message while keeping the cause reachable.
type kindError struct {
	kind    error
	message string
	cause   error
}

func (e *kindError) Error() string {
	if e.message == "" {
		return e.kind.Error()
	}
	return e.message
}

func (e *kindError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func newError(kind error, message string) error {
	return &kindError{kind: kind, message: message}
}

func wrapError(kind error, message string, cause error) error {
	return &kindError{kind: kind, message: message, cause: cause}
}

// persistence marks an unexpected store failure.
func persistence(cause error) error {
	return wrapError(ErrPersistence, "", cause)
}

// Message returns the user facing text of a service error.
func Message(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.Error()
	}
	return err.Error()
}
