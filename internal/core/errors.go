package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks an absent member or channel. It is a steady-state
	// condition, not a failure.
	ErrNotFound = errors.New("not found")
	// ErrMalformed marks unusable external input such as a roster row
	// without a handle.
	ErrMalformed = errors.New("malformed input")
	// ErrRetriesExhausted is returned once a RetryPolicy runs out of attempts.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// TransientError is a failure expected to clear on retry: rate limits,
// server errors, dropped connections.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError aborts the current operation. Retrying will not help.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("fatal: %v", e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsTransient reports whether the outermost classification in err's tree
// is transient. Branches of a multi-%w error are searched in order.
func IsTransient(err error) bool {
	transient, _ := classification(err)
	return transient
}

func classification(err error) (transient, found bool) {
	switch e := err.(type) {
	case nil:
		return false, false
	case *TransientError:
		return true, true
	case *FatalError:
		return false, true
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if transient, found := classification(inner); found {
				return transient, true
			}
		}
		return false, false
	default:
		return classification(errors.Unwrap(err))
	}
}

func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
