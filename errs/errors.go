package errs

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the category of a domain error.
type Kind string

const (
	// KindInvalidTransition: the request violates a state-machine precondition.
	KindInvalidTransition Kind = "invalid_transition"
	// KindStaleRequest: the pending entry vanished before acceptance could run.
	KindStaleRequest Kind = "stale_request"
	// KindNotFriends: a message was attempted without a friend edge.
	KindNotFriends Kind = "not_friends"
	// KindTargetNotFound: a handle or id did not resolve to a user.
	KindTargetNotFound Kind = "target_not_found"
	// KindPartialWrite: the second half of a two-record sequence failed.
	KindPartialWrite Kind = "partial_write"
	// KindEdgeNotFound: a user record has no edge to the given counterpart.
	KindEdgeNotFound Kind = "edge_not_found"
	// KindValidation: malformed input.
	KindValidation Kind = "validation"
	// KindUnauthorized: missing or bad credentials.
	KindUnauthorized Kind = "unauthorized"
	// KindStorage: the backing store failed.
	KindStorage Kind = "storage"
)

// BaseError carries a kind, a message and an optional wrapped cause.
type BaseError struct {
	Kind      Kind
	Message   string
	Timestamp time.Time
	Err       error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a BaseError of the same kind, so any error of
// a kind matches any other of that kind through errors.Is.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new error of the given kind.
func New(kind Kind, message string, err error) *BaseError {
	return &BaseError{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

func InvalidTransition(message string) *BaseError {
	return New(KindInvalidTransition, message, nil)
}

func StaleRequest(requesterID string) *BaseError {
	return New(KindStaleRequest, fmt.Sprintf("no pending request from %s", requesterID), nil)
}

func NotFriends(userID, otherID string) *BaseError {
	return New(KindNotFriends, fmt.Sprintf("%s is not a friend of %s", otherID, userID), nil)
}

func TargetNotFound(ref string) *BaseError {
	return New(KindTargetNotFound, fmt.Sprintf("user not found: %s", ref), nil)
}

func EdgeNotFound(userID, counterpartID string) *BaseError {
	return New(KindEdgeNotFound, fmt.Sprintf("user %s has no edge to %s", userID, counterpartID), nil)
}

func Validation(message string) *BaseError {
	return New(KindValidation, message, nil)
}

// PartialWriteFailure is reported when step (ii) of a two-record sequence
// failed after step (i) was persisted. The records are left one-sided.
type PartialWriteFailure struct {
	*BaseError
	Operation string
	Applied   string // user whose record was updated
	Missing   string // user whose record was not
}

func NewPartialWriteFailure(operation, applied, missing string, err error) *PartialWriteFailure {
	return &PartialWriteFailure{
		BaseError: New(KindPartialWrite, fmt.Sprintf("%s applied to %s but not to %s", operation, applied, missing), err),
		Operation: operation,
		Applied:   applied,
		Missing:   missing,
	}
}

// ErrKind returns the error's kind. Types embedding *BaseError inherit it.
func (e *BaseError) ErrKind() Kind {
	return e.Kind
}

// KindOf returns the kind of the first kinded error in err's chain, or
// KindStorage for errors that carry no kind.
func KindOf(err error) Kind {
	for err != nil {
		if k, ok := err.(interface{ ErrKind() Kind }); ok {
			return k.ErrKind()
		}
		err = errors.Unwrap(err)
	}
	return KindStorage
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, &BaseError{Kind: kind})
}
