package api

import (
	"errors"
	"fmt"
)

// Kind classifies a remote-call failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindUpstream   Kind = "upstream"
	KindNetwork    Kind = "network"
)

// Sentinels for errors.Is; every *Error matches exactly one of them.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream error")
	ErrNetwork    = errors.New("network error")
)

// Error is returned by every Client method.
type Error struct {
	Kind    Kind
	Op      string // e.g. "getTopic"
	Status  int    // HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUpstream:
		return e.Kind == KindUpstream
	case ErrNetwork:
		return e.Kind == KindNetwork
	}
	return false
}

// KindOf extracts the Kind of err, or "" when err did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func validationError(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}
