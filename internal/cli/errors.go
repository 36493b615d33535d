package cli

import (
	"errors"

	"debatepad/internal/api"
	"debatepad/internal/mutate"
	"debatepad/internal/store"
)

type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

// reportedError wraps an error whose envelope has already been written to stderr.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already printed as an error envelope.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

func kindOf(err error) string {
	var u usageError
	switch {
	case errors.As(err, &u):
		return string(api.KindValidation)
	case errors.Is(err, mutate.ErrBusy):
		return "busy"
	case errors.Is(err, store.ErrNotFound):
		return string(api.KindNotFound)
	case errors.Is(err, store.ErrInvalid):
		return string(api.KindValidation)
	}
	if k := api.KindOf(err); k != "" {
		return string(k)
	}
	return "internal"
}
