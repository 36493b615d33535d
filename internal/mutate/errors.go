package mutate

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a mutation is already in flight for the open topic.
	ErrBusy = errors.New("another change is still in progress")

	ErrNoTopic = errors.New("no topic loaded")
)

// BatchError reports the suggestion at which a bulk insert stopped.
type BatchError struct {
	Item BatchItem
	Err  error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("insert %s suggestion %d (%q): %v", e.Item.Side, e.Item.Index+1, e.Item.Point, e.Err)
}

func (e BatchError) Unwrap() error { return e.Err }
