package registration

import (
	"errors"
	"fmt"
)

// ErrSubmissionInProgress is returned when Submit is called on a form that
// already has a submission in flight.
var ErrSubmissionInProgress = errors.New("submission already in progress")

// Op names the store round-trip a StoreError came from.
type Op string

const (
	OpCount  Op = "count"
	OpInsert Op = "insert"
	OpList   Op = "list"
)

// StoreError is a store failure that cannot be attributed to a form field:
// transport errors, timeouts, unexpected driver errors.
type StoreError struct {
	Op  Op
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
