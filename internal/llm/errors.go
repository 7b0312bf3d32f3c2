package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrCanceled reports that a call was aborted by its context, usually
	// because a newer request superseded it. It is not a failure.
	ErrCanceled = errors.New("llm: call canceled")
	// ErrInvalidJSON reports a structured response that could not be decoded.
	ErrInvalidJSON = errors.New("llm: invalid JSON from model")
)

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// CallError is a backend failure surfaced by the adapter.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string { return fmt.Sprintf("llm %s: %v", e.Op, e.Err) }
func (e *CallError) Unwrap() error { return e.Err }
