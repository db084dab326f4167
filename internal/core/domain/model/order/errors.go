package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrInvalidTransition is returned for any move outside the transition table,
	// including every attempt to leave a terminal status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrAlreadyAssigned is returned when another courier claimed the order first.
	ErrAlreadyAssigned = errors.New("order already assigned")

	// ErrUnauthorized is returned when the actor may not perform the transition.
	ErrUnauthorized = errors.New("actor is not allowed to change this order")
)

// TransitionError carries the attempted edge of a rejected transition.
type TransitionError struct {
	From   Status
	To     Status
	Reason string
}

// NewTransitionError reports that from has no edge to to.
func NewTransitionError(from, to Status) *TransitionError {
	return &TransitionError{From: from, To: to}
}

// NewTransitionErrorWithReason is used when the edge exists but a guard on it
// failed.
func NewTransitionErrorWithReason(from, to Status, reason string) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: reason}
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s -> %s (%s)", ErrInvalidTransition, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

// Unwrap lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
