package errors

import "errors"

var (
	// requested record does not exist.
	ErrMissing = errors.New("missing")

	// requested record exists more than expected.
	ErrTooMuch = errors.New("too much")

	// the record's status was not the expected one when a compare-and-set
	// write was attempted. Another invocation got there first.
	ErrStatusConflict = errors.New("status conflict")

	// an operation was attempted outside its legal tournament status.
	ErrPhaseViolation = errors.New("phase violation")

	// the orchestrator was asked to apply a transition whose guard is false.
	ErrInvalidTransition = errors.New("invalid transition")

	// registering would exceed the tournament's participant capacity.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// the identity is already registered for the tournament.
	ErrAlreadyRegistered = errors.New("already registered")

	// the participant is disqualified; no further operation applies to it.
	ErrDisqualified = errors.New("disqualified")

	// the identity exists but is not eligible for the requested operation.
	ErrIneligible = errors.New("not eligible")
)
