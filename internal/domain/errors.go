package domain

import "errors"

var (
	// Malformed or out-of-range coordinates. Fatal to the single operation.
	ErrInvalidLocation = errors.New("invalid location")

	// Status change violating the lifecycle lattice. Surfaced to the
	// caller, never retried automatically.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Per-id serialization was bypassed. A programming invariant
	// violation: fail loudly, never resolve silently.
	ErrConcurrentModification = errors.New("concurrent modification conflict")

	// Referenced hotspot does not exist.
	ErrUnknownHotspot = errors.New("unknown hotspot")

	// Referenced worker has no registered shift.
	ErrUnknownWorker = errors.New("unknown worker")

	// Plan version no longer matches the active plan.
	ErrPlanSuperseded = errors.New("plan superseded")
)
