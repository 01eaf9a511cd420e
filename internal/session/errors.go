package session

import "errors"

var (
	// ErrSuperseded is returned when a resolution arrives after the session
	// was reset or resubmitted. The result is discarded; it is not a fault.
	ErrSuperseded = errors.New("diagnosis superseded by a newer session state")

	// ErrClosed is returned when submitting to a closed session.
	ErrClosed = errors.New("session is closed")

	// ErrNotHeld is returned when releasing an image reference that is not
	// held, either because it was never issued or was already released.
	ErrNotHeld = errors.New("image reference is not held")
)
