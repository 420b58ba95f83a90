package clinic

import "errors"

var (
	// ErrSessionBusy is returned when a step is attempted while another step
	// is already in flight for the same session. The caller surfaces it as a
	// polite "please wait" response; it is not a system error.
	ErrSessionBusy = errors.New("session is already processing a step")

	// ErrInvalidState is returned when the engine is driven out of sequence.
	// This is a programming fault, fatal to the step but not to the session.
	ErrInvalidState = errors.New("engine is not waiting for input")

	// ErrSessionNotFound is returned for operations against an expired or
	// removed session identifier.
	ErrSessionNotFound = errors.New("session not found")
)

// BusyResponse is the fixed user-facing text sent on a concurrency rejection.
const BusyResponse = "Please wait for the current response to complete."
