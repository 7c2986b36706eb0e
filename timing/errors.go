package timing

import (
	"errors"
	"fmt"
)

var (
	// ErrCausalityViolation is returned when an event is scheduled earlier
	// than the current simulation time.
	ErrCausalityViolation = errors.New("timing: causality violation")

	// ErrAllocationFailure is returned when the event queue cannot hold
	// another event.
	ErrAllocationFailure = errors.New("timing: cannot allocate event")

	// ErrEmptyStore is returned by the event queue when there is nothing left
	// to pop. The engine uses it to detect the end of the simulation.
	ErrEmptyStore = errors.New("timing: event queue is empty")

	// ErrInvalidTime is returned when the event time is NaN.
	ErrInvalidTime = errors.New("timing: invalid event time")

	// ErrNilHandler is returned when an event is scheduled without handler.
	ErrNilHandler = errors.New("timing: nil handler")

	// ErrEngineRunning is returned when Run is called while the engine is
	// already dispatching events.
	ErrEngineRunning = errors.New("timing: engine is already running")

	// ErrEngineTerminated is returned when a finished engine is asked to
	// schedule or run again.
	ErrEngineTerminated = errors.New("timing: engine has terminated")
)

// HandlerError reports a handler that failed while handling an event. The
// simulation stops at the failing event.
type HandlerError struct {
	Time VTimeInSec
	Seq  uint64
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf(
		"timing: handler failed at %.10f (seq %d): %v", e.Time, e.Seq, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is one of the engine errors that abort a run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrCausalityViolation) ||
		errors.Is(err, ErrAllocationFailure) ||
		errors.Is(err, ErrInvalidTime) ||
		errors.Is(err, ErrNilHandler)
}
