package timing

import (
	"github.com/sarchlab/eventsim/hooking"
	"github.com/sarchlab/eventsim/idgen"
)

// VTimeInSec defines the time in the simulated space.
type VTimeInSec = float64

// Handler processes the payload of a dispatched event.
//
// A handler that needs to serve several payload kinds switches on the type:
//
//	func (h *MyHandler) Handle(payload any) error {
//	    switch p := payload.(type) {
//	    case *MyEvent:
//	        // handle MyEvent
//	    default:
//	        return fmt.Errorf("unknown payload type: %T", p)
//	    }
//	    return nil
//	}
//
// Handlers that serve exactly one payload kind should be scheduled through
// Schedule instead, which binds the payload type at compile time.
type Handler interface {
	Handle(payload any) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(payload any) error

// Handle calls f(payload).
func (f HandlerFunc) Handle(payload any) error {
	return f(payload)
}

// TimeTeller exposes the current simulation time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler schedules events in the simulation timeline.
type EventScheduler interface {
	TimeTeller

	Schedule(t VTimeInSec, payload any, handler Handler) error
}

// ScheduledEvent is the engine-side record of a pending event. Once pushed
// into the queue it is never modified.
type ScheduledEvent struct {
	// Time is when the event fires.
	Time VTimeInSec

	// Seq orders events that share the same Time; lower fires first.
	Seq idgen.ID

	// ScheduledAt is the simulation time at which Schedule was called.
	ScheduledAt VTimeInSec

	// Payload is handed to Handler at dispatch.
	Payload any

	// Handler receives Payload.
	Handler Handler
}

// HookPosBeforeEvent is a hook position that triggers before handling an
// event. The hook item is the *ScheduledEvent.
var HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent is a hook position that triggers after handling an event.
// The hook detail carries the error returned by the handler, if any.
var HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}

// A SimulationEndHandler is called after the simulation ends.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

type typedHandler[P any] struct {
	fn func(P) error
}

func (h typedHandler[P]) Handle(payload any) error {
	// The assertion only fails for a nil payload of an interface type, in
	// which case the zero value is the payload.
	p, _ := payload.(P)

	return h.fn(p)
}

// Schedule registers payload to be delivered to fn at time t. Because the
// payload and the handler share the type parameter, fn never sees a payload
// of another kind.
func Schedule[P any](
	s EventScheduler,
	t VTimeInSec,
	payload P,
	fn func(P) error,
) error {
	if fn == nil {
		return ErrNilHandler
	}

	return s.Schedule(t, payload, typedHandler[P]{fn: fn})
}
