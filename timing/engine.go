package timing

import "github.com/sarchlab/eventsim/hooking"

// EngineState is the lifecycle stage of an engine.
type EngineState int32

// Lifecycle stages. An engine only moves forward through them.
const (
	EngineStateIdle EngineState = iota
	EngineStateRunning
	EngineStateTerminated
)

func (s EngineState) String() string {
	switch s {
	case EngineStateIdle:
		return "idle"
	case EngineStateRunning:
		return "running"
	case EngineStateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run processes all the events until none is left.
	Run() error

	// Pause stops the engine from dispatching more events until Continue is
	// called.
	Pause()

	// Continue resumes a paused engine.
	Continue()

	// Inspect calls fn while no event is being dispatched, so that fn can
	// read the state that handlers write.
	Inspect(fn func())

	// State returns the lifecycle stage of the engine.
	State() EngineState

	// Pending returns the number of events waiting in the queue.
	Pending() int

	// Dispatched returns the number of events handled so far.
	Dispatched() uint64

	// RegisterSimulationEndHandler registers a handler that is called once
	// Run finishes without error.
	RegisterSimulationEndHandler(handler SimulationEndHandler)
}
