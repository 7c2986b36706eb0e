package timing

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/eventsim/hooking"
	"github.com/sarchlab/eventsim/idgen"
	"go.uber.org/zap"
)

// SerialEngine dispatches scheduled events one after another in time order.
//
// Events are dispatched on the goroutine that calls Run. Handlers may call
// Schedule while they run; other goroutines may call Schedule only while the
// engine is idle or paused. CurrentTime, State, Pending and Dispatched can be
// read from other goroutines; Pause, Continue and Inspect must be called from
// another goroutine than the one running Run.
type SerialEngine struct {
	*hooking.HookableBase

	logger     *zap.Logger
	maxPending int
	seqGen     idgen.Generator

	timeLock sync.RWMutex
	now      VTimeInSec

	queue eventQueue

	state      atomic.Int32
	dispatched atomic.Uint64

	// fatalErr keeps the first scheduling failure seen while running, so
	// that a handler ignoring the error cannot hide it.
	fatalErrLock sync.Mutex
	fatalErr     error

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine with the clock at 0.
func NewSerialEngine(opts ...Option) *SerialEngine {
	e := &SerialEngine{
		HookableBase: hooking.NewHookableBase(),
		logger:       zap.NewNop(),
		seqGen:       idgen.New(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.queue = newScheduledEventQueue(e.maxPending)

	return e
}

// Schedule registers payload to be handled by handler at time t.
func (e *SerialEngine) Schedule(
	t VTimeInSec,
	payload any,
	handler Handler,
) error {
	err := e.schedule(t, payload, handler)
	if err != nil && e.State() == EngineStateRunning {
		e.recordFatal(err)
	}

	return err
}

func (e *SerialEngine) recordFatal(err error) {
	e.fatalErrLock.Lock()
	defer e.fatalErrLock.Unlock()

	if e.fatalErr == nil {
		e.fatalErr = err
	}
}

func (e *SerialEngine) firstFatal() error {
	e.fatalErrLock.Lock()
	defer e.fatalErrLock.Unlock()

	return e.fatalErr
}

func (e *SerialEngine) schedule(
	t VTimeInSec,
	payload any,
	handler Handler,
) error {
	if isNilHandler(handler) {
		return fmt.Errorf("%w: payload %T", ErrNilHandler, payload)
	}

	if math.IsNaN(t) {
		return fmt.Errorf("%w: payload %T @ NaN", ErrInvalidTime, payload)
	}

	if e.State() == EngineStateTerminated {
		return ErrEngineTerminated
	}

	now := e.readNow()
	if t < now {
		return fmt.Errorf("%w: payload %T @ %.10f, now %.10f",
			ErrCausalityViolation, payload, t, now)
	}

	evt := &ScheduledEvent{
		Time:        t,
		Seq:         e.seqGen.Generate(),
		ScheduledAt: now,
		Payload:     payload,
		Handler:     handler,
	}

	return e.queue.Push(evt)
}

// isNilHandler also catches typed nils, such as a nil HandlerFunc, that a
// plain comparison with nil lets through.
func isNilHandler(h Handler) bool {
	if h == nil {
		return true
	}

	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Interface,
		reflect.Map, reflect.Slice, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

func (e *SerialEngine) readNow() VTimeInSec {
	e.timeLock.RLock()
	t := e.now
	e.timeLock.RUnlock()

	return t
}

func (e *SerialEngine) writeNow(t VTimeInSec) {
	e.timeLock.Lock()
	e.now = t
	e.timeLock.Unlock()
}

// Run dispatches events until the queue is empty or a fatal error occurs. An
// engine can only run once.
func (e *SerialEngine) Run() error {
	if !e.state.CompareAndSwap(
		int32(EngineStateIdle), int32(EngineStateRunning),
	) {
		if e.State() == EngineStateRunning {
			return ErrEngineRunning
		}

		return ErrEngineTerminated
	}

	e.logger.Info("simulation started",
		zap.Int("pending", e.queue.Len()))

	err := e.dispatchAll()

	e.state.Store(int32(EngineStateTerminated))

	now := e.readNow()
	if err != nil {
		e.logger.Error("simulation aborted",
			zap.Float64("now", now),
			zap.Uint64("dispatched", e.Dispatched()),
			zap.Error(err))

		return err
	}

	e.logger.Info("simulation finished",
		zap.Float64("now", now),
		zap.Uint64("dispatched", e.Dispatched()))

	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}

	return nil
}

func (e *SerialEngine) dispatchAll() error {
	for {
		e.pauseLock.Lock()

		evt, err := e.queue.Pop()
		if errors.Is(err, ErrEmptyStore) {
			e.pauseLock.Unlock()
			return nil
		}

		err = e.dispatch(evt)

		e.pauseLock.Unlock()

		if err != nil {
			return err
		}
	}
}

func (e *SerialEngine) dispatch(evt *ScheduledEvent) error {
	e.writeNow(evt.Time)

	hookCtx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	handlerErr := evt.Handler.Handle(evt.Payload)
	e.dispatched.Add(1)

	hookCtx.Pos = HookPosAfterEvent
	hookCtx.Detail = handlerErr
	e.InvokeHook(hookCtx)

	if handlerErr != nil {
		return &HandlerError{
			Time: evt.Time,
			Seq:  uint64(evt.Seq),
			Err:  handlerErr,
		}
	}

	if fatalErr := e.firstFatal(); fatalErr != nil {
		return fmt.Errorf("scheduling from handler at %.10f: %w",
			evt.Time, fatalErr)
	}

	return nil
}

// Pause prevents the engine from dispatching more events. The event being
// handled, if any, completes first.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the engine to dispatch events again after a Pause.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// Inspect calls fn while no event is being dispatched. It waits for the event
// in progress to finish and leaves the pause state as it was.
func (e *SerialEngine) Inspect(fn func()) {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		e.pauseLock.Lock()
		defer e.pauseLock.Unlock()
	}

	fn()
}

// IsPaused tells if Pause has been called without a matching Continue.
func (e *SerialEngine) IsPaused() bool {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	return e.isPaused
}

// CurrentTime returns the time of the event being dispatched, or of the last
// dispatched event. It is 0 before Run.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	return e.readNow()
}

// State returns the lifecycle stage of the engine.
func (e *SerialEngine) State() EngineState {
	return EngineState(e.state.Load())
}

// Pending returns the number of events waiting in the queue.
func (e *SerialEngine) Pending() int {
	return e.queue.Len()
}

// Dispatched returns the number of events handled so far.
func (e *SerialEngine) Dispatched() uint64 {
	return e.dispatched.Load()
}

// RegisterSimulationEndHandler registers a handler invoked with the final
// simulation time after Run returns successfully.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

var _ Engine = (*SerialEngine)(nil)
