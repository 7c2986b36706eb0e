package checkout

import (
	"github.com/sarchlab/eventsim/timing"
	"go.uber.org/zap"
)

// Builder can help building kiosks.
type Builder struct {
	engine   timing.EventScheduler
	sampler  Sampler
	params   Params
	logger   *zap.Logger
	progress ProgressTracker
}

// MakeBuilder returns a Builder with the default parameters and a sampler
// seeded with 1.
func MakeBuilder() Builder {
	return Builder{
		params: DefaultParams(),
		logger: zap.NewNop(),
	}
}

// WithEngine sets the engine that the kiosk schedules its events on.
func (b Builder) WithEngine(e timing.EventScheduler) Builder {
	b.engine = e
	return b
}

// WithParams sets the model constants.
func (b Builder) WithParams(p Params) Builder {
	b.params = p
	return b
}

// WithSampler sets the source of random quantities.
func (b Builder) WithSampler(s Sampler) Builder {
	b.sampler = s
	return b
}

// WithSeed uses a RandomSampler seeded with seed.
func (b Builder) WithSeed(seed uint64) Builder {
	b.sampler = NewRandomSampler(seed)
	return b
}

// WithLogger sets the logger. A nil logger keeps the current one.
func (b Builder) WithLogger(logger *zap.Logger) Builder {
	if logger != nil {
		b.logger = logger
	}

	return b
}

// WithProgressTracker reports arrivals and checkouts to t.
func (b Builder) WithProgressTracker(t ProgressTracker) Builder {
	b.progress = t
	return b
}

// Build creates the kiosk. If the engine can report the end of the
// simulation, the kiosk logs its statistics then.
func (b Builder) Build(name string) *Kiosk {
	if b.engine == nil {
		panic("checkout: engine is required")
	}

	sampler := b.sampler
	if sampler == nil {
		sampler = NewRandomSampler(1)
	}

	k := &Kiosk{
		name:          name,
		engine:        b.engine,
		sampler:       sampler,
		params:        b.params,
		logger:        b.logger,
		progress:      b.progress,
		KioskFree:     true,
		CustomerCount: 1,
	}

	if e, ok := b.engine.(timing.Engine); ok {
		e.RegisterSimulationEndHandler(endOfDayLogger{kiosk: k})
	}

	return k
}
