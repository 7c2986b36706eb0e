package timing

import "go.uber.org/zap"

// Option configures a SerialEngine.
type Option func(*SerialEngine)

// WithLogger sets the logger used for run lifecycle messages. The default is
// a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *SerialEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxPending bounds the number of events that can wait in the queue at
// the same time. Scheduling beyond the bound fails with ErrAllocationFailure.
// Zero, the default, means unbounded.
func WithMaxPending(n int) Option {
	return func(e *SerialEngine) {
		e.maxPending = n
	}
}
