package timing

import (
	"fmt"

	"github.com/sarchlab/eventsim/hooking"
	"go.uber.org/zap"
)

// EventLogger is a hook that logs every dispatched event at debug level.
type EventLogger struct {
	logger *zap.Logger
}

// NewEventLogger returns a new EventLogger which writes into logger.
func NewEventLogger(logger *zap.Logger) *EventLogger {
	h := new(EventLogger)

	h.logger = logger

	return h
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(*ScheduledEvent)
	if !ok {
		return
	}

	ce := h.logger.Check(zap.DebugLevel, "dispatch")
	if ce == nil {
		return
	}

	ce.Write(
		zap.Float64("time", evt.Time),
		zap.Uint64("seq", uint64(evt.Seq)),
		zap.String("payload", fmt.Sprintf("%T", evt.Payload)),
	)
}
