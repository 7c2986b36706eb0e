package tracing

import (
	"github.com/sarchlab/eventsim/datarecording"
	"github.com/sarchlab/eventsim/hooking"
	"github.com/sarchlab/eventsim/timing"
)

// EventRecord is the row written for every dispatched event.
type EventRecord struct {
	Seq         uint64
	Time        float64
	ScheduledAt float64
	LeadTime    float64
	Payload     string
	Failed      bool
}

// EventTableName is the table that EventTracer writes into.
const EventTableName = "dispatched_events"

// EventTracer records every dispatched event into a DataRecorder.
type EventTracer struct {
	recorder datarecording.DataRecorder
}

// NewEventTracer creates the event table in recorder and returns a tracer
// writing into it.
func NewEventTracer(recorder datarecording.DataRecorder) *EventTracer {
	recorder.CreateTable(EventTableName, EventRecord{})

	return &EventTracer{recorder: recorder}
}

// Func records the event once its handler has returned.
func (t *EventTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != timing.HookPosAfterEvent {
		return
	}

	evt, ok := ctx.Item.(*timing.ScheduledEvent)
	if !ok {
		return
	}

	handlerErr, _ := ctx.Detail.(error)

	t.recorder.InsertData(EventTableName, EventRecord{
		Seq:         uint64(evt.Seq),
		Time:        evt.Time,
		ScheduledAt: evt.ScheduledAt,
		LeadTime:    evt.Time - evt.ScheduledAt,
		Payload:     payloadKind(evt.Payload),
		Failed:      handlerErr != nil,
	})
}

// Flush writes buffered records into the database.
func (t *EventTracer) Flush() {
	t.recorder.Flush()
}
