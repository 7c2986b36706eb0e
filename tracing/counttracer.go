package tracing

import (
	"sync"

	"github.com/sarchlab/eventsim/hooking"
	"github.com/sarchlab/eventsim/timing"
)

// CountTracer counts dispatched events by payload type.
type CountTracer struct {
	lock sync.Mutex

	kinds  []string
	counts map[string]uint64
	total  uint64
}

// NewCountTracer creates a new CountTracer.
func NewCountTracer() *CountTracer {
	return &CountTracer{
		counts: make(map[string]uint64),
	}
}

// Func counts the event before its handler runs.
func (t *CountTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != timing.HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(*timing.ScheduledEvent)
	if !ok {
		return
	}

	kind := payloadKind(evt.Payload)

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, seen := t.counts[kind]; !seen {
		t.kinds = append(t.kinds, kind)
	}

	t.counts[kind]++
	t.total++
}

// Kinds returns the payload types seen, in order of first dispatch.
func (t *CountTracer) Kinds() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	kinds := make([]string, len(t.kinds))
	copy(kinds, t.kinds)

	return kinds
}

// Count returns the number of dispatched events with the given payload type.
func (t *CountTracer) Count(kind string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[kind]
}

// Total returns the number of dispatched events.
func (t *CountTracer) Total() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total
}
