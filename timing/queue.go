package timing

import (
	"container/heap"
	"fmt"
	"sync"
)

type eventQueue interface {
	Push(evt *ScheduledEvent) error
	Pop() (*ScheduledEvent, error)
	Peek() (*ScheduledEvent, error)
	Len() int
	IsEmpty() bool
}

// scheduledEventQueue is a min-heap of events ordered by (Time, Seq).
type scheduledEventQueue struct {
	sync.Mutex
	events   scheduledEventHeap
	capacity int
}

// newScheduledEventQueue creates a queue. A capacity of zero or less means
// the queue is only limited by memory.
func newScheduledEventQueue(capacity int) *scheduledEventQueue {
	q := &scheduledEventQueue{capacity: capacity}
	q.events = make([]*ScheduledEvent, 0)
	heap.Init(&q.events)

	return q
}

func (q *scheduledEventQueue) Push(evt *ScheduledEvent) error {
	q.Lock()
	defer q.Unlock()

	if q.capacity > 0 && len(q.events) >= q.capacity {
		return fmt.Errorf("%w: %d events pending, capacity %d",
			ErrAllocationFailure, len(q.events), q.capacity)
	}

	heap.Push(&q.events, evt)

	return nil
}

func (q *scheduledEventQueue) Pop() (*ScheduledEvent, error) {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return nil, ErrEmptyStore
	}

	return heap.Pop(&q.events).(*ScheduledEvent), nil
}

func (q *scheduledEventQueue) Peek() (*ScheduledEvent, error) {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return nil, ErrEmptyStore
	}

	return q.events[0], nil
}

func (q *scheduledEventQueue) Len() int {
	q.Lock()
	defer q.Unlock()

	return q.events.Len()
}

func (q *scheduledEventQueue) IsEmpty() bool {
	return q.Len() == 0
}

type scheduledEventHeap []*ScheduledEvent

func (h scheduledEventHeap) Len() int { return len(h) }

// Less orders by time, then by sequence number so that simultaneous events
// fire in the order they were scheduled.
func (h scheduledEventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}

	return h[i].Seq < h[j].Seq
}

func (h scheduledEventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *scheduledEventHeap) Push(x any) {
	evt := x.(*ScheduledEvent)
	*h = append(*h, evt)
}

func (h *scheduledEventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return evt
}
