package timing

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/eventsim/idgen"
)

var _ = Describe("scheduledEventQueue", func() {
	var (
		queue  *scheduledEventQueue
		seqGen idgen.Generator
	)

	newEvent := func(t VTimeInSec) *ScheduledEvent {
		return &ScheduledEvent{Time: t, Seq: seqGen.Generate()}
	}

	BeforeEach(func() {
		queue = newScheduledEventQueue(0)
		seqGen = idgen.New()
	})

	It("should pop in order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			Expect(queue.Push(newEvent(rand.Float64() / 1e8))).To(Succeed())
		}

		now := VTimeInSec(-1)
		for i := 0; i < numEvents; i++ {
			evt, err := queue.Pop()
			Expect(err).NotTo(HaveOccurred())
			Expect(evt.Time).To(BeNumerically(">=", now))
			now = evt.Time
		}

		Expect(queue.IsEmpty()).To(BeTrue())
	})

	It("should pop simultaneous events in scheduling order", func() {
		for i := 0; i < 50; i++ {
			Expect(queue.Push(newEvent(VTimeInSec(i % 3)))).To(Succeed())
		}

		var last *ScheduledEvent
		for !queue.IsEmpty() {
			evt, err := queue.Pop()
			Expect(err).NotTo(HaveOccurred())

			if last != nil && last.Time == evt.Time {
				Expect(evt.Seq).To(BeNumerically(">", last.Seq))
			}

			last = evt
		}
	})

	It("should peek without removing", func() {
		Expect(queue.Push(newEvent(5))).To(Succeed())
		Expect(queue.Push(newEvent(3))).To(Succeed())

		evt, err := queue.Peek()
		Expect(err).NotTo(HaveOccurred())
		Expect(evt.Time).To(Equal(VTimeInSec(3)))
		Expect(queue.Len()).To(Equal(2))
	})

	It("should report an empty queue", func() {
		_, err := queue.Pop()
		Expect(err).To(MatchError(ErrEmptyStore))

		_, err = queue.Peek()
		Expect(err).To(MatchError(ErrEmptyStore))
	})

	It("should refuse events beyond capacity", func() {
		queue = newScheduledEventQueue(2)

		Expect(queue.Push(newEvent(1))).To(Succeed())
		Expect(queue.Push(newEvent(2))).To(Succeed())
		Expect(queue.Push(newEvent(3))).To(MatchError(ErrAllocationFailure))
		Expect(queue.Len()).To(Equal(2))

		_, err := queue.Pop()
		Expect(err).NotTo(HaveOccurred())
		Expect(queue.Push(newEvent(3))).To(Succeed())
	})

	It("should not keep a reference to popped events", func() {
		Expect(queue.Push(newEvent(1))).To(Succeed())
		Expect(queue.Push(newEvent(2))).To(Succeed())

		_, err := queue.Pop()
		Expect(err).NotTo(HaveOccurred())

		backing := queue.events[:cap(queue.events)]
		for i := queue.Len(); i < len(backing); i++ {
			Expect(backing[i]).To(BeNil())
		}
	})
})
