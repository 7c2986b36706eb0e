package timing

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)

		handleEvt2 := handler2.EXPECT().
			Handle("evt2").
			DoAndReturn(func(any) error {
				Expect(engine.Schedule(3, "evt3", handler1)).To(Succeed())
				Expect(engine.Schedule(5, "evt4", handler1)).To(Succeed())
				return nil
			})
		handleEvt3 := handler1.EXPECT().
			Handle("evt3").
			After(handleEvt2)
		handleEvt1 := handler1.EXPECT().
			Handle("evt1").
			After(handleEvt3)
		handler1.EXPECT().
			Handle("evt4").
			After(handleEvt1)

		Expect(engine.Schedule(4, "evt1", handler1)).To(Succeed())
		Expect(engine.Schedule(2, "evt2", handler2)).To(Succeed())

		Expect(engine.Run()).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(5)))
	})

	It("should keep the clock non-decreasing under random load", func() {
		handler := NewMockHandler(mockCtrl)

		last := VTimeInSec(0)
		handler.EXPECT().
			Handle(gomock.Any()).
			DoAndReturn(func(payload any) error {
				now := engine.CurrentTime()
				Expect(now).To(BeNumerically(">=", last))
				Expect(now).To(Equal(payload.(VTimeInSec)))
				last = now

				return nil
			}).
			Times(1000)

		for i := 0; i < 1000; i++ {
			t := VTimeInSec(rand.Uint64()%50) * 0.01
			Expect(engine.Schedule(t, t, handler)).To(Succeed())
		}

		Expect(engine.Run()).To(Succeed())
		Expect(engine.Dispatched()).To(Equal(uint64(1000)))
	})
})
