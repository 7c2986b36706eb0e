package checkout_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sarchlab/eventsim/checkout"
	"github.com/sarchlab/eventsim/timing"
)

type fixedSampler struct{}

func (fixedSampler) InterarrivalTime(float64) float64 { return 1 }
func (fixedSampler) Items(int) int                    { return 10 }
func (fixedSampler) TransactionTotal() float64        { return 20 }
func (fixedSampler) LossFraction() float64            { return 0.1 }

type progressCounter struct {
	inProgress, finished uint64
}

func (p *progressCounter) IncrementInProgress(amount uint64) {
	p.inProgress += amount
}

func (p *progressCounter) MoveInProgressToFinished(amount uint64) {
	p.inProgress -= amount
	p.finished += amount
}

func runKiosk(params checkout.Params, seed uint64) (*checkout.Kiosk, *timing.SerialEngine) {
	engine := timing.NewSerialEngine()
	kiosk := checkout.MakeBuilder().
		WithEngine(engine).
		WithParams(params).
		WithSeed(seed).
		Build("Kiosk")

	Expect(kiosk.Start()).To(Succeed())
	Expect(engine.Run()).To(Succeed())

	return kiosk, engine
}

var _ = Describe("Kiosk", func() {
	var params checkout.Params

	BeforeEach(func() {
		params = checkout.DefaultParams()
	})

	It("should follow a hand-computed day with fixed draws", func() {
		params.Arrivals = 3
		engine := timing.NewSerialEngine()
		progress := &progressCounter{}
		kiosk := checkout.MakeBuilder().
			WithEngine(engine).
			WithParams(params).
			WithSampler(fixedSampler{}).
			WithProgressTracker(progress).
			Build("Kiosk")

		Expect(kiosk.Start()).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		s := kiosk.Stats()
		Expect(s.Customers).To(Equal(3))
		Expect(s.EventsExecuted).To(Equal(6))
		Expect(s.TotalWaitingTime).To(BeNumerically("~", 6.9, 1e-9))
		Expect(s.AverageWaitingTime).To(BeNumerically("~", 2.3, 1e-9))
		Expect(s.TotalSales).To(BeNumerically("~", 60, 1e-9))
		Expect(s.TotalLosses).To(BeNumerically("~", 2, 1e-9))
		Expect(s.PercentageLost).To(BeNumerically("~", 100.0/30, 1e-9))
		Expect(s.EndTime).To(BeNumerically("~", 10.9, 1e-9))
		Expect(engine.CurrentTime()).To(BeNumerically("~", 10.9, 1e-9))

		Expect(progress.inProgress).To(BeZero())
		Expect(progress.finished).To(Equal(uint64(3)))
	})

	It("should serve every customer", func() {
		kiosk, engine := runKiosk(params, 1)

		Expect(kiosk.ArrivalCount).To(Equal(params.Arrivals))
		Expect(kiosk.InCheckout).To(BeZero())
		Expect(kiosk.KioskFree).To(BeTrue())
		Expect(kiosk.CustomerCount).To(Equal(params.Arrivals + 1))
		Expect(kiosk.EventsExecuted).To(Equal(2 * params.Arrivals))
		Expect(engine.Dispatched()).To(Equal(uint64(2 * params.Arrivals)))
		Expect(engine.State()).To(Equal(timing.EngineStateTerminated))
	})

	It("should keep the statistics within their bounds", func() {
		kiosk, _ := runKiosk(params, 7)
		s := kiosk.Stats()
		n := float64(params.Arrivals)

		Expect(s.TotalWaitingTime).To(BeNumerically(">=", 0))
		Expect(s.AverageWaitingTime).To(
			BeNumerically("~", s.TotalWaitingTime/n, 1e-12))
		Expect(s.TotalSales).To(BeNumerically(">=", 15*n))
		Expect(s.TotalSales).To(BeNumerically("<", 45*n))
		Expect(s.TotalLosses).To(BeNumerically(">", 0))
		Expect(s.TotalLosses).To(BeNumerically("<", 0.21*s.TotalSales))
	})

	It("should repeat a run with the same seed", func() {
		a, _ := runKiosk(params, 42)
		b, _ := runKiosk(params, 42)

		Expect(a.Stats()).To(Equal(b.Stats()))
	})

	It("should differ between seeds", func() {
		a, _ := runKiosk(params, 1)
		b, _ := runKiosk(params, 2)

		Expect(a.Stats().TotalSales).NotTo(Equal(b.Stats().TotalSales))
	})

	It("should book no loss for a single customer", func() {
		params.Arrivals = 1
		kiosk, _ := runKiosk(params, 3)

		Expect(kiosk.Stats().TotalLosses).To(BeZero())
		Expect(kiosk.Stats().TotalWaitingTime).To(BeZero())
	})

	It("should log the statistics when the simulation ends", func() {
		core, logs := observer.New(zap.InfoLevel)
		engine := timing.NewSerialEngine()
		kiosk := checkout.MakeBuilder().
			WithEngine(engine).
			WithSeed(5).
			WithLogger(zap.New(core)).
			Build("Kiosk")

		Expect(kiosk.Start()).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		entries := logs.FilterMessage("checkout closed").All()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].ContextMap()).To(HaveKeyWithValue("kiosk", "Kiosk"))
		Expect(entries[0].ContextMap()).To(HaveKeyWithValue("customers", int64(40)))
	})

	It("should ignore a nil logger", func() {
		engine := timing.NewSerialEngine()
		kiosk := checkout.MakeBuilder().
			WithEngine(engine).
			WithLogger(nil).
			Build("Kiosk")

		Expect(kiosk.Start()).To(Succeed())
		Expect(engine.Run()).To(Succeed())
	})

	It("should panic without an engine", func() {
		Expect(func() { checkout.MakeBuilder().Build("Kiosk") }).To(Panic())
	})
})
