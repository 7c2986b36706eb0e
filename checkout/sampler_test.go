package checkout_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/eventsim/checkout"
)

var _ = Describe("RandomSampler", func() {
	It("should draw values within range", func() {
		s := checkout.NewRandomSampler(9)

		for range 1000 {
			Expect(s.InterarrivalTime(3)).To(BeNumerically(">=", 0))
			Expect(s.Items(20)).To(And(
				BeNumerically(">=", 1), BeNumerically("<=", 20)))
			Expect(s.TransactionTotal()).To(And(
				BeNumerically(">=", 15), BeNumerically("<", 45)))
			Expect(s.LossFraction()).To(And(
				BeNumerically(">=", 0.06), BeNumerically("<", 0.21)))
		}
	})

	It("should have the requested mean interarrival time", func() {
		s := checkout.NewRandomSampler(11)
		sum := 0.0
		const n = 20000

		for range n {
			sum += s.InterarrivalTime(3)
		}

		Expect(sum / n).To(BeNumerically("~", 3, 0.1))
	})

	It("should be reproducible", func() {
		a := checkout.NewRandomSampler(4)
		b := checkout.NewRandomSampler(4)

		for range 10 {
			Expect(a.TransactionTotal()).To(Equal(b.TransactionTotal()))
		}
	})
})
