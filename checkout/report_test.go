package checkout_test

import (
	"bytes"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/eventsim/checkout"
)

var _ = Describe("WriteReport", func() {
	It("should print every statistic", func() {
		var buf bytes.Buffer
		s := checkout.Stats{
			Customers:          3,
			TotalWaitingTime:   6.9,
			AverageWaitingTime: 2.3,
			TotalSales:         60,
			TotalLosses:        2,
			PercentageLost:     100.0 / 30,
			EventsExecuted:     6,
		}

		Expect(checkout.WriteReport(&buf, s, 2*time.Second)).To(Succeed())

		Expect(buf.String()).To(Equal(
			"Number of customers = 3\n" +
				"Total waiting time = 6.900000\n" +
				"Average waiting time = 2.300000\n" +
				"Total sales = 60.00\n" +
				"Total losses = 2.00\n" +
				"Percentage lost = 3.33%\n" +
				"6 events executed in 2.000000 seconds (3.000000 events per second)\n"))
	})

	It("should not divide by a zero duration", func() {
		var buf bytes.Buffer

		Expect(checkout.WriteReport(&buf, checkout.Stats{}, 0)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("(0.000000 events per second)"))
	})
})
