package checkout

import (
	"fmt"
	"io"
	"time"
)

// WriteReport prints the end-of-day report. wall is the real time the
// simulation took.
func WriteReport(w io.Writer, s Stats, wall time.Duration) error {
	eventsPerSecond := 0.0
	if wall > 0 {
		eventsPerSecond = float64(s.EventsExecuted) / wall.Seconds()
	}

	_, err := fmt.Fprintf(w,
		"Number of customers = %d\n"+
			"Total waiting time = %f\n"+
			"Average waiting time = %f\n"+
			"Total sales = %.2f\n"+
			"Total losses = %.2f\n"+
			"Percentage lost = %.2f%%\n"+
			"%d events executed in %f seconds (%f events per second)\n",
		s.Customers,
		s.TotalWaitingTime,
		s.AverageWaitingTime,
		s.TotalSales,
		s.TotalLosses,
		s.PercentageLost,
		s.EventsExecuted, wall.Seconds(), eventsPerSecond)

	return err
}
