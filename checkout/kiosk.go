// Package checkout models a single self-checkout kiosk serving a stream of
// customers. It is a client of the timing engine.
package checkout

import (
	"fmt"

	"github.com/sarchlab/eventsim/timing"
	"go.uber.org/zap"
)

// ArrivalEvent is a customer reaching the checkout line.
type ArrivalEvent struct {
	Customer int
}

// CheckoutEvent is the kiosk finishing with the customer at the front of the
// line.
type CheckoutEvent struct {
	Items int
}

// ProgressTracker receives the number of customers in the system and served.
type ProgressTracker interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// Params are the model constants. Times are in minutes.
type Params struct {
	MeanInterarrival float64
	ScanTime         float64
	Arrivals         int
	MaxItems         int
	LossEvery        int
}

// DefaultParams returns the constants of the original kiosk study.
func DefaultParams() Params {
	return Params{
		MeanInterarrival: 3.0,
		ScanTime:         0.33,
		Arrivals:         40,
		MaxItems:         20,
		LossEvery:        3,
	}
}

// Stats are the results of a run.
type Stats struct {
	Customers          int
	TotalWaitingTime   float64
	AverageWaitingTime float64
	TotalSales         float64
	TotalLosses        float64
	PercentageLost     float64
	EventsExecuted     int
	EndTime            float64
}

// Kiosk is the state of the checkout. The exported fields are there for
// inspection and must not be changed while the simulation runs.
type Kiosk struct {
	name     string
	engine   timing.EventScheduler
	sampler  Sampler
	params   Params
	logger   *zap.Logger
	progress ProgressTracker

	// InCheckout counts customers waiting or being served.
	InCheckout int
	// KioskFree is true when nobody is being served.
	KioskFree bool
	// ArrivalCount counts arrivals so far.
	ArrivalCount int
	// CustomerCount starts at 1 and grows with every checkout; a loss is
	// booked whenever it is a multiple of Params.LossEvery.
	CustomerCount int
	// LastEventTime is the time of the last handled event.
	LastEventTime float64

	TotalWaitingTime float64
	TotalSales       float64
	TotalLosses      float64
	EventsExecuted   int
}

// Name returns the name of the kiosk.
func (k *Kiosk) Name() string {
	return k.name
}

// Start schedules the first arrival.
func (k *Kiosk) Start() error {
	ts := k.engine.CurrentTime() +
		k.sampler.InterarrivalTime(k.params.MeanInterarrival)

	return timing.Schedule(k.engine, ts, &ArrivalEvent{Customer: 1}, k.arrive)
}

func (k *Kiosk) accumulateWaitingTime(now float64) {
	if k.InCheckout > 1 {
		k.TotalWaitingTime += float64(k.InCheckout-1) * (now - k.LastEventTime)
	}
}

func (k *Kiosk) arrive(e *ArrivalEvent) error {
	now := k.engine.CurrentTime()

	k.logger.Debug("arrival",
		zap.Float64("time", now), zap.Int("customer", e.Customer))

	k.accumulateWaitingTime(now)

	k.EventsExecuted++
	k.InCheckout++
	k.ArrivalCount++

	if k.progress != nil {
		k.progress.IncrementInProgress(1)
	}

	if k.ArrivalCount < k.params.Arrivals {
		ts := now + k.sampler.InterarrivalTime(k.params.MeanInterarrival)
		next := &ArrivalEvent{Customer: k.ArrivalCount + 1}

		if err := timing.Schedule(k.engine, ts, next, k.arrive); err != nil {
			return fmt.Errorf("schedule arrival: %w", err)
		}
	}

	if k.KioskFree {
		k.KioskFree = false

		if err := k.scheduleCheckout(now); err != nil {
			return err
		}
	}

	k.LastEventTime = now

	return nil
}

func (k *Kiosk) scheduleCheckout(now float64) error {
	items := k.sampler.Items(k.params.MaxItems)
	ts := now + k.params.ScanTime*float64(items)

	err := timing.Schedule(k.engine, ts, &CheckoutEvent{Items: items}, k.checkout)
	if err != nil {
		return fmt.Errorf("schedule checkout: %w", err)
	}

	return nil
}

func (k *Kiosk) checkout(e *CheckoutEvent) error {
	now := k.engine.CurrentTime()

	k.logger.Debug("checkout",
		zap.Float64("time", now), zap.Int("items", e.Items))

	k.accumulateWaitingTime(now)

	k.EventsExecuted++
	k.InCheckout--
	k.CustomerCount++

	if k.progress != nil {
		k.progress.MoveInProgressToFinished(1)
	}

	sale := k.sampler.TransactionTotal()
	k.TotalSales += sale

	if k.CustomerCount%k.params.LossEvery == 0 {
		k.TotalLosses += sale * k.sampler.LossFraction()
	}

	if k.InCheckout > 0 {
		if err := k.scheduleCheckout(now); err != nil {
			return err
		}
	} else {
		k.KioskFree = true
	}

	k.LastEventTime = now

	return nil
}

// Stats returns the statistics collected so far.
func (k *Kiosk) Stats() Stats {
	s := Stats{
		Customers:        k.params.Arrivals,
		TotalWaitingTime: k.TotalWaitingTime,
		TotalSales:       k.TotalSales,
		TotalLosses:      k.TotalLosses,
		EventsExecuted:   k.EventsExecuted,
		EndTime:          k.LastEventTime,
	}

	if k.params.Arrivals > 0 {
		s.AverageWaitingTime = k.TotalWaitingTime / float64(k.params.Arrivals)
	}

	if k.TotalSales > 0 {
		s.PercentageLost = k.TotalLosses / k.TotalSales * 100
	}

	return s
}

type endOfDayLogger struct {
	kiosk *Kiosk
}

func (h endOfDayLogger) Handle(now timing.VTimeInSec) {
	s := h.kiosk.Stats()
	h.kiosk.logger.Info("checkout closed",
		zap.String("kiosk", h.kiosk.name),
		zap.Float64("time", now),
		zap.Int("customers", s.Customers),
		zap.Float64("total_waiting_time", s.TotalWaitingTime),
		zap.Float64("total_sales", s.TotalSales),
		zap.Float64("total_losses", s.TotalLosses))
}
