package tracing_test

import (
	"database/sql"
	"errors"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/eventsim/datarecording"
	"github.com/sarchlab/eventsim/timing"
	"github.com/sarchlab/eventsim/tracing"
)

type arrival struct{}

type departure struct{}

var _ = Describe("CountTracer", func() {
	It("should count events by payload type", func() {
		engine := timing.NewSerialEngine()
		tracer := tracing.NewCountTracer()
		tracing.CollectTrace(engine, tracer)

		noop := timing.HandlerFunc(func(any) error { return nil })
		Expect(engine.Schedule(1, &arrival{}, noop)).To(Succeed())
		Expect(engine.Schedule(2, &departure{}, noop)).To(Succeed())
		Expect(engine.Schedule(3, &arrival{}, noop)).To(Succeed())
		Expect(engine.Schedule(4, nil, noop)).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		Expect(tracer.Kinds()).To(Equal([]string{
			"*tracing_test.arrival", "*tracing_test.departure", "<nil>",
		}))
		Expect(tracer.Count("*tracing_test.arrival")).To(Equal(uint64(2)))
		Expect(tracer.Count("*tracing_test.departure")).To(Equal(uint64(1)))
		Expect(tracer.Total()).To(Equal(engine.Dispatched()))
	})

	It("should refuse to be attached twice", func() {
		engine := timing.NewSerialEngine()
		tracer := tracing.NewCountTracer()
		tracing.CollectTrace(engine, tracer)

		Expect(func() { tracing.CollectTrace(engine, tracer) }).To(Panic())
	})
})

var _ = Describe("EventTracer", func() {
	var (
		path     string
		recorder datarecording.DataRecorder
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "trace")
		recorder = datarecording.New(path)
	})

	AfterEach(func() {
		Expect(recorder.Close()).To(Succeed())
	})

	It("should record every dispatched event", func() {
		engine := timing.NewSerialEngine()
		tracer := tracing.NewEventTracer(recorder)
		tracing.CollectTrace(engine, tracer)

		var handler timing.HandlerFunc
		handler = func(payload any) error {
			if _, ok := payload.(*arrival); ok {
				return engine.Schedule(engine.CurrentTime()+2.5, &departure{}, handler)
			}

			return nil
		}

		Expect(engine.Schedule(1, &arrival{}, handler)).To(Succeed())
		Expect(engine.Run()).To(Succeed())
		tracer.Flush()

		db, err := sql.Open("sqlite3", path+".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		rows, err := db.Query(
			"SELECT Seq, Time, LeadTime, Payload FROM dispatched_events ORDER BY Seq;")
		Expect(err).NotTo(HaveOccurred())
		defer rows.Close()

		var records []tracing.EventRecord
		for rows.Next() {
			var r tracing.EventRecord
			Expect(rows.Scan(&r.Seq, &r.Time, &r.LeadTime, &r.Payload)).To(Succeed())
			records = append(records, r)
		}

		Expect(records).To(HaveLen(2))
		Expect(records[0].Time).To(Equal(1.0))
		Expect(records[0].LeadTime).To(Equal(1.0))
		Expect(records[0].Payload).To(Equal("*tracing_test.arrival"))
		Expect(records[1].Time).To(Equal(3.5))
		Expect(records[1].LeadTime).To(Equal(2.5))
	})

	It("should mark failed events", func() {
		engine := timing.NewSerialEngine()
		tracer := tracing.NewEventTracer(recorder)
		tracing.CollectTrace(engine, tracer)

		Expect(engine.Schedule(1, nil, timing.HandlerFunc(func(any) error {
			return errors.New("failed")
		}))).To(Succeed())
		Expect(engine.Run()).To(HaveOccurred())
		tracer.Flush()

		db, err := sql.Open("sqlite3", path+".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		var failed bool
		Expect(db.QueryRow(
			"SELECT Failed FROM dispatched_events;").Scan(&failed)).To(Succeed())
		Expect(failed).To(BeTrue())
	})
})
