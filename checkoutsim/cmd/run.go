package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sarchlab/eventsim/checkout"
	"github.com/sarchlab/eventsim/config"
	"github.com/sarchlab/eventsim/datarecording"
	"github.com/sarchlab/eventsim/monitoring"
	"github.com/sarchlab/eventsim/timing"
	"github.com/sarchlab/eventsim/tracing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Simulate one day at the kiosk and print the report.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return runSimulation(cfg, cmd.OutOrStdout())
		},
	}

	f := c.Flags()
	f.String("config", "", "YAML file with the simulation settings")
	f.Uint64("seed", 0, "seed of the random number generator")
	f.Int("arrivals", 0, "number of customers that arrive")
	f.Float64("mean-interarrival", 0, "mean time between arrivals in minutes")
	f.Float64("scan-time", 0, "time to scan one item in minutes")
	f.Bool("trace", false, "record every dispatched event into SQLite")
	f.String("trace-path", "", "trace database path without extension")
	f.Bool("monitor", false, "serve the monitoring API while running")
	f.Int("monitor-port", 0, "port of the monitoring API, random if 0")
	f.Bool("open-browser", false, "open the monitoring API in a browser")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.Int("max-pending", 0, "maximum number of pending events, 0 for no limit")

	return c
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	f := cmd.Flags()

	path, _ := f.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if f.Changed("seed") {
		cfg.Model.Seed, _ = f.GetUint64("seed")
	}

	if f.Changed("arrivals") {
		cfg.Model.Arrivals, _ = f.GetInt("arrivals")
	}

	if f.Changed("mean-interarrival") {
		cfg.Model.MeanInterarrival, _ = f.GetFloat64("mean-interarrival")
	}

	if f.Changed("scan-time") {
		cfg.Model.ScanTime, _ = f.GetFloat64("scan-time")
	}

	if f.Changed("trace") {
		cfg.Trace.Enabled, _ = f.GetBool("trace")
	}

	if f.Changed("trace-path") {
		cfg.Trace.Path, _ = f.GetString("trace-path")
	}

	if f.Changed("monitor") {
		cfg.Monitor.Enabled, _ = f.GetBool("monitor")
	}

	if f.Changed("monitor-port") {
		cfg.Monitor.Port, _ = f.GetInt("monitor-port")
	}

	if f.Changed("open-browser") {
		cfg.Monitor.OpenBrowser, _ = f.GetBool("open-browser")
	}

	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}

	if f.Changed("max-pending") {
		cfg.Engine.MaxPending, _ = f.GetInt("max-pending")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}

	zc.Level = level

	return zc.Build()
}

func runSimulation(cfg config.Config, out io.Writer) error {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	defer func() { _ = logger.Sync() }()

	engine := timing.NewSerialEngine(
		timing.WithLogger(logger),
		timing.WithMaxPending(cfg.Engine.MaxPending),
	)
	engine.AcceptHook(timing.NewEventLogger(logger))

	counter := tracing.NewCountTracer()
	tracing.CollectTrace(engine, counter)

	if cfg.Trace.Enabled {
		recorder := datarecording.New(cfg.Trace.Path)
		defer func() { _ = recorder.Close() }()

		tracing.CollectTrace(engine, tracing.NewEventTracer(recorder))
	}

	builder := checkout.MakeBuilder().
		WithEngine(engine).
		WithParams(modelParams(cfg.Model)).
		WithSeed(cfg.Model.Seed).
		WithLogger(logger)

	var monitor *monitoring.Monitor

	if cfg.Monitor.Enabled {
		monitor = monitoring.NewMonitor().
			WithLogger(logger).
			WithPortNumber(cfg.Monitor.Port)
		monitor.RegisterEngine(engine)

		bar := monitor.CreateProgressBar("Customers",
			uint64(cfg.Model.Arrivals))
		defer monitor.CompleteProgressBar(bar)

		builder = builder.WithProgressTracker(bar)
	}

	kiosk := builder.Build("Kiosk")

	if monitor != nil {
		monitor.RegisterModel(kiosk.Name(), kiosk)

		if err := startMonitor(monitor, cfg.Monitor, logger); err != nil {
			return err
		}

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			_ = monitor.Stop(ctx)
		}()
	}

	fmt.Fprintln(out, "Welcome to the Self-Checkout Kiosk Simulation")

	start := time.Now()

	if err := kiosk.Start(); err != nil {
		return fmt.Errorf("start kiosk: %w", err)
	}

	if err := engine.Run(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	wall := time.Since(start)

	for _, kind := range counter.Kinds() {
		logger.Info("events dispatched",
			zap.String("payload", kind),
			zap.Uint64("count", counter.Count(kind)))
	}

	return checkout.WriteReport(out, kiosk.Stats(), wall)
}

func startMonitor(
	monitor *monitoring.Monitor,
	cfg config.MonitorConfig,
	logger *zap.Logger,
) error {
	url, err := monitor.StartServer()
	if err != nil {
		return err
	}

	if cfg.OpenBrowser {
		if err := monitor.OpenBrowser(url); err != nil {
			logger.Warn("cannot open browser", zap.Error(err))
		}
	}

	return nil
}

func modelParams(m config.ModelConfig) checkout.Params {
	return checkout.Params{
		MeanInterarrival: m.MeanInterarrival,
		ScanTime:         m.ScanTime,
		Arrivals:         m.Arrivals,
		MaxItems:         m.MaxItems,
		LossEvery:        m.LossEvery,
	}
}
