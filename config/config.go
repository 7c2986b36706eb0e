// Package config loads the settings of the checkout simulator from defaults,
// a YAML file, a .env file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "CHECKOUTSIM_"

// Config holds every setting of a simulation run.
type Config struct {
	Model   ModelConfig   `yaml:"model" envPrefix:"MODEL_"`
	Engine  EngineConfig  `yaml:"engine" envPrefix:"ENGINE_"`
	Trace   TraceConfig   `yaml:"trace" envPrefix:"TRACE_"`
	Monitor MonitorConfig `yaml:"monitor" envPrefix:"MONITOR_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
}

// ModelConfig holds the parameters of the checkout model. Times are in
// minutes.
type ModelConfig struct {
	MeanInterarrival float64 `yaml:"mean_interarrival" env:"MEAN_INTERARRIVAL"`
	ScanTime         float64 `yaml:"scan_time" env:"SCAN_TIME"`
	Arrivals         int     `yaml:"arrivals" env:"ARRIVALS"`
	MaxItems         int     `yaml:"max_items" env:"MAX_ITEMS"`
	LossEvery        int     `yaml:"loss_every" env:"LOSS_EVERY"`
	Seed             uint64  `yaml:"seed" env:"SEED"`
}

// EngineConfig holds the engine settings.
type EngineConfig struct {
	MaxPending int `yaml:"max_pending" env:"MAX_PENDING"`
}

// TraceConfig controls event trace recording.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// MonitorConfig controls the monitoring server.
type MonitorConfig struct {
	Enabled     bool `yaml:"enabled" env:"ENABLED"`
	Port        int  `yaml:"port" env:"PORT"`
	OpenBrowser bool `yaml:"open_browser" env:"OPEN_BROWSER"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level       string `yaml:"level" env:"LEVEL"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
}

// Default returns the settings of the original kiosk study.
func Default() Config {
	return Config{
		Model: ModelConfig{
			MeanInterarrival: 3.0,
			ScanTime:         0.33,
			Arrivals:         40,
			MaxItems:         20,
			LossEvery:        3,
			Seed:             1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds a Config. path may be empty, in which case no YAML file is
// read. A .env file in the working directory is loaded when present;
// variables already set in the environment win over it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix})
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}

// Validate checks that the settings describe a runnable simulation.
func (c Config) Validate() error {
	var errs []error

	if c.Model.MeanInterarrival <= 0 {
		errs = append(errs, errors.New("model.mean_interarrival must be positive"))
	}

	if c.Model.ScanTime <= 0 {
		errs = append(errs, errors.New("model.scan_time must be positive"))
	}

	if c.Model.Arrivals < 1 {
		errs = append(errs, errors.New("model.arrivals must be at least 1"))
	}

	if c.Model.MaxItems < 1 {
		errs = append(errs, errors.New("model.max_items must be at least 1"))
	}

	if c.Model.LossEvery < 1 {
		errs = append(errs, errors.New("model.loss_every must be at least 1"))
	}

	if c.Engine.MaxPending < 0 {
		errs = append(errs, errors.New("engine.max_pending must not be negative"))
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		errs = append(errs, fmt.Errorf("monitor.port %d out of range", c.Monitor.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}
