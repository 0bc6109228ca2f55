package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AnatoleLucet/reflow/internal/queues"
)

var ErrInvalid = errors.New("invalid config")

// Config is the configuration of the reflow command.
type Config struct {
	// Lease is how long an observation read inside a recording stays bound
	// without listeners of its own.
	Lease time.Duration `yaml:"lease"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Bench   BenchConfig   `yaml:"bench"`
}

type LogConfig struct {
	// Level is a zap level: debug, info, warn or error.
	Level string `yaml:"level"`

	// Development switches to the human readable zap encoder.
	Development bool `yaml:"development"`

	// Tasks lists the queues whose tasks are logged at debug level.
	Tasks []string `yaml:"tasks"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`

	// Addr serves /metrics when set, for example ":9090".
	Addr string `yaml:"addr"`
}

// BenchConfig shapes the synthetic graph the bench command drives.
type BenchConfig struct {
	// Shape is "chain", "fan" or "diamond".
	Shape      string `yaml:"shape"`
	Width      int    `yaml:"width"`
	Depth      int    `yaml:"depth"`
	Iterations int    `yaml:"iterations"`
}

var shapes = []string{"chain", "fan", "diamond"}

func Default() Config {
	return Config{
		Lease: 10 * time.Millisecond,
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Namespace: "reflow",
		},
		Bench: BenchConfig{
			Shape:      "diamond",
			Width:      8,
			Depth:      4,
			Iterations: 1000,
		},
	}
}

// Load overlays the file at path, then the environment, on the defaults.
// An empty path or a missing file keeps the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return Parse(data, cfg)
}

// Parse decodes YAML into cfg, keeping the fields data does not set.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("REFLOW_LEASE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Lease = d
		}
	}
	if v := os.Getenv("REFLOW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REFLOW_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("REFLOW_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("REFLOW_BENCH_ITERATIONS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Bench.Iterations = i
		}
	}
}

func (c Config) Validate() error {
	if c.Lease <= 0 {
		return fmt.Errorf("%w: lease must be > 0", ErrInvalid)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	for _, queue := range c.Log.Tasks {
		if !queues.IsQueueName(queue) {
			return fmt.Errorf("%w: unknown queue %q", ErrInvalid, queue)
		}
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("%w: metrics namespace is required", ErrInvalid)
	}
	if !slices.Contains(shapes, c.Bench.Shape) {
		return fmt.Errorf("%w: unknown bench shape %q", ErrInvalid, c.Bench.Shape)
	}
	if c.Bench.Width < 1 || c.Bench.Depth < 1 {
		return fmt.Errorf("%w: bench width and depth must be >= 1", ErrInvalid)
	}
	if c.Bench.Iterations < 1 {
		return fmt.Errorf("%w: bench iterations must be >= 1", ErrInvalid)
	}
	return nil
}
