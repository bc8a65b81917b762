package batchflow

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ResourceConfig controls admission throttling. Throttling is best-effort
// and fail-open; it is disabled by default because the engine is correct
// without it.
type ResourceConfig struct {
	// Enabled turns admission throttling on.
	Enabled bool `yaml:"enabled"`

	// MaxMemoryPercent is the memory ceiling; admission pauses above it.
	MaxMemoryPercent float64 `yaml:"max_memory_percent"`

	// MaxCPUPercent is the CPU ceiling. 100 disables the CPU check.
	MaxCPUPercent float64 `yaml:"max_cpu_percent"`
}

// Config holds configuration for the Registry.
type Config struct {
	// QueueCapacity is the intake buffer size for submitted batches.
	// Submissions beyond it are rejected with ErrQueueFull rather than
	// blocking the submitter.
	QueueCapacity int `yaml:"queue_capacity"`

	// MaxConcurrentBatches is the number of batch runners consuming the
	// intake queue, i.e. how many batches execute at once. Per-item
	// concurrency within a batch is governed by its own MaxWorkers.
	MaxConcurrentBatches int `yaml:"max_concurrent_batches"`

	// ShutdownTimeout is the maximum time Stop waits for running batches.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AdmissionInterval is the wait between admission re-checks while the
	// resource monitor reports pressure.
	AdmissionInterval time.Duration `yaml:"admission_interval"`

	// AttemptTimeout bounds a single processor call; zero means unbounded.
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// CleanupInterval drives the background janitor that purges old
	// terminal batches. Zero disables the janitor; Cleanup can still be
	// called manually.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	// CleanupMaxAge is how long terminal batches are retained before the
	// janitor purges them.
	CleanupMaxAge time.Duration `yaml:"cleanup_max_age"`

	// Resource configures admission throttling.
	Resource ResourceConfig `yaml:"resource"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueueCapacity:        64,
		MaxConcurrentBatches: 4,
		ShutdownTimeout:      30 * time.Second,
		AdmissionInterval:    500 * time.Millisecond,
		CleanupMaxAge:        time.Hour,
		Resource: ResourceConfig{
			Enabled:          false,
			MaxMemoryPercent: 80,
			MaxCPUPercent:    90,
		},
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("batchflow: read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("batchflow: parse config %s: %w", path, err)
	}

	return cfg, nil
}
