// Package resource provides best-effort admission throttling based on host
// resource pressure. The Monitor answers a single question — "may I admit
// more work now?" — and always fails open: a sampling error must never
// stall the pipeline. Throttling is a load-shedding aid, not a correctness
// mechanism.
package resource

import (
	"context"
	"log/slog"
)

// Default ceilings, as a percentage of total capacity.
const (
	DefaultMaxMemoryPercent = 80.0
	DefaultMaxCPUPercent    = 90.0
)

// Usage is one sample of host resource utilization.
type Usage struct {
	// MemoryPercent is used physical memory as a percentage of total.
	MemoryPercent float64
	// CPUPercent is aggregate CPU utilization as a percentage.
	CPUPercent float64
}

// Sampler produces resource usage samples. Implementations must be safe
// for concurrent use.
type Sampler interface {
	Sample(ctx context.Context) (Usage, error)
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func(ctx context.Context) (Usage, error)

// Sample implements Sampler.
func (f SamplerFunc) Sample(ctx context.Context) (Usage, error) { return f(ctx) }

// Monitor gates admission of new work items on resource pressure.
type Monitor struct {
	sampler          Sampler
	maxMemoryPercent float64
	maxCPUPercent    float64
	enabled          bool
	logger           *slog.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSampler sets the usage sampler. Defaults to the gopsutil-backed
// system sampler.
func WithSampler(s Sampler) Option {
	return func(m *Monitor) { m.sampler = s }
}

// WithMaxMemoryPercent sets the memory ceiling. Admission is denied while
// used memory exceeds this percentage.
func WithMaxMemoryPercent(pct float64) Option {
	return func(m *Monitor) { m.maxMemoryPercent = pct }
}

// WithMaxCPUPercent sets the CPU ceiling. A value of 100 disables the CPU
// check entirely (treated as "no limit").
func WithMaxCPUPercent(pct float64) Option {
	return func(m *Monitor) { m.maxCPUPercent = pct }
}

// WithEnabled toggles the monitor. A disabled monitor admits everything
// without sampling.
func WithEnabled(enabled bool) Option {
	return func(m *Monitor) { m.enabled = enabled }
}

// WithLogger sets the structured logger for the monitor.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// NewMonitor creates a Monitor with the given options. Defaults: system
// sampler, 80% memory ceiling, 90% CPU ceiling, enabled.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		sampler:          NewSystemSampler(),
		maxMemoryPercent: DefaultMaxMemoryPercent,
		maxCPUPercent:    DefaultMaxCPUPercent,
		enabled:          true,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckAdmission reports whether new work may be admitted now.
//
// Memory is checked against its ceiling unconditionally; CPU only when its
// ceiling is below 100. On any sampling failure the monitor fails open and
// admits the work.
func (m *Monitor) CheckAdmission(ctx context.Context) bool {
	if !m.enabled {
		return true
	}

	usage, err := m.sampler.Sample(ctx)
	if err != nil {
		m.logger.Warn("resource sample failed, admitting work",
			slog.String("error", err.Error()),
		)
		return true
	}

	if usage.MemoryPercent > m.maxMemoryPercent {
		m.logger.Debug("admission denied: memory pressure",
			slog.Float64("memory_percent", usage.MemoryPercent),
			slog.Float64("ceiling", m.maxMemoryPercent),
		)
		return false
	}

	if m.maxCPUPercent < 100 && usage.CPUPercent > m.maxCPUPercent {
		m.logger.Debug("admission denied: cpu pressure",
			slog.Float64("cpu_percent", usage.CPUPercent),
			slog.Float64("ceiling", m.maxCPUPercent),
		)
		return false
	}

	return true
}
