package resource

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemSampler reads host memory and CPU utilization via gopsutil.
type SystemSampler struct{}

// NewSystemSampler creates a sampler backed by OS introspection.
func NewSystemSampler() *SystemSampler {
	return &SystemSampler{}
}

// Sample implements Sampler. CPU utilization is measured since the
// previous call (gopsutil interval 0), so the first sample reports 0.
func (s *SystemSampler) Sample(ctx context.Context) (Usage, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Usage{}, fmt.Errorf("resource: sample memory: %w", err)
	}

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return Usage{}, fmt.Errorf("resource: sample cpu: %w", err)
	}

	usage := Usage{MemoryPercent: vm.UsedPercent}
	if len(percents) > 0 {
		usage.CPUPercent = percents[0]
	}

	return usage, nil
}
