package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryStats - использование оперативной памяти
type MemoryStats struct {
	UsedPercent float64
	UsedMB      uint64
	TotalMB     uint64
}

// MemoryCollector собирает метрики памяти
type MemoryCollector struct{}

// NewMemoryCollector создает новый Memory collector
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Collect собирает Memory метрики
func (c *MemoryCollector) Collect(ctx context.Context) (MemoryStats, error) {
	vmStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStats{}, err
	}

	return MemoryStats{
		UsedPercent: vmStat.UsedPercent,
		UsedMB:      vmStat.Used / 1024 / 1024,
		TotalMB:     vmStat.Total / 1024 / 1024,
	}, nil
}
