package collector

import (
	"context"
	"fmt"
	"sync"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
)

// SystemMetricsCollector собирает показатели хоста
// Реализует интерфейс port.HostCollector
type SystemMetricsCollector struct {
	cpuCollector     *CPUCollector
	memoryCollector  *MemoryCollector
	diskCollector    *DiskCollector
	networkCollector *NetworkCollector
}

// NewSystemMetricsCollector создает новый системный collector
func NewSystemMetricsCollector(diskMount string) *SystemMetricsCollector {
	return &SystemMetricsCollector{
		cpuCollector:     NewCPUCollector(),
		memoryCollector:  NewMemoryCollector(),
		diskCollector:    NewDiskCollector(diskMount),
		networkCollector: NewNetworkCollector(),
	}
}

// CollectAll собирает все показатели параллельно.
// Ошибка памяти фатальна; CPU, диск и сеть при ошибке остаются нулевыми.
func (c *SystemMetricsCollector) CollectAll(ctx context.Context) (port.HostStats, error) {
	var (
		wg        sync.WaitGroup
		stats     port.HostStats
		memErr    error
		memStats  MemoryStats
		diskFree  uint64
		diskUsage float64
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		stats.CPUPercent, stats.CPUCores, _ = c.cpuCollector.Collect(ctx)
	}()
	go func() {
		defer wg.Done()
		memStats, memErr = c.memoryCollector.Collect(ctx)
	}()
	go func() {
		defer wg.Done()
		diskUsage, diskFree, _ = c.diskCollector.Collect(ctx)
	}()
	go func() {
		defer wg.Done()
		stats.NetworkSentKBps, stats.NetworkRecvKBps, _ = c.networkCollector.Collect(ctx)
	}()
	wg.Wait()

	if memErr != nil {
		return port.HostStats{}, fmt.Errorf("failed to collect memory stats: %w", memErr)
	}

	stats.MemoryPercent = memStats.UsedPercent
	stats.MemoryUsedMB = memStats.UsedMB
	stats.MemoryTotalMB = memStats.TotalMB
	stats.DiskPercent = diskUsage
	stats.DiskFreeGB = diskFree

	return stats, nil
}

// MemoryUsedPercent возвращает процент использования памяти
func (c *SystemMetricsCollector) MemoryUsedPercent(ctx context.Context) (float64, error) {
	memStats, err := c.memoryCollector.Collect(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to collect memory stats: %w", err)
	}
	return memStats.UsedPercent, nil
}
