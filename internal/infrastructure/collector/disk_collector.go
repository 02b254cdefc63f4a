package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/disk"
)

// DiskCollector собирает метрики дисков
type DiskCollector struct {
	mount string
}

// NewDiskCollector создает новый Disk collector для точки монтирования
func NewDiskCollector(mount string) *DiskCollector {
	if mount == "" {
		mount = "/"
	}
	return &DiskCollector{mount: mount}
}

// Collect возвращает процент занятого места и свободное место в GB
func (c *DiskCollector) Collect(ctx context.Context) (float64, uint64, error) {
	usage, err := disk.UsageWithContext(ctx, c.mount)
	if err != nil {
		return 0, 0, err
	}

	return usage.UsedPercent, usage.Free / 1024 / 1024 / 1024, nil
}
