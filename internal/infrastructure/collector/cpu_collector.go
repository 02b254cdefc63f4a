package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUCollector собирает метрики CPU
type CPUCollector struct{}

// NewCPUCollector создает новый CPU collector
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{}
}

// Collect возвращает загрузку CPU с момента предыдущего вызова и число ядер
func (c *CPUCollector) Collect(ctx context.Context) (float64, int, error) {
	// Интервал 0: сравнение с предыдущим вызовом, без блокировки запроса
	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, 0, err
	}

	counts, _ := cpu.CountsWithContext(ctx, true)

	if len(percentages) == 0 {
		return 0, counts, nil
	}
	return percentages[0], counts, nil
}
