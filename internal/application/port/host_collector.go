package port

import "context"

// HostStats - показатели хоста, на котором работает сервис
type HostStats struct {
	CPUPercent      float64
	CPUCores        int
	MemoryPercent   float64
	MemoryUsedMB    uint64
	MemoryTotalMB   uint64
	DiskPercent     float64
	DiskFreeGB      uint64
	NetworkSentKBps float64
	NetworkRecvKBps float64
}

// HostCollector собирает показатели хоста (Port)
// Реализация будет в Infrastructure слое
type HostCollector interface {
	// CollectAll собирает все доступные показатели
	CollectAll(ctx context.Context) (HostStats, error)

	// MemoryUsedPercent возвращает процент использования памяти
	MemoryUsedPercent(ctx context.Context) (float64, error)
}
