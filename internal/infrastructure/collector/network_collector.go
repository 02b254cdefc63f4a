package collector

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/net"
)

// NetworkCollector собирает скорость сети в KB/s между вызовами
type NetworkCollector struct {
	mu            sync.Mutex
	lastStat      *net.IOCountersStat
	lastCheckTime time.Time
}

// NewNetworkCollector создает новый Network collector
func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{}
}

// Collect возвращает скорость отправки и приема. Первый вызов дает нули.
func (c *NetworkCollector) Collect(ctx context.Context) (float64, float64, error) {
	stats, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return 0, 0, err
	}
	if len(stats) == 0 {
		return 0, 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	currentTime := time.Now()
	currentStat := stats[0]

	var sentPerSec, recvPerSec float64
	if c.lastStat != nil {
		duration := currentTime.Sub(c.lastCheckTime).Seconds()
		if duration > 0 && currentStat.BytesSent >= c.lastStat.BytesSent && currentStat.BytesRecv >= c.lastStat.BytesRecv {
			sentPerSec = float64(currentStat.BytesSent-c.lastStat.BytesSent) / duration / 1024
			recvPerSec = float64(currentStat.BytesRecv-c.lastStat.BytesRecv) / duration / 1024
		}
	}

	c.lastStat = &currentStat
	c.lastCheckTime = currentTime

	return sentPerSec, recvPerSec, nil
}
