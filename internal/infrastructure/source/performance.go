package source

import (
	"context"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// PerformanceSource - операционные показатели доставки, загрузка пунктов
// приема и состояние хоста. Срез на текущий момент.
type PerformanceSource struct {
	repo repository.RecyclingRepository
	host port.HostCollector
}

// NewPerformanceSource создает источник performance; host необязателен
func NewPerformanceSource(repo repository.RecyclingRepository, host port.HostCollector) *PerformanceSource {
	return &PerformanceSource{repo: repo, host: host}
}

func (s *PerformanceSource) Type() valueobject.ReportType {
	return valueobject.Performance
}

func (s *PerformanceSource) Fetch(ctx context.Context, _ int) (snapshot.Value, error) {
	deliveries, err := s.repo.DeliveryStats(ctx)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}
	centers, err := s.repo.CenterLoads(ctx)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}

	utilization := make([]snapshot.Value, 0, len(centers))
	for _, c := range centers {
		utilization = append(utilization, snapshot.Map(
			snapshot.F("center", snapshot.String(c.Name)),
			snapshot.F("capacity", snapshot.Float(round2(c.Capacity))),
			snapshot.F("currentLoad", snapshot.Float(round2(c.CurrentLoad))),
			snapshot.F("utilization", snapshot.Float(percent(c.CurrentLoad, c.Capacity))),
		))
	}

	fields := []snapshot.Field{
		snapshot.F("totalDeliveries", snapshot.Int(deliveries.Total)),
		snapshot.F("averagePickupTime", snapshot.Float(round2(deliveries.AvgPickupHours))),
		snapshot.F("averageProcessingTime", snapshot.Float(round2(deliveries.AvgProcessingHours))),
		snapshot.F("onTimeDeliveryRate", snapshot.Float(round2(deliveries.OnTimeRate))),
		snapshot.F("centerUtilization", snapshot.Seq(utilization...)),
	}

	if s.host != nil {
		stats, err := s.host.CollectAll(ctx)
		if err != nil {
			return snapshot.Value{}, fetchError(s.Type(), err)
		}
		fields = append(fields, snapshot.F("host", snapshot.Map(
			snapshot.F("cpuUsage", snapshot.Float(round2(stats.CPUPercent))),
			snapshot.F("cpuCores", snapshot.Int(int64(stats.CPUCores))),
			snapshot.F("memoryUsage", snapshot.Float(round2(stats.MemoryPercent))),
			snapshot.F("memoryUsedMb", snapshot.Int(int64(stats.MemoryUsedMB))),
			snapshot.F("diskUsage", snapshot.Float(round2(stats.DiskPercent))),
			snapshot.F("networkSentKbps", snapshot.Float(round2(stats.NetworkSentKBps))),
			snapshot.F("networkRecvKbps", snapshot.Float(round2(stats.NetworkRecvKBps))),
		)))
	}

	return snapshot.Map(fields...), nil
}
