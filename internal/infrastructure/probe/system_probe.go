package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
)

const activeUsersWindow = 15 * time.Minute

// SystemHealthProbe снимает метрики здоровья с работающего сервиса:
// latency ping'а хранилища, активных пользователей, долю 5xx и память хоста.
type SystemHealthProbe struct {
	repo      repository.RecyclingRepository
	host      port.HostCollector
	errorRate port.ErrorRateReader
	now       func() time.Time
}

// NewSystemHealthProbe создает probe; errorRate необязателен
func NewSystemHealthProbe(
	repo repository.RecyclingRepository,
	host port.HostCollector,
	errorRate port.ErrorRateReader,
) *SystemHealthProbe {
	return &SystemHealthProbe{
		repo:      repo,
		host:      host,
		errorRate: errorRate,
		now:       time.Now,
	}
}

// Probe реализует port.HealthProbe
func (p *SystemHealthProbe) Probe(ctx context.Context) (entity.HealthMetrics, error) {
	started := p.now()
	if err := p.repo.Ping(ctx); err != nil {
		return entity.HealthMetrics{}, fmt.Errorf("data store unavailable: %w", err)
	}
	responseTime := float64(p.now().Sub(started).Microseconds()) / 1000

	active, err := p.repo.CountActiveProfiles(ctx, p.now().Add(-activeUsersWindow))
	if err != nil {
		return entity.HealthMetrics{}, fmt.Errorf("failed to count active users: %w", err)
	}

	memory, err := p.host.MemoryUsedPercent(ctx)
	if err != nil {
		return entity.HealthMetrics{}, err
	}

	var errorRate float64
	if p.errorRate != nil {
		errorRate = p.errorRate.ErrorRate()
	}

	return entity.HealthMetrics{
		ResponseTime: responseTime,
		ActiveUsers:  active,
		ErrorRate:    errorRate,
		MemoryUsage:  memory,
	}, nil
}
