package port

import (
	"context"

	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
)

// HealthProbe снимает сырые метрики здоровья системы (Port)
type HealthProbe interface {
	Probe(ctx context.Context) (entity.HealthMetrics, error)
}

// HealthObserver получает snapshot'ы монитора. Вызывается синхронно из цикла опроса
type HealthObserver func(snapshot *entity.HealthSnapshot)

// ErrorRateReader отдает процент ответов 5xx за скользящее окно
type ErrorRateReader interface {
	ErrorRate() float64
}
