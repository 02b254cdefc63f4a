package usecase

import (
	"context"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/dto"
	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

const relayPublishTimeout = 3 * time.Second

// HealthSnapshotRelay - observer монитора здоровья, рассылающий snapshot'ы
// клиентам WebSocket, в CloudWatch, NATS и Prometheus.
// Все получатели кроме notifier необязательны.
type HealthSnapshotRelay struct {
	notifier  port.NotificationService
	publisher port.HealthMetricsPublisher
	events    port.EventPublisher
	gauges    port.HealthGauges
	logger    *logger.Logger
}

// NewHealthSnapshotRelay создает новый relay
func NewHealthSnapshotRelay(
	notifier port.NotificationService,
	publisher port.HealthMetricsPublisher,
	events port.EventPublisher,
	gauges port.HealthGauges,
	logger *logger.Logger,
) *HealthSnapshotRelay {
	return &HealthSnapshotRelay{
		notifier:  notifier,
		publisher: publisher,
		events:    events,
		gauges:    gauges,
		logger:    logger,
	}
}

// Observe принимает snapshot. Сигнатура совпадает с port.HealthObserver
func (r *HealthSnapshotRelay) Observe(snapshot *entity.HealthSnapshot) {
	if snapshot == nil {
		return
	}

	if r.gauges != nil {
		r.gauges.RecordHealthSnapshot(snapshot)
	}

	payload := dto.FromHealthSnapshot(snapshot)

	if r.notifier != nil {
		r.notifier.Broadcast(payload)
		for _, alert := range payload.Alerts {
			r.notifier.BroadcastAlert(alert)
		}
		r.logger.Debug("Health snapshot broadcasted", "client_count", r.notifier.ClientCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), relayPublishTimeout)
	defer cancel()

	if r.publisher != nil {
		if err := r.publisher.PublishSnapshot(ctx, snapshot); err != nil {
			r.logger.Warn("Failed to publish health metrics", "error", err.Error())
		}
	}

	if r.events != nil && snapshot.HasAlerts() {
		event := dto.HealthAlertEvent{
			Timestamp: payload.Timestamp,
			Status:    payload.Status,
			Alerts:    payload.Alerts,
		}
		if err := r.events.PublishEvent(ctx, port.SubjectHealthAlerts, event); err != nil {
			r.logger.Warn("Failed to publish health alert event", "error", err.Error())
		}
	}
}
