package port

import "github.com/dreschagin/recycling-dashboard/internal/application/dto"

// NotificationService определяет интерфейс для отправки уведомлений (Port)
// Реализация будет в Infrastructure слое (WebSocket Hub)
type NotificationService interface {
	// Broadcast отправляет snapshot здоровья всем подключенным клиентам
	Broadcast(snapshot *dto.HealthSnapshotDTO)

	// BroadcastAlert отправляет alert всем подключенным клиентам
	BroadcastAlert(alert *dto.AlertDTO)

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int
}
