package port

import (
	"context"

	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
)

// HealthMetricsPublisher defines the interface for publishing health snapshots
// to external observability platforms.
type HealthMetricsPublisher interface {
	// PublishSnapshot buffers the snapshot's metrics for publication.
	PublishSnapshot(ctx context.Context, snapshot *entity.HealthSnapshot) error

	// Flush forces immediate publication of any buffered metrics.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
