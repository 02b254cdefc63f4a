package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/dto"
	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/service"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

type recordingNotifier struct {
	snapshots []*dto.HealthSnapshotDTO
	alerts    []*dto.AlertDTO
}

func (n *recordingNotifier) Broadcast(snapshot *dto.HealthSnapshotDTO) {
	n.snapshots = append(n.snapshots, snapshot)
}

func (n *recordingNotifier) BroadcastAlert(alert *dto.AlertDTO) {
	n.alerts = append(n.alerts, alert)
}

func (n *recordingNotifier) ClientCount() int { return len(n.snapshots) }

type recordingPublisher struct {
	published int
	err       error
}

func (p *recordingPublisher) PublishSnapshot(context.Context, *entity.HealthSnapshot) error {
	p.published++
	return p.err
}

func (p *recordingPublisher) Flush(context.Context) error { return nil }

type recordingGauges struct {
	recorded int
}

func (g *recordingGauges) RecordHealthSnapshot(*entity.HealthSnapshot) { g.recorded++ }

func TestHealthSnapshotRelay_FansOut(t *testing.T) {
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	events := &recordingEvents{}
	gauges := &recordingGauges{}

	relay := NewHealthSnapshotRelay(notifier, publisher, events, gauges, logger.New("error"))

	evaluator := service.NewHealthEvaluator()
	at := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	relay.Observe(evaluator.Evaluate(at, entity.HealthMetrics{ResponseTime: 100}))
	relay.Observe(evaluator.Evaluate(at, entity.HealthMetrics{ResponseTime: 600, MemoryUsage: 85}))

	if len(notifier.snapshots) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(notifier.snapshots))
	}
	if len(notifier.alerts) != 2 {
		t.Fatalf("expected 2 alert broadcasts, got %d", len(notifier.alerts))
	}
	if publisher.published != 2 || gauges.recorded != 2 {
		t.Fatalf("published=%d recorded=%d", publisher.published, gauges.recorded)
	}

	// событие публикуется только для snapshot'а с алертами
	if len(events.subjects) != 1 || events.subjects[0] != port.SubjectHealthAlerts {
		t.Fatalf("unexpected events %v", events.subjects)
	}
	event, ok := events.events[0].(dto.HealthAlertEvent)
	if !ok || event.Status != "error" || len(event.Alerts) != 2 {
		t.Fatalf("unexpected alert event %#v", events.events[0])
	}
}

func TestHealthSnapshotRelay_OptionalSinks(t *testing.T) {
	notifier := &recordingNotifier{}
	relay := NewHealthSnapshotRelay(notifier, nil, nil, nil, logger.New("error"))

	relay.Observe(nil)
	relay.Observe(service.NewHealthEvaluator().Degraded(time.Now(), errors.New("timeout")))

	if len(notifier.snapshots) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(notifier.snapshots))
	}
}

func TestHealthSnapshotRelay_PublisherErrorsDoNotStopFanOut(t *testing.T) {
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{err: errors.New("cloudwatch throttled")}
	events := &recordingEvents{err: errors.New("nats down")}

	relay := NewHealthSnapshotRelay(notifier, publisher, events, nil, logger.New("error"))
	relay.Observe(service.NewHealthEvaluator().Evaluate(time.Now(), entity.HealthMetrics{ErrorRate: 10}))

	if len(notifier.snapshots) != 1 || publisher.published != 1 || len(events.subjects) != 1 {
		t.Fatalf("fan-out interrupted: broadcasts=%d published=%d events=%d",
			len(notifier.snapshots), publisher.published, len(events.subjects))
	}
}
