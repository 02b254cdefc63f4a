package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/service"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

const (
	DefaultInterval     = 30 * time.Second
	defaultProbeTimeout = 5 * time.Second
)

// ErrNilObserver возвращается при попытке запустить монитор без observer'а
var ErrNilObserver = errors.New("health observer is required")

// Config задает параметры опроса
type Config struct {
	Interval     time.Duration
	ProbeTimeout time.Duration
}

// Status - состояние монитора для API
type Status struct {
	Running      bool
	StartedAt    time.Time
	Interval     time.Duration
	LastRunAt    time.Time
	LastError    string
	LastSnapshot *entity.HealthSnapshot
}

// HealthMonitor периодически опрашивает HealthProbe и доставляет snapshot'ы
// единственному зарегистрированному observer'у.
//
// Состояния: Stopped и Running. Observer вызывается синхронно из goroutine
// опроса и не должен вызывать Stop напрямую: Stop ждет завершения этой goroutine.
type HealthMonitor struct {
	probe        port.HealthProbe
	evaluator    *service.HealthEvaluator
	log          *logger.Logger
	interval     time.Duration
	probeTimeout time.Duration

	lifecycleMu sync.Mutex

	mu           sync.RWMutex
	observer     port.HealthObserver
	cancel       context.CancelFunc
	done         chan struct{}
	startedAt    time.Time
	lastRunAt    time.Time
	lastError    string
	lastSnapshot *entity.HealthSnapshot
}

// New создает монитор в состоянии Stopped
func New(probe port.HealthProbe, evaluator *service.HealthEvaluator, cfg Config, log *logger.Logger) *HealthMonitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if evaluator == nil {
		evaluator = service.NewHealthEvaluator()
	}

	return &HealthMonitor{
		probe:        probe,
		evaluator:    evaluator,
		log:          log,
		interval:     cfg.Interval,
		probeTimeout: cfg.ProbeTimeout,
	}
}

// Start регистрирует observer и запускает опрос.
// Если монитор уже запущен, observer атомарно заменяется, второй таймер не создается.
func (m *HealthMonitor) Start(observer port.HealthObserver) error {
	if observer == nil {
		return ErrNilObserver
	}

	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	m.mu.Lock()
	m.observer = observer
	if m.cancel != nil {
		m.mu.Unlock()
		m.log.Debug("Health monitor observer replaced")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.startedAt = time.Now()
	m.mu.Unlock()

	go m.run(ctx, done)

	m.log.Info("Health monitor started", "interval", m.interval.String())
	return nil
}

// Stop останавливает опрос и снимает observer. Повторный вызов ничего не делает.
// После возврата из Stop доставок больше не будет.
func (m *HealthMonitor) Stop() {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.done = nil
	m.observer = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	m.log.Info("Health monitor stopped")
}

// Running сообщает, запущен ли опрос
func (m *HealthMonitor) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cancel != nil
}

// Check выполняет один опрос и возвращает snapshot, не доставляя его observer'у.
// Ошибка probe превращается в деградированный snapshot.
func (m *HealthMonitor) Check(ctx context.Context) *entity.HealthSnapshot {
	runAt, snapshot, err := m.probeOnce(ctx)
	m.record(runAt, snapshot, err)
	return snapshot
}

func (m *HealthMonitor) probeOnce(ctx context.Context) (time.Time, *entity.HealthSnapshot, error) {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	metrics, err := m.probe.Probe(probeCtx)
	runAt := time.Now()

	if err != nil {
		return runAt, m.evaluator.Degraded(runAt, err), err
	}
	return runAt, m.evaluator.Evaluate(runAt, metrics), nil
}

// Status возвращает копию состояния монитора
func (m *HealthMonitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Status{
		Running:      m.cancel != nil,
		StartedAt:    m.startedAt,
		Interval:     m.interval,
		LastRunAt:    m.lastRunAt,
		LastError:    m.lastError,
		LastSnapshot: m.lastSnapshot,
	}
}

func (m *HealthMonitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *HealthMonitor) tick(ctx context.Context) {
	runAt, snapshot, err := m.probeOnce(ctx)
	// опрос, прерванный Stop, не попадает ни в статус, ни к observer'у
	if ctx.Err() != nil {
		return
	}
	m.record(runAt, snapshot, err)

	if snapshot.HasAlerts() {
		m.log.Warn("Health check raised alerts",
			"status", snapshot.Status().String(),
			"alerts", len(snapshot.Alerts()),
		)
	}

	m.mu.RLock()
	observer := m.observer
	m.mu.RUnlock()

	if observer == nil {
		return
	}
	observer(snapshot)
}

func (m *HealthMonitor) record(runAt time.Time, snapshot *entity.HealthSnapshot, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastRunAt = runAt
	m.lastSnapshot = snapshot
	if err != nil {
		m.lastError = err.Error()
	} else {
		m.lastError = ""
	}
}
