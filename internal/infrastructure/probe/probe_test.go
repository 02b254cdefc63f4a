package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/persistence/synthetic"
)

type fixedHost struct {
	memory float64
	err    error
}

func (h fixedHost) CollectAll(context.Context) (port.HostStats, error) {
	return port.HostStats{MemoryPercent: h.memory}, h.err
}

func (h fixedHost) MemoryUsedPercent(context.Context) (float64, error) { return h.memory, h.err }

type fixedErrorRate float64

func (r fixedErrorRate) ErrorRate() float64 { return float64(r) }

type downRepository struct {
	*synthetic.RecyclingRepository
}

func (downRepository) Ping(context.Context) error { return errors.New("connection refused") }

func TestSyntheticHealthProbe(t *testing.T) {
	p := NewSyntheticHealthProbe(3)

	for i := 0; i < 20; i++ {
		metrics, err := p.Probe(context.Background())
		if err != nil {
			t.Fatalf("Probe() error = %v", err)
		}
		if metrics.ResponseTime < 50 || metrics.ResponseTime > 300 ||
			metrics.MemoryUsage < 40 || metrics.MemoryUsage > 90 ||
			metrics.ErrorRate < 0 || metrics.ErrorRate > 2 ||
			metrics.ActiveUsers < 20 || metrics.ActiveUsers >= 150 {
			t.Fatalf("metrics out of range: %+v", metrics)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Probe(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSystemHealthProbe(t *testing.T) {
	p := NewSystemHealthProbe(synthetic.NewRecyclingRepository(5), fixedHost{memory: 63.5}, fixedErrorRate(1.25))

	metrics, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if metrics.MemoryUsage != 63.5 || metrics.ErrorRate != 1.25 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
	if metrics.ActiveUsers < 40 || metrics.ActiveUsers > 120 {
		t.Fatalf("expected short-window active users, got %d", metrics.ActiveUsers)
	}
	if metrics.ResponseTime < 0 {
		t.Fatalf("negative response time %v", metrics.ResponseTime)
	}
}

func TestSystemHealthProbe_Failures(t *testing.T) {
	repo := synthetic.NewRecyclingRepository(5)

	down := NewSystemHealthProbe(downRepository{repo}, fixedHost{}, nil)
	if _, err := down.Probe(context.Background()); err == nil {
		t.Fatal("expected ping failure")
	}

	hostErr := errors.New("procfs unavailable")
	noHost := NewSystemHealthProbe(repo, fixedHost{err: hostErr}, nil)
	if _, err := noHost.Probe(context.Background()); !errors.Is(err, hostErr) {
		t.Fatalf("expected host error, got %v", err)
	}
}

func TestSystemHealthProbe_MeasuresPingLatency(t *testing.T) {
	p := NewSystemHealthProbe(synthetic.NewRecyclingRepository(5), fixedHost{}, nil)

	calls := 0
	base := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(150 * time.Millisecond)
	}

	metrics, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if metrics.ResponseTime != 150 {
		t.Fatalf("expected 150ms, got %v", metrics.ResponseTime)
	}
}
