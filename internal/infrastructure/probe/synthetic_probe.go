package probe

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
)

// SyntheticHealthProbe генерирует правдоподобные метрики для демо-режима
type SyntheticHealthProbe struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSyntheticHealthProbe создает probe; seed 0 означает текущее время
func NewSyntheticHealthProbe(seed int64) *SyntheticHealthProbe {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticHealthProbe{rnd: rand.New(rand.NewSource(seed))}
}

// Probe реализует port.HealthProbe
func (p *SyntheticHealthProbe) Probe(ctx context.Context) (entity.HealthMetrics, error) {
	if err := ctx.Err(); err != nil {
		return entity.HealthMetrics{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return entity.HealthMetrics{
		ResponseTime: 50 + p.rnd.Float64()*250,
		ActiveUsers:  int64(20 + p.rnd.Intn(130)),
		ErrorRate:    p.rnd.Float64() * 2,
		MemoryUsage:  40 + p.rnd.Float64()*50,
	}, nil
}
