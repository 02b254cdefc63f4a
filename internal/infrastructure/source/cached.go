package source

import (
	"context"
	"errors"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/cache/redis"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

// CachedSource кеширует snapshot'ы вложенного источника.
// Ошибки кеша не влияют на результат: при любой проблеме идем в источник.
type CachedSource struct {
	next   port.MetricSource
	cache  port.Cache
	ttl    time.Duration
	bucket time.Duration
	now    Clock
	logger *logger.Logger
}

// NewCachedSource оборачивает источник кешем
func NewCachedSource(next port.MetricSource, cache port.Cache, ttl time.Duration, logger *logger.Logger) *CachedSource {
	bucket := ttl
	if bucket <= 0 {
		bucket = time.Minute
	}
	return &CachedSource{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		bucket: bucket,
		now:    time.Now,
		logger: logger,
	}
}

func (s *CachedSource) Type() valueobject.ReportType {
	return s.next.Type()
}

func (s *CachedSource) Fetch(ctx context.Context, dateRangeDays int) (snapshot.Value, error) {
	key := redis.GenerateCacheKey(s.Type().String(), dateRangeDays, s.now(), s.bucket)

	var cached snapshot.Value
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		s.logger.Debug("Cache hit for source snapshot", "source", s.Type().String())
		return cached, nil
	}
	if !errors.Is(err, port.ErrCacheMiss) {
		s.logger.Warn("Source cache read failed", "source", s.Type().String(), "error", err.Error())
	}

	value, err := s.next.Fetch(ctx, dateRangeDays)
	if err != nil {
		return snapshot.Value{}, err
	}

	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("Failed to cache source snapshot", "source", s.Type().String(), "error", err.Error())
	}

	return value, nil
}
