// Package bootstrap собирает инфраструктурные зависимости из конфигурации.
// Используется и HTTP сервером, и CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
	rediscache "github.com/dreschagin/recycling-dashboard/internal/infrastructure/cache/redis"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/collector"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/persistence/postgres"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/persistence/synthetic"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/probe"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/source"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/storage/filesystem"
	s3storage "github.com/dreschagin/recycling-dashboard/internal/infrastructure/storage/s3"
	"github.com/dreschagin/recycling-dashboard/pkg/config"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"

	_ "github.com/lib/pq"
)

// Cleanup освобождает ресурс, созданный при сборке
type Cleanup func()

func noop() {}

// OpenRepository возвращает источник данных платформы по DATA_SOURCE
func OpenRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.RecyclingRepository, Cleanup, error) {
	if cfg.DataSource.Mode == config.DataSourceSynthetic {
		seed := cfg.DataSource.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		log.Info("Using synthetic data source", "seed", seed)
		return synthetic.NewRecyclingRepository(seed), noop, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, noop, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connected successfully", "host", cfg.Database.Host, "database", cfg.Database.Database)
	return postgres.NewPostgresRecyclingRepository(db, cfg.Database.QueryTimeout), func() { _ = db.Close() }, nil
}

// OpenCache подключает redis, если он включен. nil означает работу без кэша
func OpenCache(cfg *config.Config, log *logger.Logger) (port.Cache, Cleanup) {
	if !cfg.Redis.Enabled {
		return nil, noop
	}

	cache, err := rediscache.NewRedisCache(rediscache.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		log.Warn("Redis is unavailable, report cache disabled", "error", err.Error())
		return nil, noop
	}

	log.Info("Redis report cache enabled", "addr", cfg.Redis.Addr(), "ttl", cfg.Redis.TTL.String())
	return cache, func() { _ = cache.Close() }
}

// MetricSources собирает пять источников отчетов; при наличии кэша каждый оборачивается CachedSource
func MetricSources(
	repo repository.RecyclingRepository,
	host port.HostCollector,
	cache port.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) []port.MetricSource {
	sources := []port.MetricSource{
		source.NewUsageSource(repo, nil),
		source.NewPerformanceSource(repo, host),
		source.NewEngagementSource(repo),
		source.NewEnvironmentalSource(repo),
		source.NewFinancialSource(repo),
	}

	if cache == nil {
		return sources
	}

	cached := make([]port.MetricSource, 0, len(sources))
	for _, s := range sources {
		cached = append(cached, source.NewCachedSource(s, cache, cacheTTL, log))
	}
	return cached
}

// HostCollector возвращает сборщик метрик хоста (gopsutil)
func HostCollector(cfg *config.Config) port.HostCollector {
	return collector.NewSystemMetricsCollector(cfg.Health.DiskMount)
}

// HealthProbe выбирает probe: синтетический для синтетических данных, иначе системный
func HealthProbe(
	cfg *config.Config,
	repo repository.RecyclingRepository,
	host port.HostCollector,
	errorRate port.ErrorRateReader,
) port.HealthProbe {
	if cfg.DataSource.Mode == config.DataSourceSynthetic {
		return probe.NewSyntheticHealthProbe(cfg.DataSource.Seed)
	}
	return probe.NewSystemHealthProbe(repo, host, errorRate)
}

// ExportTargets - приемник выгрузок и (если поддерживается) листинг объектов
type ExportTargets struct {
	Sink   port.ExportSink
	Lister port.ExportObjectLister
}

// OpenExportTargets создает приемник выгрузок по EXPORT_SINK
func OpenExportTargets(ctx context.Context, cfg *config.Config, log *logger.Logger) (ExportTargets, error) {
	switch cfg.Export.Sink {
	case config.ExportSinkS3:
		storage, err := s3storage.NewExportStorage(ctx, s3storage.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			URLMode:         s3storage.URLMode(cfg.S3.URLMode),
			PresignedTTL:    cfg.S3.PresignedTTL,
		})
		if err != nil {
			return ExportTargets{}, fmt.Errorf("failed to initialize s3 export storage: %w", err)
		}
		log.Info("Exports go to S3", "bucket", cfg.S3.Bucket)
		return ExportTargets{Sink: storage, Lister: storage}, nil

	case config.ExportSinkFilesystem:
		sink, err := filesystem.NewExportSink(cfg.Export.Dir)
		if err != nil {
			return ExportTargets{}, fmt.Errorf("failed to initialize filesystem export sink: %w", err)
		}
		log.Info("Exports go to local directory", "dir", cfg.Export.Dir)
		return ExportTargets{Sink: sink, Lister: sink}, nil

	default:
		log.Warn("Export sink is disabled, export requests will return 503")
		return ExportTargets{}, nil
	}
}
