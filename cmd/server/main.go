package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dreschagin/recycling-dashboard/internal/application/monitor"
	applicationPort "github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/application/usecase"
	"github.com/dreschagin/recycling-dashboard/internal/bootstrap"
	"github.com/dreschagin/recycling-dashboard/internal/domain/service"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/encoding"
	natsInfra "github.com/dreschagin/recycling-dashboard/internal/infrastructure/messaging/nats"
	wsInfra "github.com/dreschagin/recycling-dashboard/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/observability/cloudwatch"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/observability/metrics"
	dynamodbRepo "github.com/dreschagin/recycling-dashboard/internal/infrastructure/persistence/dynamodb"
	httpInterface "github.com/dreschagin/recycling-dashboard/internal/interfaces/http"
	"github.com/dreschagin/recycling-dashboard/internal/interfaces/http/handler"
	"github.com/dreschagin/recycling-dashboard/internal/interfaces/http/middleware"
	"github.com/dreschagin/recycling-dashboard/pkg/config"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// 2. Инициализируем logger
	log := logger.New(cfg.Log.Level)
	log.Info("Starting Recycling Dashboard",
		"port", cfg.Server.Port,
		"data_source", cfg.DataSource.Mode,
		"export_sink", cfg.Export.Sink,
	)

	rootCtx := context.Background()

	// 3. CloudWatch Logs
	var logsPublisher *cloudwatch.LogsPublisher
	if cfg.CloudWatch.LogsEnabled {
		publisherImpl, initErr := cloudwatch.NewLogsPublisher(rootCtx, cloudwatch.LogsPublisherConfig{
			LogGroupName:    cfg.CloudWatch.LogGroupName,
			LogStreamName:   cfg.CloudWatch.LogStreamName,
			Service:         "recycling-dashboard",
			Region:          cfg.CloudWatch.Region,
			Endpoint:        cfg.CloudWatch.Endpoint,
			AccessKeyID:     cfg.CloudWatch.AccessKeyID,
			SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
			AutoCreate:      true,
		})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch logs publisher", initErr)
			os.Exit(1)
		}
		logsPublisher = publisherImpl
		log.SetLogPublisher(logsPublisher)
		log.Info("CloudWatch logs publisher initialized")
	} else {
		log.Warn("CloudWatch logs publishing is disabled")
	}

	// 4. Источник данных и кэш
	repo, closeRepo, err := bootstrap.OpenRepository(rootCtx, cfg, log)
	if err != nil {
		log.Error("Failed to open data source", err)
		os.Exit(1)
	}
	defer closeRepo()

	cache, closeCache := bootstrap.OpenCache(cfg, log)
	defer closeCache()

	// 5. Dependency Injection - Infrastructure Layer

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	errorRate := middleware.NewErrorRateTracker(cfg.Health.ErrorRateWindow)
	hostCollector := bootstrap.HostCollector(cfg)
	healthProbe := bootstrap.HealthProbe(cfg, repo, hostCollector, errorRate)
	sources := bootstrap.MetricSources(repo, hostCollector, cache, cfg.Redis.TTL, log)

	targets, err := bootstrap.OpenExportTargets(rootCtx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize export sink", err)
		os.Exit(1)
	}

	var exportIndex applicationPort.ExportIndex
	if cfg.DynamoDB.Enabled {
		indexImpl, initErr := dynamodbRepo.NewExportIndex(rootCtx, dynamodbRepo.Config{
			TableName:       cfg.DynamoDB.TableName,
			Region:          cfg.DynamoDB.Region,
			Endpoint:        cfg.DynamoDB.Endpoint,
			AccessKeyID:     cfg.DynamoDB.AccessKeyID,
			SecretAccessKey: cfg.DynamoDB.SecretAccessKey,
			StrongReads:     cfg.DynamoDB.StrongReads,
		})
		if initErr != nil {
			log.Error("Failed to initialize export index", initErr)
			os.Exit(1)
		}
		exportIndex = indexImpl
		log.Info("Export index initialized", "provider", "dynamodb", "table", cfg.DynamoDB.TableName)
	} else {
		log.Warn("DynamoDB export index is disabled, using storage listing mode")
	}

	var eventPublisher applicationPort.EventPublisher
	if cfg.NATS.Enabled {
		publisherImpl, initErr := natsInfra.NewPublisher(cfg.NATS.URL, log)
		if initErr != nil {
			log.Warn("Failed to connect to NATS, continuing without event publishing", "error", initErr.Error())
		} else {
			eventPublisher = publisherImpl
			defer eventPublisher.Close()
			log.Info("NATS event publisher initialized", "url", cfg.NATS.URL)
		}
	} else {
		log.Warn("NATS event publishing is disabled")
	}

	var metricsPublisher *cloudwatch.MetricsPublisher
	var healthPublisher applicationPort.HealthMetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		publisherImpl, initErr := cloudwatch.NewMetricsPublisher(rootCtx, cloudwatch.MetricsPublisherConfig{
			Namespace:       cfg.CloudWatch.Namespace,
			Region:          cfg.CloudWatch.Region,
			Endpoint:        cfg.CloudWatch.Endpoint,
			AccessKeyID:     cfg.CloudWatch.AccessKeyID,
			SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
			DefaultDimensions: map[string]string{
				"Environment": cfg.CloudWatch.Environment,
			},
		}, log)
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch metrics publisher", initErr)
			os.Exit(1)
		}
		metricsPublisher = publisherImpl
		healthPublisher = publisherImpl
		log.Info("CloudWatch metrics publisher initialized", "namespace", cfg.CloudWatch.Namespace)
	} else {
		log.Warn("CloudWatch metrics publishing is disabled")
	}

	hub := wsInfra.NewHub(log)

	// 6. Dependency Injection - Application Layer (Use Cases)

	generateReportUC := usecase.NewGenerateReportUseCase(
		sources,
		usecase.GenerateReportConfig{
			DefaultRangeDays: cfg.Report.DefaultRangeDays,
			MaxRangeDays:     cfg.Report.MaxRangeDays,
		},
		appMetrics,
		log,
	)

	exportReportUC := usecase.NewExportReportUseCase(
		generateReportUC,
		encoding.NewDefaultRegistry(),
		targets.Sink,   // nil, если EXPORT_SINK=none
		exportIndex,    // nil, если DynamoDB выключен
		eventPublisher, // nil, если NATS выключен
		appMetrics,
		usecase.ExportReportConfig{
			KeyPrefix:      cfg.Export.KeyPrefix,
			IndexRetention: cfg.Export.IndexRetention,
		},
		log,
	)

	listExportsUC := usecase.NewListExportsUseCase(
		targets.Lister,
		exportIndex,
		usecase.ListExportsConfig{
			KeyPrefix:                cfg.Export.KeyPrefix,
			FallbackToStorageOnError: true,
		},
		log,
	)

	relay := usecase.NewHealthSnapshotRelay(hub, healthPublisher, eventPublisher, appMetrics, log)

	healthMonitor := monitor.New(healthProbe, service.NewHealthEvaluator(), monitor.Config{
		Interval:     cfg.Health.PollInterval,
		ProbeTimeout: cfg.Health.ProbeTimeout,
	}, log)

	// 7. Dependency Injection - Interfaces Layer (HTTP Handlers)

	exportLimiter := middleware.NewIPRateLimiter(cfg.Security.ExportRateLimitRPS, cfg.Security.ExportRateLimitBurst)

	router := httpInterface.NewRouter(httpInterface.RouterDeps{
		ReportHandler:    handler.NewReportHandler(exportReportUC, listExportsUC, log),
		HealthHandler:    handler.NewHealthHandler(healthMonitor, relay.Observe, log),
		WebSocketHandler: handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, log),
		Metrics:          appMetrics,
		ErrorRate:        errorRate,
		ExportLimiter:    exportLimiter,
		Readiness:        repo.Ping,
		Security:         cfg.Security,
		Logger:           log,
	})

	// 8. Запускаем фоновые процессы

	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	go hub.Run(ctx)
	log.Info("WebSocket hub started")

	go exportLimiter.RunCleanup(ctx, time.Minute)

	if cfg.Health.AutoStart {
		if err := healthMonitor.Start(relay.Observe); err != nil {
			log.Error("Failed to start health monitor", err)
			os.Exit(1)
		}
	} else {
		log.Info("Health monitor is idle until POST /api/v1/monitoring/start")
	}

	// 9. Настраиваем HTTP сервер

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Канал для получения сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Запускаем сервер в отдельной goroutine
	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 10. Ожидаем сигнал для graceful shutdown

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	// Сначала монитор: после Stop доставок в relay больше не будет
	healthMonitor.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(rootCtx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	if metricsPublisher != nil {
		log.Info("Flushing CloudWatch metrics buffer...")
		if err := metricsPublisher.Close(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch metrics", err)
		}
	}

	if logsPublisher != nil {
		log.Info("Flushing CloudWatch logs buffer...")
		if err := logsPublisher.Close(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch logs", err)
		}
	}

	log.Info("Server stopped gracefully")
}
