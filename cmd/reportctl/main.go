// Package main implements reportctl, a headless client for report generation
// and health monitoring that reuses the server's wiring.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreschagin/recycling-dashboard/internal/application/monitor"
	"github.com/dreschagin/recycling-dashboard/internal/application/usecase"
	"github.com/dreschagin/recycling-dashboard/internal/bootstrap"
	"github.com/dreschagin/recycling-dashboard/internal/domain/service"
	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/encoding"
	"github.com/dreschagin/recycling-dashboard/pkg/config"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

// Version задается при сборке
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "reportctl generates recycling reports and watches service health",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newReportCmd(), newHealthCmd())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of reportctl",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "reportctl version %s\n", Version)
			return err
		},
	})

	return rootCmd
}

// app - зависимости, собранные из конфигурации для одной команды
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	export  *usecase.ExportReportUseCase
	monitor *monitor.HealthMonitor
	cleanup []bootstrap.Cleanup
}

// newApp собирает те же компоненты, что и сервер, но без HTTP слоя.
// Логи пишутся в stderr, чтобы не смешиваться с выводом отчета.
// pollInterval > 0 переопределяет HEALTH_POLL_INTERVAL.
func newApp(ctx context.Context, pollInterval time.Duration) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration load failed: %w", err)
	}
	if pollInterval > 0 {
		cfg.Health.PollInterval = pollInterval
	}

	log := logger.NewWithWriter(cfg.Log.Level, os.Stderr)

	repo, closeRepo, err := bootstrap.OpenRepository(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	cache, closeCache := bootstrap.OpenCache(cfg, log)

	host := bootstrap.HostCollector(cfg)
	sources := bootstrap.MetricSources(repo, host, cache, cfg.Redis.TTL, log)

	targets, err := bootstrap.OpenExportTargets(ctx, cfg, log)
	if err != nil {
		closeCache()
		closeRepo()
		return nil, err
	}

	generate := usecase.NewGenerateReportUseCase(sources, usecase.GenerateReportConfig{
		DefaultRangeDays: cfg.Report.DefaultRangeDays,
		MaxRangeDays:     cfg.Report.MaxRangeDays,
	}, nil, log)

	export := usecase.NewExportReportUseCase(
		generate,
		encoding.NewDefaultRegistry(),
		targets.Sink,
		nil,
		nil,
		nil,
		usecase.ExportReportConfig{KeyPrefix: cfg.Export.KeyPrefix},
		log,
	)

	healthMonitor := monitor.New(
		bootstrap.HealthProbe(cfg, repo, host, nil),
		service.NewHealthEvaluator(),
		monitor.Config{Interval: cfg.Health.PollInterval, ProbeTimeout: cfg.Health.ProbeTimeout},
		log,
	)

	return &app{
		cfg:     cfg,
		log:     log,
		export:  export,
		monitor: healthMonitor,
		cleanup: []bootstrap.Cleanup{closeCache, closeRepo},
	}, nil
}

func (a *app) Close() {
	a.monitor.Stop()
	for _, fn := range a.cleanup {
		fn()
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
