package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

const (
	defaultReportRangeDays = 30
	maxReportRangeDays     = 365
)

// GenerateReportCommand - запрос на сборку отчета
type GenerateReportCommand struct {
	Type          string
	DateRangeDays int
	AsOf          time.Time
	SessionID     string
}

// GenerateReportConfig задает ограничения окна отчета
type GenerateReportConfig struct {
	DefaultRangeDays int
	MaxRangeDays     int
}

// GenerateReportUseCase собирает отчет из источников метрик
type GenerateReportUseCase struct {
	sources map[valueobject.ReportType]port.MetricSource
	config  GenerateReportConfig
	metrics port.ReportMetrics
	logger  *logger.Logger
}

// NewGenerateReportUseCase создает новый use case
func NewGenerateReportUseCase(
	sources []port.MetricSource,
	config GenerateReportConfig,
	metrics port.ReportMetrics,
	log *logger.Logger,
) *GenerateReportUseCase {
	if config.DefaultRangeDays <= 0 {
		config.DefaultRangeDays = defaultReportRangeDays
	}
	if config.MaxRangeDays <= 0 {
		config.MaxRangeDays = maxReportRangeDays
	}

	byType := make(map[valueobject.ReportType]port.MetricSource, len(sources))
	for _, source := range sources {
		byType[source.Type()] = source
	}

	return &GenerateReportUseCase{
		sources: byType,
		config:  config,
		metrics: metrics,
		logger:  log,
	}
}

// Execute собирает отчет
func (uc *GenerateReportUseCase) Execute(ctx context.Context, cmd GenerateReportCommand) (*entity.Report, error) {
	started := time.Now()

	reportType, err := valueobject.ParseReportType(cmd.Type)
	if err != nil {
		return nil, err
	}

	days, err := uc.resolveDays(cmd.DateRangeDays)
	if err != nil {
		return nil, err
	}

	asOf := cmd.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = asOf.UTC()

	window, err := valueobject.NewTrailingDays(asOf, days)
	if err != nil {
		return nil, err
	}

	log := uc.logger.With("report_type", reportType.String(), "session_id", cmd.SessionID)
	log.Debug("Assembling report", "days", days)

	var data snapshot.Value
	if reportType.IsComposite() {
		data, err = uc.fetchAll(ctx, days)
	} else {
		data, err = uc.fetchOne(ctx, reportType, days)
	}
	if err != nil {
		uc.observe(reportType, "error", started)
		log.Error("Failed to assemble report", err)
		return nil, err
	}

	report, err := entity.NewReport(reportType, asOf, window, data, cmd.SessionID)
	if err != nil {
		uc.observe(reportType, "error", started)
		return nil, err
	}

	uc.observe(reportType, "success", started)
	log.Info("Report assembled", "report_id", report.ID(), "duration", time.Since(started).String())

	return report, nil
}

func (uc *GenerateReportUseCase) resolveDays(days int) (int, error) {
	if days == 0 {
		return uc.config.DefaultRangeDays, nil
	}
	if days < 1 || days > uc.config.MaxRangeDays {
		return 0, fmt.Errorf("%w: days must be between 1 and %d, got %d",
			errs.ErrInvalidDateRange, uc.config.MaxRangeDays, days)
	}
	return days, nil
}

func (uc *GenerateReportUseCase) fetchOne(
	ctx context.Context,
	reportType valueobject.ReportType,
	days int,
) (snapshot.Value, error) {
	source, ok := uc.sources[reportType]
	if !ok {
		return snapshot.Value{}, errs.NewSourceFetchError(reportType.String(), errors.New("source is not configured"))
	}

	value, err := source.Fetch(ctx, days)
	if err != nil {
		return snapshot.Value{}, asSourceError(reportType, err)
	}
	return value, nil
}

// fetchAll опрашивает все источники параллельно и ждет завершения каждого.
// Ошибка возвращается первой по фиксированному порядку источников.
func (uc *GenerateReportUseCase) fetchAll(ctx context.Context, days int) (snapshot.Value, error) {
	types := valueobject.SourceReportTypes()
	values := make([]snapshot.Value, len(types))
	failures := make([]error, len(types))

	var wg sync.WaitGroup
	wg.Add(len(types))
	for i, reportType := range types {
		go func(i int, reportType valueobject.ReportType) {
			defer wg.Done()
			values[i], failures[i] = uc.fetchOne(ctx, reportType, days)
		}(i, reportType)
	}
	wg.Wait()

	fields := make([]snapshot.Field, 0, len(types))
	for i, reportType := range types {
		if failures[i] != nil {
			return snapshot.Value{}, failures[i]
		}
		fields = append(fields, snapshot.F(reportType.String(), values[i]))
	}

	return snapshot.Map(fields...), nil
}

func (uc *GenerateReportUseCase) observe(reportType valueobject.ReportType, outcome string, started time.Time) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ObserveReport(reportType.String(), outcome, time.Since(started))
}

func asSourceError(reportType valueobject.ReportType, err error) error {
	var sourceErr *errs.SourceFetchError
	if errors.As(err, &sourceErr) {
		return err
	}
	return errs.NewSourceFetchError(reportType.String(), err)
}
