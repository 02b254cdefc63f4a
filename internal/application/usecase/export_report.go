package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/dto"
	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

const defaultExportKeyPrefix = "reports"

// ExportReportCommand - запрос на сборку, кодирование и выгрузку отчета
type ExportReportCommand struct {
	Type          string
	DateRangeDays int
	Format        string
	Path          string // необязательный путь к части отчета, например data.dailyRequests
	AsOf          time.Time
	SessionID     string
}

// RenderedReport - собранный и закодированный отчет
type RenderedReport struct {
	Report  *entity.Report
	Format  valueobject.ExportFormat
	Payload port.Payload
}

// ExportReportResult описывает выполненную выгрузку
type ExportReportResult struct {
	ExportID    string
	ReportType  string
	Format      string
	Filename    string
	Key         string
	URL         string
	ContentType string
	SizeBytes   int64
	GeneratedAt time.Time
	ExportedAt  time.Time
}

// ExportReportConfig задает раскладку ключей и срок хранения записей индекса
type ExportReportConfig struct {
	KeyPrefix      string
	IndexRetention time.Duration
}

// ExportReportUseCase координирует сборку, кодирование и передачу отчета в ExportSink
type ExportReportUseCase struct {
	generate *GenerateReportUseCase
	encoder  port.ReportEncoder
	sink     port.ExportSink
	index    port.ExportIndex
	events   port.EventPublisher
	metrics  port.ReportMetrics
	config   ExportReportConfig
	logger   *logger.Logger
}

// NewExportReportUseCase создает новый use case.
// index, events и metrics необязательны.
func NewExportReportUseCase(
	generate *GenerateReportUseCase,
	encoder port.ReportEncoder,
	sink port.ExportSink,
	index port.ExportIndex,
	events port.EventPublisher,
	metrics port.ReportMetrics,
	config ExportReportConfig,
	log *logger.Logger,
) *ExportReportUseCase {
	return &ExportReportUseCase{
		generate: generate,
		encoder:  encoder,
		sink:     sink,
		index:    index,
		events:   events,
		metrics:  metrics,
		config:   config,
		logger:   log,
	}
}

// Render собирает отчет и кодирует его без передачи в sink
func (uc *ExportReportUseCase) Render(ctx context.Context, cmd ExportReportCommand) (*RenderedReport, error) {
	format, err := valueobject.ParseExportFormat(cmd.Format)
	if err != nil {
		return nil, err
	}

	report, err := uc.generate.Execute(ctx, GenerateReportCommand{
		Type:          cmd.Type,
		DateRangeDays: cmd.DateRangeDays,
		AsOf:          cmd.AsOf,
		SessionID:     cmd.SessionID,
	})
	if err != nil {
		return nil, err
	}

	body, err := uc.encode(report, format, cmd.Path)
	if err != nil {
		uc.logger.Error("Failed to encode report", err,
			"report_type", report.Type().String(),
			"format", format.String(),
			"session_id", cmd.SessionID,
		)
		return nil, err
	}

	return &RenderedReport{
		Report: report,
		Format: format,
		Payload: port.Payload{
			Key:         uc.buildKey(report, format),
			Filename:    BuildFilename(report.Type(), report.GeneratedAt(), format),
			ContentType: format.ContentType(),
			Body:        body,
			SessionID:   cmd.SessionID,
		},
	}, nil
}

// Execute собирает, кодирует и выгружает отчет в настроенный sink
func (uc *ExportReportUseCase) Execute(ctx context.Context, cmd ExportReportCommand) (*ExportReportResult, error) {
	if uc.sink == nil {
		return nil, fmt.Errorf("%w: export sink is not configured", errs.ErrExport)
	}

	rendered, err := uc.Render(ctx, cmd)
	if err != nil {
		return nil, err
	}

	reportType := rendered.Report.Type().String()
	format := rendered.Format.String()

	location, err := uc.sink.Export(ctx, rendered.Payload)
	if err != nil {
		uc.observe(reportType, format, "error", 0)
		uc.logger.Error("Failed to export report", err,
			"report_type", reportType,
			"key", rendered.Payload.Key,
			"session_id", cmd.SessionID,
		)
		if !errors.Is(err, errs.ErrExport) {
			err = fmt.Errorf("%w: %v", errs.ErrExport, err)
		}
		return nil, err
	}

	uc.observe(reportType, format, "success", len(rendered.Payload.Body))

	exportedAt := location.ExportedAt
	if exportedAt.IsZero() {
		exportedAt = time.Now().UTC()
	}
	key := location.Key
	if key == "" {
		key = rendered.Payload.Key
	}

	result := &ExportReportResult{
		ExportID:    rendered.Report.ID(),
		ReportType:  reportType,
		Format:      format,
		Filename:    rendered.Payload.Filename,
		Key:         key,
		URL:         location.URL,
		ContentType: rendered.Payload.ContentType,
		SizeBytes:   int64(len(rendered.Payload.Body)),
		GeneratedAt: rendered.Report.GeneratedAt(),
		ExportedAt:  exportedAt.UTC(),
	}

	uc.recordIndex(ctx, result, cmd.SessionID)
	uc.publishEvent(ctx, result, cmd.SessionID)

	uc.logger.Info("Report exported",
		"report_type", reportType,
		"format", format,
		"key", result.Key,
		"size_bytes", result.SizeBytes,
		"session_id", cmd.SessionID,
	)

	return result, nil
}

func (uc *ExportReportUseCase) encode(report *entity.Report, format valueobject.ExportFormat, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return uc.encoder.Encode(report, format)
	}

	value, ok := report.ToValue().Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrPathNotFound, path)
	}
	return uc.encoder.EncodeValue(value, format)
}

func (uc *ExportReportUseCase) buildKey(report *entity.Report, format valueobject.ExportFormat) string {
	prefix := strings.Trim(uc.config.KeyPrefix, "/")
	if prefix == "" {
		prefix = defaultExportKeyPrefix
	}

	generatedAt := report.GeneratedAt()
	return fmt.Sprintf("%s/%s/%s/%s_%s.%s",
		prefix,
		report.Type().String(),
		generatedAt.Format("2006/01/02"),
		generatedAt.Format(exportKeyTimestampLayout),
		report.ID(),
		format.Extension(),
	)
}

func (uc *ExportReportUseCase) recordIndex(ctx context.Context, result *ExportReportResult, sessionID string) {
	if uc.index == nil {
		return
	}

	record := port.ExportRecord{
		ExportID:    result.ExportID,
		ReportType:  result.ReportType,
		Format:      result.Format,
		Key:         result.Key,
		URL:         result.URL,
		ContentType: result.ContentType,
		SizeBytes:   result.SizeBytes,
		SessionID:   sessionID,
		GeneratedAt: result.GeneratedAt,
		ExportedAt:  result.ExportedAt,
	}
	if uc.config.IndexRetention > 0 {
		record.ExpiresAt = result.ExportedAt.Add(uc.config.IndexRetention)
	}

	if err := uc.index.Put(ctx, record); err != nil {
		uc.logger.Warn("Failed to record export in index",
			"export_id", result.ExportID,
			"error", err.Error(),
		)
	}
}

func (uc *ExportReportUseCase) publishEvent(ctx context.Context, result *ExportReportResult, sessionID string) {
	if uc.events == nil {
		return
	}

	event := dto.ReportExportedEvent{
		ExportDTO: ToExportDTO(result),
		SessionID: sessionID,
	}
	if err := uc.events.PublishEvent(ctx, port.SubjectReportsExported, event); err != nil {
		uc.logger.Warn("Failed to publish export event",
			"export_id", result.ExportID,
			"error", err.Error(),
		)
	}
}

func (uc *ExportReportUseCase) observe(reportType, format, outcome string, size int) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ObserveExport(reportType, format, outcome, size)
}

// BuildFilename возвращает имя файла вида <type>-report-<YYYY-MM-DD>.<ext>
func BuildFilename(reportType valueobject.ReportType, generatedAt time.Time, format valueobject.ExportFormat) string {
	return fmt.Sprintf("%s-report-%s.%s", reportType.String(), generatedAt.UTC().Format("2006-01-02"), format.Extension())
}

// ToExportDTO конвертирует результат выгрузки в DTO
func ToExportDTO(result *ExportReportResult) dto.ExportDTO {
	return dto.ExportDTO{
		ExportID:    result.ExportID,
		ReportType:  result.ReportType,
		Format:      result.Format,
		Filename:    result.Filename,
		Key:         result.Key,
		URL:         result.URL,
		SizeBytes:   result.SizeBytes,
		GeneratedAt: result.GeneratedAt,
		ExportedAt:  result.ExportedAt,
	}
}
