package usecase

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

const exportKeyTimestampLayout = "20060102T150405Z"

type ListExportsCommand struct {
	ReportType string
	Limit      int
	Cursor     string
	From       time.Time
	To         time.Time
}

type ListExportsResult struct {
	Items      []ExportReportResult
	NextCursor string
}

type ListExportsConfig struct {
	KeyPrefix                string
	DefaultLimit             int
	MaxLimit                 int
	FallbackToStorageOnError bool
}

type ListExportsUseCase struct {
	storage port.ExportObjectLister
	index   port.ExportIndex
	config  ListExportsConfig
	logger  *logger.Logger
}

func NewListExportsUseCase(
	storage port.ExportObjectLister,
	index port.ExportIndex,
	config ListExportsConfig,
	log *logger.Logger,
) *ListExportsUseCase {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 24
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = 100
	}
	return &ListExportsUseCase{
		storage: storage,
		index:   index,
		config:  config,
		logger:  log,
	}
}

func (uc *ListExportsUseCase) Execute(ctx context.Context, cmd ListExportsCommand) (*ListExportsResult, error) {
	reportType, err := valueobject.ParseReportType(cmd.ReportType)
	if err != nil {
		return nil, err
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = uc.config.DefaultLimit
	}
	if limit > uc.config.MaxLimit {
		limit = uc.config.MaxLimit
	}

	if !cmd.From.IsZero() && !cmd.To.IsZero() && cmd.From.After(cmd.To) {
		return nil, fmt.Errorf("%w: from must be less than or equal to to", errs.ErrInvalidQuery)
	}

	query := port.ExportListQuery{
		ReportType: reportType.String(),
		Limit:      limit,
		Cursor:     strings.TrimSpace(cmd.Cursor),
		From:       cmd.From.UTC(),
		To:         cmd.To.UTC(),
	}

	if uc.index != nil {
		page, err := uc.index.ListByType(ctx, query)
		if err == nil {
			return uc.mapIndexPage(ctx, page), nil
		}

		if !uc.config.FallbackToStorageOnError {
			return nil, fmt.Errorf("failed to list exports via index: %w", err)
		}

		uc.logger.Warn("Export index is unavailable, using storage fallback",
			"report_type", query.ReportType,
			"error", err.Error(),
		)
	}

	return uc.listFromStorage(ctx, query)
}

func (uc *ListExportsUseCase) buildPrefix(reportType string) string {
	prefix := strings.Trim(uc.config.KeyPrefix, "/")
	if prefix == "" {
		prefix = defaultExportKeyPrefix
	}
	return fmt.Sprintf("%s/%s/", prefix, reportType)
}

func (uc *ListExportsUseCase) mapIndexPage(ctx context.Context, page port.ExportListPage) *ListExportsResult {
	items := make([]ExportReportResult, 0, len(page.Items))
	for _, record := range page.Items {
		url := record.URL
		if uc.storage != nil {
			if generatedURL, err := uc.storage.GetObjectURL(ctx, record.Key); err == nil {
				url = generatedURL
			}
		}

		items = append(items, ExportReportResult{
			ExportID:    record.ExportID,
			ReportType:  record.ReportType,
			Format:      record.Format,
			Filename:    filenameFor(record.ReportType, record.GeneratedAt, record.Format),
			Key:         record.Key,
			URL:         url,
			ContentType: record.ContentType,
			SizeBytes:   record.SizeBytes,
			GeneratedAt: record.GeneratedAt.UTC(),
			ExportedAt:  record.ExportedAt.UTC(),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ExportedAt.After(items[j].ExportedAt)
	})

	return &ListExportsResult{
		Items:      items,
		NextCursor: page.NextCursor,
	}
}

func (uc *ListExportsUseCase) listFromStorage(ctx context.Context, query port.ExportListQuery) (*ListExportsResult, error) {
	if uc.storage == nil {
		return nil, fmt.Errorf("%w: export storage is not configured", errs.ErrExport)
	}
	if query.Cursor != "" {
		return nil, fmt.Errorf("%w: cursor pagination requires export index", errs.ErrInvalidQuery)
	}

	objects, err := uc.storage.ListObjects(ctx, uc.buildPrefix(query.ReportType), query.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	items := make([]ExportReportResult, 0, len(objects))
	for _, object := range objects {
		generatedAt, exportID, format := parseExportKey(object.Key)
		if !query.From.IsZero() && generatedAt.Before(query.From) {
			continue
		}
		if !query.To.IsZero() && generatedAt.After(query.To) {
			continue
		}

		items = append(items, ExportReportResult{
			ExportID:    exportID,
			ReportType:  query.ReportType,
			Format:      format,
			Filename:    filenameFor(query.ReportType, generatedAt, format),
			Key:         object.Key,
			URL:         object.URL,
			SizeBytes:   object.SizeBytes,
			GeneratedAt: generatedAt,
			ExportedAt:  object.LastModified.UTC(),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ExportedAt.After(items[j].ExportedAt)
	})

	if len(items) > query.Limit {
		items = items[:query.Limit]
	}

	return &ListExportsResult{Items: items}, nil
}

// parseExportKey разбирает имя объекта вида <YYYYMMDDTHHMMSSZ>_<id>.<ext>
func parseExportKey(key string) (time.Time, string, string) {
	filename := path.Base(strings.TrimSpace(key))
	if filename == "" || filename == "." {
		return time.Time{}, "", ""
	}

	format := strings.TrimPrefix(path.Ext(filename), ".")
	withoutExt := strings.TrimSuffix(filename, path.Ext(filename))

	underscore := strings.IndexRune(withoutExt, '_')
	if underscore <= 0 {
		return time.Time{}, withoutExt, format
	}

	generatedAt, err := time.Parse(exportKeyTimestampLayout, withoutExt[:underscore])
	if err != nil {
		generatedAt = time.Time{}
	}
	return generatedAt.UTC(), withoutExt[underscore+1:], format
}

func filenameFor(reportType string, generatedAt time.Time, format string) string {
	if generatedAt.IsZero() || format == "" {
		return ""
	}
	return BuildFilename(valueobject.ReportType(reportType), generatedAt, valueobject.ExportFormat(format))
}
