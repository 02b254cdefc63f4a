package port

import (
	"context"
	"time"
)

// ExportRecord представляет запись индекса выгрузок.
type ExportRecord struct {
	ExportID    string
	ReportType  string
	Format      string
	Key         string
	URL         string
	ContentType string
	SizeBytes   int64
	SessionID   string
	GeneratedAt time.Time
	ExportedAt  time.Time
	ExpiresAt   time.Time
}

// ExportListQuery определяет параметры выборки выгрузок.
type ExportListQuery struct {
	ReportType string
	Limit      int
	Cursor     string
	From       time.Time
	To         time.Time
}

// ExportListPage содержит результат выборки и курсор следующей страницы.
type ExportListPage struct {
	Items      []ExportRecord
	NextCursor string
}

// ExportIndex определяет интерфейс хранения индекса выгрузок.
type ExportIndex interface {
	Put(ctx context.Context, record ExportRecord) error
	ListByType(ctx context.Context, query ExportListQuery) (ExportListPage, error)
}
