package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

type memoryObjectLister struct {
	objects []port.ExportObject
	prefix  string
	limit   int
	err     error
}

func (l *memoryObjectLister) ListObjects(_ context.Context, prefix string, limit int) ([]port.ExportObject, error) {
	l.prefix = prefix
	l.limit = limit
	return l.objects, l.err
}

func (l *memoryObjectLister) GetObjectURL(_ context.Context, key string) (string, error) {
	return "https://signed.example.com/" + key, nil
}

func TestListExports_FromIndex(t *testing.T) {
	older := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	newer := older.Add(2 * time.Hour)

	index := &memoryIndex{page: port.ExportListPage{
		Items: []port.ExportRecord{
			{ExportID: "a", ReportType: "usage", Format: "json", Key: "reports/usage/a.json", GeneratedAt: older, ExportedAt: older},
			{ExportID: "b", ReportType: "usage", Format: "csv", Key: "reports/usage/b.csv", GeneratedAt: newer, ExportedAt: newer},
		},
		NextCursor: "next-page",
	}}
	storage := &memoryObjectLister{}

	uc := NewListExportsUseCase(storage, index, ListExportsConfig{DefaultLimit: 10, MaxLimit: 50}, logger.New("error"))

	result, err := uc.Execute(context.Background(), ListExportsCommand{ReportType: "usage", Limit: 500, Cursor: " c1 "})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if index.query.Limit != 50 {
		t.Fatalf("expected limit clamped to 50, got %d", index.query.Limit)
	}
	if index.query.Cursor != "c1" {
		t.Fatalf("expected trimmed cursor, got %q", index.query.Cursor)
	}
	if result.NextCursor != "next-page" {
		t.Fatalf("unexpected cursor %q", result.NextCursor)
	}
	if len(result.Items) != 2 || result.Items[0].ExportID != "b" {
		t.Fatalf("expected newest first, got %+v", result.Items)
	}
	if result.Items[0].URL != "https://signed.example.com/reports/usage/b.csv" {
		t.Fatalf("expected storage url, got %q", result.Items[0].URL)
	}
	if result.Items[1].Filename != "usage-report-2026-10-14.json" {
		t.Fatalf("unexpected filename %q", result.Items[1].Filename)
	}
}

func TestListExports_StorageFallback(t *testing.T) {
	storage := &memoryObjectLister{objects: []port.ExportObject{
		{Key: "reports/financial/2026/10/13/20261013T100000Z_old.json", LastModified: time.Date(2026, 10, 13, 10, 0, 1, 0, time.UTC)},
		{Key: "reports/financial/2026/10/15/20261015T100000Z_new.csv", SizeBytes: 12, LastModified: time.Date(2026, 10, 15, 10, 0, 1, 0, time.UTC)},
	}}
	index := &memoryIndex{listErr: errors.New("table missing")}

	uc := NewListExportsUseCase(storage, index, ListExportsConfig{FallbackToStorageOnError: true}, logger.New("error"))

	result, err := uc.Execute(context.Background(), ListExportsCommand{ReportType: "financial"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if storage.prefix != "reports/financial/" {
		t.Fatalf("unexpected prefix %q", storage.prefix)
	}
	if storage.limit != 24 {
		t.Fatalf("expected default limit 24, got %d", storage.limit)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}

	first := result.Items[0]
	if first.ExportID != "new" || first.Format != "csv" {
		t.Fatalf("unexpected first item %+v", first)
	}
	if !first.GeneratedAt.Equal(time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected generatedAt %s", first.GeneratedAt)
	}
	if first.Filename != "financial-report-2026-10-15.csv" {
		t.Fatalf("unexpected filename %q", first.Filename)
	}
}

func TestListExports_StorageDateFilter(t *testing.T) {
	storage := &memoryObjectLister{objects: []port.ExportObject{
		{Key: "reports/usage/2026/10/01/20261001T000000Z_a.json"},
		{Key: "reports/usage/2026/10/10/20261010T000000Z_b.json"},
		{Key: "reports/usage/2026/10/20/20261020T000000Z_c.json"},
	}}

	uc := NewListExportsUseCase(storage, nil, ListExportsConfig{}, logger.New("error"))

	result, err := uc.Execute(context.Background(), ListExportsCommand{
		ReportType: "usage",
		From:       time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].ExportID != "b" {
		t.Fatalf("expected only b, got %+v", result.Items)
	}
}

func TestListExports_Errors(t *testing.T) {
	tests := []struct {
		name    string
		storage port.ExportObjectLister
		index   port.ExportIndex
		config  ListExportsConfig
		cmd     ListExportsCommand
		wantErr error
	}{
		{
			name:    "unknown type",
			storage: &memoryObjectLister{},
			cmd:     ListExportsCommand{ReportType: "weekly"},
			wantErr: errs.ErrUnknownReportType,
		},
		{
			name:    "from after to",
			storage: &memoryObjectLister{},
			cmd: ListExportsCommand{
				ReportType: "usage",
				From:       time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
				To:         time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			},
			wantErr: errs.ErrInvalidQuery,
		},
		{
			name:    "cursor without index",
			storage: &memoryObjectLister{},
			cmd:     ListExportsCommand{ReportType: "usage", Cursor: "abc"},
			wantErr: errs.ErrInvalidQuery,
		},
		{
			name:    "no storage and no index",
			cmd:     ListExportsCommand{ReportType: "usage"},
			wantErr: errs.ErrExport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewListExportsUseCase(tt.storage, tt.index, tt.config, logger.New("error"))
			_, err := uc.Execute(context.Background(), tt.cmd)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestListExports_IndexErrorWithoutFallback(t *testing.T) {
	cause := errors.New("throttled")
	uc := NewListExportsUseCase(&memoryObjectLister{}, &memoryIndex{listErr: cause}, ListExportsConfig{}, logger.New("error"))

	_, err := uc.Execute(context.Background(), ListExportsCommand{ReportType: "usage"})
	if !errors.Is(err, cause) {
		t.Fatalf("expected index error, got %v", err)
	}
}

func TestParseExportKey(t *testing.T) {
	tests := []struct {
		key    string
		id     string
		format string
		zero   bool
	}{
		{key: "reports/usage/2026/10/15/20261015T093000Z_abc.json", id: "abc", format: "json"},
		{key: "reports/usage/plain.csv", id: "plain", format: "csv", zero: true},
		{key: "reports/usage/badtime_x.json", id: "x", format: "json", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			generatedAt, id, format := parseExportKey(tt.key)
			if id != tt.id || format != tt.format {
				t.Fatalf("got id=%q format=%q", id, format)
			}
			if generatedAt.IsZero() != tt.zero {
				t.Fatalf("unexpected generatedAt %s", generatedAt)
			}
		})
	}
}
