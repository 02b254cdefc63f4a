package valueobject

import (
	"errors"
	"testing"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
)

func TestParseReportType(t *testing.T) {
	tests := []struct {
		raw     string
		want    ReportType
		wantErr bool
	}{
		{raw: "usage", want: Usage},
		{raw: " Financial ", want: Financial},
		{raw: "COMPREHENSIVE", want: Comprehensive},
		{raw: "weekly", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseReportType(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, errs.ErrUnknownReportType) {
					t.Fatalf("expected ErrUnknownReportType, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseReportType(%q) = %q, %v", tt.raw, got, err)
			}
		})
	}
}

func TestReportTypeLists(t *testing.T) {
	sources := SourceReportTypes()
	if len(sources) != 5 || sources[0] != Usage || sources[4] != Financial {
		t.Fatalf("unexpected source order %v", sources)
	}
	for _, rt := range sources {
		if rt.IsComposite() {
			t.Fatalf("%s must not be composite", rt)
		}
	}

	all := AllReportTypes()
	if len(all) != 6 || all[5] != Comprehensive || !all[5].IsComposite() {
		t.Fatalf("unexpected report types %v", all)
	}
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		raw         string
		want        ExportFormat
		contentType string
		wantErr     bool
	}{
		{raw: "", want: JSON, contentType: "application/json"},
		{raw: "json", want: JSON, contentType: "application/json"},
		{raw: " CSV", want: CSV, contentType: "text/csv; charset=utf-8"},
		{raw: "xml", wantErr: true},
		{raw: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseExportFormat(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, errs.ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseExportFormat(%q) = %q, %v", tt.raw, got, err)
			}
			if got.ContentType() != tt.contentType || got.Extension() != string(tt.want) {
				t.Fatalf("unexpected content type %q / extension %q", got.ContentType(), got.Extension())
			}
		})
	}
}

func TestNewTrailingDays(t *testing.T) {
	asOf := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	window, err := NewTrailingDays(asOf, 7)
	if err != nil {
		t.Fatalf("NewTrailingDays() error = %v", err)
	}
	if !window.End().Equal(asOf) || !window.Start().Equal(asOf.AddDate(0, 0, -7)) {
		t.Fatalf("unexpected window %s - %s", window.Start(), window.End())
	}
	if window.Days() != 7 || window.Duration() != 7*24*time.Hour {
		t.Fatalf("unexpected length %d days", window.Days())
	}
	if !window.Contains(asOf) || !window.Contains(window.Start()) || window.Contains(asOf.Add(time.Second)) {
		t.Fatal("window bounds must be inclusive")
	}

	for _, days := range []int{0, -1} {
		if _, err := NewTrailingDays(asOf, days); !errors.Is(err, errs.ErrInvalidDateRange) {
			t.Fatalf("days=%d: expected ErrInvalidDateRange, got %v", days, err)
		}
	}
	if _, err := NewTrailingDays(time.Time{}, 7); !errors.Is(err, errs.ErrInvalidDateRange) {
		t.Fatalf("zero asOf: expected ErrInvalidDateRange, got %v", err)
	}
}

func TestTimeRangeOverlaps(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	a, _ := NewTimeRange(base, base.AddDate(0, 0, 5))
	b, _ := NewTimeRange(base.AddDate(0, 0, 3), base.AddDate(0, 0, 8))
	c, _ := NewTimeRange(base.AddDate(0, 0, 6), base.AddDate(0, 0, 9))

	if !a.Overlaps(b) || a.Overlaps(c) {
		t.Fatal("unexpected overlap result")
	}
	if _, err := NewTimeRange(base.AddDate(0, 0, 1), base); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
