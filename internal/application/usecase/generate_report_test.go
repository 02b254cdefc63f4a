package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

var testAsOf = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type stubSource struct {
	reportType valueobject.ReportType
	value      snapshot.Value
	err        error
	delay      time.Duration

	mu       sync.Mutex
	lastDays int
	calls    int
}

func (s *stubSource) Type() valueobject.ReportType { return s.reportType }

func (s *stubSource) Fetch(ctx context.Context, dateRangeDays int) (snapshot.Value, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	s.lastDays = dateRangeDays
	s.calls++
	s.mu.Unlock()
	return s.value, s.err
}

func stubSources() map[valueobject.ReportType]*stubSource {
	result := make(map[valueobject.ReportType]*stubSource)
	for _, rt := range valueobject.SourceReportTypes() {
		result[rt] = &stubSource{
			reportType: rt,
			value:      snapshot.Map(snapshot.F("source", snapshot.String(rt.String()))),
		}
	}
	return result
}

func asPorts(sources map[valueobject.ReportType]*stubSource) []port.MetricSource {
	result := make([]port.MetricSource, 0, len(sources))
	for _, rt := range valueobject.SourceReportTypes() {
		if s, ok := sources[rt]; ok {
			result = append(result, s)
		}
	}
	return result
}

type recordingMetrics struct {
	mu      sync.Mutex
	reports []string
	exports []string
}

func (m *recordingMetrics) ObserveReport(reportType, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, reportType+":"+outcome)
}

func (m *recordingMetrics) ObserveExport(reportType, format, outcome string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports = append(m.exports, reportType+":"+format+":"+outcome)
}

func TestGenerateReport_SingleSource(t *testing.T) {
	sources := stubSources()
	metrics := &recordingMetrics{}
	uc := NewGenerateReportUseCase(asPorts(sources), GenerateReportConfig{}, metrics, logger.New("error"))

	report, err := uc.Execute(context.Background(), GenerateReportCommand{
		Type:      " Usage ",
		AsOf:      testAsOf,
		SessionID: "session-1",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if report.Type() != valueobject.Usage {
		t.Fatalf("expected usage report, got %s", report.Type())
	}
	if report.ID() == "" {
		t.Fatal("report id must be set")
	}
	if !report.GeneratedAt().Equal(testAsOf) || !report.Window().End().Equal(testAsOf) {
		t.Fatalf("generatedAt and window end must equal asOf, got %s / %s", report.GeneratedAt(), report.Window().End())
	}
	if report.Window().Days() != 30 {
		t.Fatalf("expected default 30 day window, got %d", report.Window().Days())
	}
	if sources[valueobject.Usage].lastDays != 30 {
		t.Fatalf("source received %d days", sources[valueobject.Usage].lastDays)
	}
	if sources[valueobject.Financial].calls != 0 {
		t.Fatal("unrelated source must not be queried")
	}
	if report.SessionID() != "session-1" {
		t.Fatalf("unexpected session id %q", report.SessionID())
	}
	if len(metrics.reports) != 1 || metrics.reports[0] != "usage:success" {
		t.Fatalf("unexpected metrics %v", metrics.reports)
	}
}

func TestGenerateReport_ComprehensiveKeepsSourceOrder(t *testing.T) {
	sources := stubSources()
	// самый медленный источник идет первым
	sources[valueobject.Usage].delay = 20 * time.Millisecond

	uc := NewGenerateReportUseCase(asPorts(sources), GenerateReportConfig{}, nil, logger.New("error"))

	report, err := uc.Execute(context.Background(), GenerateReportCommand{Type: "comprehensive", AsOf: testAsOf})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{"usage", "performance", "engagement", "environmental", "financial"}
	keys := report.Data().Keys()
	if len(keys) != len(want) {
		t.Fatalf("expected %d sections, got %v", len(want), keys)
	}
	for i, key := range want {
		if keys[i] != key {
			t.Fatalf("section %d: expected %s, got %s", i, key, keys[i])
		}
		section, _ := report.Data().Get(key)
		if name, _ := section.Get("source"); name.Text() != key {
			t.Fatalf("section %s holds data of %s", key, name.Text())
		}
	}
}

// barrierSource отдает данные только после того, как все источники
// одновременно вошли в Fetch. При последовательном опросе первый же
// источник упирается в таймаут.
type barrierSource struct {
	reportType valueobject.ReportType
	arrived    *sync.WaitGroup
	released   <-chan struct{}
}

func (s *barrierSource) Type() valueobject.ReportType { return s.reportType }

func (s *barrierSource) Fetch(ctx context.Context, _ int) (snapshot.Value, error) {
	s.arrived.Done()
	select {
	case <-s.released:
		return snapshot.Map(snapshot.F("source", snapshot.String(s.reportType.String()))), nil
	case <-time.After(2 * time.Second):
		return snapshot.Value{}, errors.New("sources were fetched one after another")
	case <-ctx.Done():
		return snapshot.Value{}, ctx.Err()
	}
}

func TestGenerateReport_ComprehensiveFetchesSourcesConcurrently(t *testing.T) {
	types := valueobject.SourceReportTypes()

	var arrived sync.WaitGroup
	arrived.Add(len(types))
	released := make(chan struct{})
	go func() {
		arrived.Wait()
		close(released)
	}()

	sources := make([]port.MetricSource, 0, len(types))
	for _, rt := range types {
		sources = append(sources, &barrierSource{reportType: rt, arrived: &arrived, released: released})
	}

	uc := NewGenerateReportUseCase(sources, GenerateReportConfig{}, nil, logger.New("error"))

	report, err := uc.Execute(context.Background(), GenerateReportCommand{Type: "comprehensive", AsOf: testAsOf})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if report.Data().Len() != len(types) {
		t.Fatalf("expected %d sections, got %v", len(types), report.Data().Keys())
	}
}

func TestGenerateReport_ComprehensiveReportsFirstFailureInOrder(t *testing.T) {
	sources := stubSources()
	sources[valueobject.Financial].err = errors.New("financial down")
	sources[valueobject.Engagement].err = errors.New("engagement down")
	sources[valueobject.Engagement].delay = 20 * time.Millisecond

	uc := NewGenerateReportUseCase(asPorts(sources), GenerateReportConfig{}, nil, logger.New("error"))

	_, err := uc.Execute(context.Background(), GenerateReportCommand{Type: "comprehensive", AsOf: testAsOf})
	if !errors.Is(err, errs.ErrSourceFetch) {
		t.Fatalf("expected ErrSourceFetch, got %v", err)
	}

	var sourceErr *errs.SourceFetchError
	if !errors.As(err, &sourceErr) || sourceErr.Source != "engagement" {
		t.Fatalf("expected engagement failure first, got %v", err)
	}

	for _, rt := range valueobject.SourceReportTypes() {
		if sources[rt].calls != 1 {
			t.Fatalf("source %s called %d times", rt, sources[rt].calls)
		}
	}
}

func TestGenerateReport_MissingSource(t *testing.T) {
	sources := stubSources()
	delete(sources, valueobject.Environmental)

	uc := NewGenerateReportUseCase(asPorts(sources), GenerateReportConfig{}, nil, logger.New("error"))

	_, err := uc.Execute(context.Background(), GenerateReportCommand{Type: "environmental", AsOf: testAsOf})
	if !errors.Is(err, errs.ErrSourceFetch) {
		t.Fatalf("expected ErrSourceFetch, got %v", err)
	}
}

func TestGenerateReport_Validation(t *testing.T) {
	sources := stubSources()
	metrics := &recordingMetrics{}
	uc := NewGenerateReportUseCase(asPorts(sources), GenerateReportConfig{}, metrics, logger.New("error"))

	tests := []struct {
		name    string
		cmd     GenerateReportCommand
		wantErr error
		days    int
	}{
		{name: "unknown type", cmd: GenerateReportCommand{Type: "weekly"}, wantErr: errs.ErrUnknownReportType},
		{name: "empty type", cmd: GenerateReportCommand{Type: ""}, wantErr: errs.ErrUnknownReportType},
		{name: "negative days", cmd: GenerateReportCommand{Type: "usage", DateRangeDays: -1}, wantErr: errs.ErrInvalidDateRange},
		{name: "too many days", cmd: GenerateReportCommand{Type: "usage", DateRangeDays: 366}, wantErr: errs.ErrInvalidDateRange},
		{name: "default days", cmd: GenerateReportCommand{Type: "usage"}, days: 30},
		{name: "max days", cmd: GenerateReportCommand{Type: "usage", DateRangeDays: 365}, days: 365},
		{name: "single day", cmd: GenerateReportCommand{Type: "usage", DateRangeDays: 1}, days: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.AsOf = testAsOf
			report, err := uc.Execute(context.Background(), tt.cmd)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if report.Window().Days() != tt.days {
				t.Fatalf("expected %d days, got %d", tt.days, report.Window().Days())
			}
		})
	}

	// валидационные ошибки не попадают в метрики генерации
	for _, observed := range metrics.reports {
		if observed != "usage:success" {
			t.Fatalf("unexpected metric %s", observed)
		}
	}
}

func TestGenerateReport_CustomLimits(t *testing.T) {
	uc := NewGenerateReportUseCase(asPorts(stubSources()), GenerateReportConfig{
		DefaultRangeDays: 7,
		MaxRangeDays:     90,
	}, nil, logger.New("error"))

	report, err := uc.Execute(context.Background(), GenerateReportCommand{Type: "usage", AsOf: testAsOf})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if report.Window().Days() != 7 {
		t.Fatalf("expected configured default 7, got %d", report.Window().Days())
	}

	if _, err := uc.Execute(context.Background(), GenerateReportCommand{Type: "usage", DateRangeDays: 91, AsOf: testAsOf}); !errors.Is(err, errs.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}
