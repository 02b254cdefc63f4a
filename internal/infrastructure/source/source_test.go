package source

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

type fakeRepository struct {
	err error

	activeSince time.Time
	newWindow   valueobject.TimeRange
}

func (r *fakeRepository) Ping(context.Context) error { return r.err }

func (r *fakeRepository) CountProfiles(context.Context) (int64, error) { return 100, r.err }

func (r *fakeRepository) CountActiveProfiles(_ context.Context, since time.Time) (int64, error) {
	r.activeSince = since
	return 40, r.err
}

func (r *fakeRepository) CountNewProfiles(_ context.Context, window valueobject.TimeRange) (int64, error) {
	r.newWindow = window
	return 12, r.err
}

func (r *fakeRepository) CountProfilesByRole(context.Context) ([]repository.LabeledCount, error) {
	return []repository.LabeledCount{{Label: "admin", Count: 2}, {Label: "user", Count: 98}}, r.err
}

func (r *fakeRepository) CountRequestsByStatus(context.Context, valueobject.TimeRange) ([]repository.LabeledCount, error) {
	return []repository.LabeledCount{{Label: "completed", Count: 3}, {Label: "pending", Count: 1}}, r.err
}

func (r *fakeRepository) DailyRequests(context.Context, valueobject.TimeRange) ([]repository.DailyCount, error) {
	return []repository.DailyCount{
		{Day: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), Requests: 3, Completed: 2},
		{Day: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), Requests: 1, Completed: 1},
	}, r.err
}

func (r *fakeRepository) DeliveryStats(context.Context) (repository.DeliveryStats, error) {
	return repository.DeliveryStats{Total: 8, AvgPickupHours: 2.346, AvgProcessingHours: 1.5, OnTimeRate: 87.5}, r.err
}

func (r *fakeRepository) CenterLoads(context.Context) ([]repository.CenterLoad, error) {
	return []repository.CenterLoad{{Name: "North", Capacity: 200, CurrentLoad: 50}}, r.err
}

func (r *fakeRepository) MaterialTotals(context.Context) ([]repository.MaterialTotal, error) {
	return []repository.MaterialTotal{
		{Material: "plastic", WeightKg: 100, Co2FactorKg: 1.5, PricePerKg: 0.5},
		{Material: "paper", WeightKg: 50, Co2FactorKg: 0.9, PricePerKg: 0.2},
	}, r.err
}

func (r *fakeRepository) FeedbackStats(context.Context) (repository.FeedbackStats, error) {
	return repository.FeedbackStats{Count: 10, AverageRating: 4.456}, r.err
}

func (r *fakeRepository) CountAchievementsUnlocked(context.Context) (int64, error) { return 25, r.err }

func (r *fakeRepository) TopAchievements(_ context.Context, limit int) ([]repository.LabeledCount, error) {
	return []repository.LabeledCount{{Label: "First Pickup", Count: 20}}, r.err
}

func (r *fakeRepository) CountTicketsByStatus(context.Context) ([]repository.LabeledCount, error) {
	return []repository.LabeledCount{{Label: "open", Count: 2}, {Label: "resolved", Count: 5}, {Label: "closed", Count: 3}}, r.err
}

func (r *fakeRepository) FinancialTotals(context.Context) (repository.FinancialTotals, error) {
	return repository.FinancialTotals{Revenue: 1000, OperatingCosts: 400, PendingPayouts: 120, CompletedRequests: 8}, r.err
}

type fakeHost struct {
	stats port.HostStats
	err   error
}

func (h fakeHost) CollectAll(context.Context) (port.HostStats, error) { return h.stats, h.err }

func (h fakeHost) MemoryUsedPercent(context.Context) (float64, error) {
	return h.stats.MemoryPercent, h.err
}

func lookupFloat(t *testing.T, value snapshot.Value, path string) float64 {
	t.Helper()
	leaf, ok := value.Lookup(path)
	if !ok {
		t.Fatalf("missing %s", path)
	}
	f, ok := leaf.AsFloat()
	if !ok {
		t.Fatalf("%s is not a number: %s", path, leaf.Kind())
	}
	return f
}

func TestUsageSource(t *testing.T) {
	repo := &fakeRepository{}
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	src := NewUsageSource(repo, func() time.Time { return now })

	value, err := src.Fetch(context.Background(), 7)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got := lookupFloat(t, value, "totalUsers"); got != 100 {
		t.Fatalf("totalUsers = %v", got)
	}
	if got := lookupFloat(t, value, "collectionRequests.completionRate"); got != 75 {
		t.Fatalf("completionRate = %v", got)
	}
	if got := lookupFloat(t, value, "usersByRole.user"); got != 98 {
		t.Fatalf("usersByRole.user = %v", got)
	}
	if date, _ := value.Lookup("dailyRequests.1.date"); date.Text() != "2026-10-15" {
		t.Fatalf("dailyRequests.1.date = %q", date.Text())
	}
	if !repo.activeSince.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Fatalf("active window starts at %s", repo.activeSince)
	}
	if !repo.newWindow.End().Equal(now) {
		t.Fatalf("new users window ends at %s", repo.newWindow.End())
	}
}

func TestPerformanceSource(t *testing.T) {
	src := NewPerformanceSource(&fakeRepository{}, fakeHost{stats: port.HostStats{CPUPercent: 12.346, CPUCores: 4}})

	value, err := src.Fetch(context.Background(), 30)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got := lookupFloat(t, value, "averagePickupTime"); got != 2.35 {
		t.Fatalf("averagePickupTime = %v", got)
	}
	if got := lookupFloat(t, value, "centerUtilization.0.utilization"); got != 25 {
		t.Fatalf("utilization = %v", got)
	}
	if got := lookupFloat(t, value, "host.cpuUsage"); got != 12.35 {
		t.Fatalf("host.cpuUsage = %v", got)
	}

	withoutHost, err := NewPerformanceSource(&fakeRepository{}, nil).Fetch(context.Background(), 30)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, ok := withoutHost.Lookup("host"); ok {
		t.Fatal("host section must be omitted without collector")
	}
}

func TestEngagementSource(t *testing.T) {
	value, err := NewEngagementSource(&fakeRepository{}).Fetch(context.Background(), 30)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got := lookupFloat(t, value, "averageRating"); got != 4.46 {
		t.Fatalf("averageRating = %v", got)
	}
	if got := lookupFloat(t, value, "supportTickets.resolutionRate"); got != 80 {
		t.Fatalf("resolutionRate = %v", got)
	}
	if name, _ := value.Lookup("topAchievements.0.name"); name.Text() != "First Pickup" {
		t.Fatalf("topAchievements.0.name = %q", name.Text())
	}
}

func TestEnvironmentalSource(t *testing.T) {
	value, err := NewEnvironmentalSource(&fakeRepository{}).Fetch(context.Background(), 30)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got := lookupFloat(t, value, "co2Saved"); got != 195 {
		t.Fatalf("co2Saved = %v", got)
	}
	if got := lookupFloat(t, value, "totalRecycledKg"); got != 150 {
		t.Fatalf("totalRecycledKg = %v", got)
	}
	if got := lookupFloat(t, value, "materialsRecovered.paper"); got != 50 {
		t.Fatalf("materialsRecovered.paper = %v", got)
	}
	if got := lookupFloat(t, value, "treesEquivalent"); got != 8.96 {
		t.Fatalf("treesEquivalent = %v", got)
	}
}

func TestFinancialSource(t *testing.T) {
	value, err := NewFinancialSource(&fakeRepository{}).Fetch(context.Background(), 30)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got := lookupFloat(t, value, "netProfit"); got != 600 {
		t.Fatalf("netProfit = %v", got)
	}
	if got := lookupFloat(t, value, "profitMargin"); got != 60 {
		t.Fatalf("profitMargin = %v", got)
	}
	if got := lookupFloat(t, value, "averageRequestValue"); got != 125 {
		t.Fatalf("averageRequestValue = %v", got)
	}
	if got := lookupFloat(t, value, "revenueByMaterial.plastic"); got != 50 {
		t.Fatalf("revenueByMaterial.plastic = %v", got)
	}
}

func TestSourcesWrapRepositoryErrors(t *testing.T) {
	cause := errors.New("connection reset")
	repo := &fakeRepository{err: cause}

	sources := []port.MetricSource{
		NewUsageSource(repo, nil),
		NewPerformanceSource(repo, nil),
		NewEngagementSource(repo),
		NewEnvironmentalSource(repo),
		NewFinancialSource(repo),
	}

	for _, src := range sources {
		t.Run(src.Type().String(), func(t *testing.T) {
			_, err := src.Fetch(context.Background(), 30)
			if !errors.Is(err, errs.ErrSourceFetch) {
				t.Fatalf("expected ErrSourceFetch, got %v", err)
			}
			if !errors.Is(err, cause) {
				t.Fatalf("expected wrapped cause, got %v", err)
			}

			var sourceErr *errs.SourceFetchError
			if !errors.As(err, &sourceErr) || sourceErr.Source != src.Type().String() {
				t.Fatalf("expected source name %q in error, got %v", src.Type(), err)
			}
		})
	}
}

type memoryCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return port.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Close() error { return nil }

type countingSource struct {
	calls int
	value snapshot.Value
	err   error
}

func (s *countingSource) Type() valueobject.ReportType { return valueobject.Financial }

func (s *countingSource) Fetch(context.Context, int) (snapshot.Value, error) {
	s.calls++
	return s.value, s.err
}

func TestCachedSource_HitAfterMiss(t *testing.T) {
	inner := &countingSource{value: snapshot.Map(
		snapshot.F("totalRevenue", snapshot.Float(10.5)),
		snapshot.F("revenueByMaterial", snapshot.Map(snapshot.F("glass", snapshot.Int(3)))),
	)}
	cache := newMemoryCache()
	src := NewCachedSource(inner, cache, time.Minute, logger.New("error"))
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return now }

	first, err := src.Fetch(context.Background(), 30)
	if err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}
	second, err := src.Fetch(context.Background(), 30)
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", inner.calls)
	}
	if !first.Equal(second) {
		t.Fatal("cached value differs from fetched value")
	}
	if keys := second.Keys(); len(keys) != 2 || keys[0] != "totalRevenue" {
		t.Fatalf("cached value lost key order: %v", keys)
	}

	if _, err := src.Fetch(context.Background(), 7); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("different window must bypass cached entry, calls = %d", inner.calls)
	}
}

func TestCachedSource_CacheFailureFallsThrough(t *testing.T) {
	inner := &countingSource{value: snapshot.Map(snapshot.F("ok", snapshot.Bool(true)))}
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	src := NewCachedSource(inner, cache, time.Minute, logger.New("error"))

	value, err := src.Fetch(context.Background(), 30)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if ok, _ := value.Get("ok"); ok.Text() != "true" {
		t.Fatalf("unexpected value %v", value)
	}
	if inner.calls != 1 {
		t.Fatalf("expected upstream call, got %d", inner.calls)
	}
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	inner := &countingSource{err: errs.NewSourceFetchError("financial", errors.New("boom"))}
	cache := newMemoryCache()
	src := NewCachedSource(inner, cache, time.Minute, logger.New("error"))

	if _, err := src.Fetch(context.Background(), 30); !errors.Is(err, errs.ErrSourceFetch) {
		t.Fatalf("expected source error, got %v", err)
	}
	if cache.sets != 0 {
		t.Fatalf("errors must not be cached, sets = %d", cache.sets)
	}
}
