package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

func newMockRepository(t *testing.T) (*PostgresRecyclingRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("open sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresRecyclingRepository(db, time.Second), mock
}

func testWindow(t *testing.T) valueobject.TimeRange {
	t.Helper()
	window, err := valueobject.NewTrailingDays(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), 7)
	if err != nil {
		t.Fatalf("build window: %v", err)
	}
	return window
}

func TestCountProfiles(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM profiles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountProfiles(context.Background())
	if err != nil {
		t.Fatalf("CountProfiles() error = %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCountRequestsByStatus_UsesWindowAndLabelsNulls(t *testing.T) {
	repo, mock := newMockRepository(t)
	window := testWindow(t)

	mock.ExpectQuery(`FROM collection_requests\s+WHERE created_at >= \$1 AND created_at <= \$2\s+GROUP BY status`).
		WithArgs(window.Start(), window.End()).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("completed", 10).
			AddRow(nil, 2).
			AddRow("pending", 3))

	counts, err := repo.CountRequestsByStatus(context.Background(), window)
	if err != nil {
		t.Fatalf("CountRequestsByStatus() error = %v", err)
	}

	want := []struct {
		label string
		count int64
	}{{"completed", 10}, {"unknown", 2}, {"pending", 3}}
	if len(counts) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(counts))
	}
	for i, w := range want {
		if counts[i].Label != w.label || counts[i].Count != w.count {
			t.Fatalf("row %d: expected %s=%d, got %s=%d", i, w.label, w.count, counts[i].Label, counts[i].Count)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDailyRequests(t *testing.T) {
	repo, mock := newMockRepository(t)
	window := testWindow(t)

	day1 := time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	mock.ExpectQuery(`date_trunc\('day', created_at\)`).
		WithArgs(window.Start(), window.End()).
		WillReturnRows(sqlmock.NewRows([]string{"day", "requests", "completed"}).
			AddRow(day1, 5, 3).
			AddRow(day2, 8, 6))

	series, err := repo.DailyRequests(context.Background(), window)
	if err != nil {
		t.Fatalf("DailyRequests() error = %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	if !series[1].Day.Equal(day2) || series[1].Requests != 8 || series[1].Completed != 6 {
		t.Fatalf("unexpected second point %+v", series[1])
	}
}

func TestDeliveryStats_NullAggregatesBecomeZero(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM deliveries`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "pickup", "processing", "on_time"}).
			AddRow(0, nil, nil, nil))

	stats, err := repo.DeliveryStats(context.Background())
	if err != nil {
		t.Fatalf("DeliveryStats() error = %v", err)
	}
	if stats.Total != 0 || stats.AvgPickupHours != 0 || stats.AvgProcessingHours != 0 || stats.OnTimeRate != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestFeedbackStats(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\), AVG\(rating\) FROM feedback`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(12, 4.25))

	stats, err := repo.FeedbackStats(context.Background())
	if err != nil {
		t.Fatalf("FeedbackStats() error = %v", err)
	}
	if stats.Count != 12 || stats.AverageRating != 4.25 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestTopAchievements_PassesLimit(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM achievements a`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"name", "unlocked"}).
			AddRow("First Pickup", 30).
			AddRow("Eco Hero", 12))

	top, err := repo.TopAchievements(context.Background(), 3)
	if err != nil {
		t.Fatalf("TopAchievements() error = %v", err)
	}
	if len(top) != 2 || top[0].Label != "First Pickup" {
		t.Fatalf("unexpected achievements %+v", top)
	}
}

func TestQueryErrorsAreWrapped(t *testing.T) {
	repo, mock := newMockRepository(t)
	cause := errors.New("relation does not exist")

	mock.ExpectQuery(`FROM recycling_centers`).WillReturnError(cause)

	_, err := repo.CenterLoads(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "recycling centers") {
		t.Fatalf("expected query context in error, got %q", err.Error())
	}
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("open sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewPostgresRecyclingRepository(db, time.Second)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	if err := repo.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}

	mock.ExpectPing()
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
