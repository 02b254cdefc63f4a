package source

import (
	"context"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// UsageSource - пользователи и заявки на вывоз в пределах окна.
// Единственный источник, учитывающий dateRangeDays.
type UsageSource struct {
	repo repository.RecyclingRepository
	now  Clock
}

// NewUsageSource создает источник usage
func NewUsageSource(repo repository.RecyclingRepository, now Clock) *UsageSource {
	if now == nil {
		now = time.Now
	}
	return &UsageSource{repo: repo, now: now}
}

func (s *UsageSource) Type() valueobject.ReportType {
	return valueobject.Usage
}

func (s *UsageSource) Fetch(ctx context.Context, dateRangeDays int) (snapshot.Value, error) {
	window, err := valueobject.NewTrailingDays(s.now().UTC(), dateRangeDays)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}

	total, err := s.repo.CountProfiles(ctx)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}
	active, err := s.repo.CountActiveProfiles(ctx, window.Start())
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}
	newUsers, err := s.repo.CountNewProfiles(ctx, window)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}
	byRole, err := s.repo.CountProfilesByRole(ctx)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}
	byStatus, err := s.repo.CountRequestsByStatus(ctx, window)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}
	daily, err := s.repo.DailyRequests(ctx, window)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}

	requests := sumCounts(byStatus)
	completed := countFor(byStatus, "completed")

	series := make([]snapshot.Value, 0, len(daily))
	for _, d := range daily {
		series = append(series, snapshot.Map(
			snapshot.F("date", snapshot.String(d.Day.UTC().Format("2006-01-02"))),
			snapshot.F("requests", snapshot.Int(d.Requests)),
			snapshot.F("completed", snapshot.Int(d.Completed)),
		))
	}

	return snapshot.Map(
		snapshot.F("totalUsers", snapshot.Int(total)),
		snapshot.F("activeUsers", snapshot.Int(active)),
		snapshot.F("newUsers", snapshot.Int(newUsers)),
		snapshot.F("usersByRole", countsToMap(byRole)),
		snapshot.F("collectionRequests", snapshot.Map(
			snapshot.F("total", snapshot.Int(requests)),
			snapshot.F("byStatus", countsToMap(byStatus)),
			snapshot.F("completionRate", snapshot.Float(percent(float64(completed), float64(requests)))),
		)),
		snapshot.F("dailyRequests", snapshot.Seq(series...)),
	), nil
}
