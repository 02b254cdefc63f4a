package source

import (
	"context"

	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

const topAchievementsLimit = 5

// EngagementSource - отзывы, достижения и обращения в поддержку
type EngagementSource struct {
	repo repository.RecyclingRepository
}

// NewEngagementSource создает источник engagement
func NewEngagementSource(repo repository.RecyclingRepository) *EngagementSource {
	return &EngagementSource{repo: repo}
}

func (s *EngagementSource) Type() valueobject.ReportType {
	return valueobject.Engagement
}

func (s *EngagementSource) Fetch(ctx context.Context, _ int) (snapshot.Value, error) {
	feedback, err := s.repo.FeedbackStats(ctx)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}
	unlocked, err := s.repo.CountAchievementsUnlocked(ctx)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}
	top, err := s.repo.TopAchievements(ctx, topAchievementsLimit)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}
	tickets, err := s.repo.CountTicketsByStatus(ctx)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}

	topList := make([]snapshot.Value, 0, len(top))
	for _, a := range top {
		topList = append(topList, snapshot.Map(
			snapshot.F("name", snapshot.String(a.Label)),
			snapshot.F("unlocked", snapshot.Int(a.Count)),
		))
	}

	totalTickets := sumCounts(tickets)
	resolved := countFor(tickets, "resolved") + countFor(tickets, "closed")

	return snapshot.Map(
		snapshot.F("feedbackCount", snapshot.Int(feedback.Count)),
		snapshot.F("averageRating", snapshot.Float(round2(feedback.AverageRating))),
		snapshot.F("achievementsUnlocked", snapshot.Int(unlocked)),
		snapshot.F("topAchievements", snapshot.Seq(topList...)),
		snapshot.F("supportTickets", snapshot.Map(
			snapshot.F("total", snapshot.Int(totalTickets)),
			snapshot.F("byStatus", countsToMap(tickets)),
			snapshot.F("resolutionRate", snapshot.Float(percent(float64(resolved), float64(totalTickets)))),
		)),
	), nil
}
