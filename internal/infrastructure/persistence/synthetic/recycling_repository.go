package synthetic

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

var (
	roles           = []string{"citizen", "collector", "center_operator", "admin"}
	requestStatuses = []string{"pending", "approved", "scheduled", "completed", "cancelled"}
	ticketStatuses  = []string{"open", "in_progress", "resolved", "closed"}
	centerNames     = []string{"North Hub", "Riverside", "Industrial Park", "Old Town"}
	achievements    = []string{"First Pickup", "Eco Warrior", "Plastic Free Week", "Metal Master", "Community Hero", "Paper Saver"}
	materials       = []repository.MaterialTotal{
		{Material: "Plastics", Co2FactorKg: 1.5, PricePerKg: 0.35},
		{Material: "Paper", Co2FactorKg: 0.9, PricePerKg: 0.12},
		{Material: "Glass", Co2FactorKg: 0.3, PricePerKg: 0.05},
		{Material: "Metals", Co2FactorKg: 4.0, PricePerKg: 1.10},
		{Material: "Electronics", Co2FactorKg: 2.5, PricePerKg: 2.40},
	}
)

// RecyclingRepository генерирует правдоподобные данные вместо запросов к БД.
// Используется в режиме DATA_SOURCE_MODE=synthetic и в демо-окружении.
type RecyclingRepository struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRecyclingRepository создает генератор; одинаковый seed дает одинаковую последовательность
func NewRecyclingRepository(seed int64) *RecyclingRepository {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RecyclingRepository{rnd: rand.New(rand.NewSource(seed))}
}

func (r *RecyclingRepository) intn(min, max int) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(min + r.rnd.Intn(max-min+1))
}

func (r *RecyclingRepository) float(min, max float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return min + r.rnd.Float64()*(max-min)
}

func (r *RecyclingRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *RecyclingRepository) CountProfiles(ctx context.Context) (int64, error) {
	return r.intn(1200, 1500), ctx.Err()
}

func (r *RecyclingRepository) CountActiveProfiles(ctx context.Context, since time.Time) (int64, error) {
	days := time.Since(since).Hours() / 24
	if days < 1 {
		return r.intn(40, 120), ctx.Err()
	}
	return r.intn(600, 900), ctx.Err()
}

func (r *RecyclingRepository) CountNewProfiles(ctx context.Context, window valueobject.TimeRange) (int64, error) {
	days := window.Days()
	if days < 1 {
		days = 1
	}
	return r.intn(2*days, 5*days), ctx.Err()
}

func (r *RecyclingRepository) CountProfilesByRole(ctx context.Context) ([]repository.LabeledCount, error) {
	return []repository.LabeledCount{
		{Label: roles[0], Count: r.intn(1000, 1300)},
		{Label: roles[1], Count: r.intn(60, 120)},
		{Label: roles[2], Count: r.intn(10, 25)},
		{Label: roles[3], Count: r.intn(2, 5)},
	}, ctx.Err()
}

func (r *RecyclingRepository) CountRequestsByStatus(
	ctx context.Context,
	window valueobject.TimeRange,
) ([]repository.LabeledCount, error) {
	days := window.Days()
	if days < 1 {
		days = 1
	}

	counts := make([]repository.LabeledCount, 0, len(requestStatuses))
	for _, status := range requestStatuses {
		perDay := r.intn(1, 8)
		if status == "completed" {
			perDay = r.intn(10, 20)
		}
		counts = append(counts, repository.LabeledCount{Label: status, Count: perDay * int64(days)})
	}
	return counts, ctx.Err()
}

func (r *RecyclingRepository) DailyRequests(ctx context.Context, window valueobject.TimeRange) ([]repository.DailyCount, error) {
	start := window.Start().UTC().Truncate(24 * time.Hour)
	end := window.End().UTC()

	series := make([]repository.DailyCount, 0, window.Days()+1)
	for day := start; !day.After(end); day = day.Add(24 * time.Hour) {
		requests := r.intn(20, 45)
		series = append(series, repository.DailyCount{
			Day:       day,
			Requests:  requests,
			Completed: requests * r.intn(55, 90) / 100,
		})
	}
	return series, ctx.Err()
}

func (r *RecyclingRepository) DeliveryStats(ctx context.Context) (repository.DeliveryStats, error) {
	return repository.DeliveryStats{
		Total:              r.intn(3000, 4500),
		AvgPickupHours:     r.float(4, 18),
		AvgProcessingHours: r.float(12, 48),
		OnTimeRate:         r.float(85, 98),
	}, ctx.Err()
}

func (r *RecyclingRepository) CenterLoads(ctx context.Context) ([]repository.CenterLoad, error) {
	centers := make([]repository.CenterLoad, 0, len(centerNames))
	for _, name := range centerNames {
		capacity := float64(r.intn(5, 20)) * 1000
		centers = append(centers, repository.CenterLoad{
			Name:        name,
			Capacity:    capacity,
			CurrentLoad: capacity * r.float(0.3, 0.95),
		})
	}
	return centers, ctx.Err()
}

func (r *RecyclingRepository) MaterialTotals(ctx context.Context) ([]repository.MaterialTotal, error) {
	totals := make([]repository.MaterialTotal, 0, len(materials))
	for _, m := range materials {
		m.WeightKg = r.float(500, 5000)
		totals = append(totals, m)
	}
	return totals, ctx.Err()
}

func (r *RecyclingRepository) FeedbackStats(ctx context.Context) (repository.FeedbackStats, error) {
	return repository.FeedbackStats{
		Count:         r.intn(200, 400),
		AverageRating: r.float(3.8, 4.8),
	}, ctx.Err()
}

func (r *RecyclingRepository) CountAchievementsUnlocked(ctx context.Context) (int64, error) {
	return r.intn(2000, 3500), ctx.Err()
}

func (r *RecyclingRepository) TopAchievements(ctx context.Context, limit int) ([]repository.LabeledCount, error) {
	if limit <= 0 || limit > len(achievements) {
		limit = len(achievements)
	}

	top := make([]repository.LabeledCount, 0, limit)
	ceiling := 900
	for _, name := range achievements[:limit] {
		count := r.intn(ceiling/2, ceiling)
		top = append(top, repository.LabeledCount{Label: name, Count: count})
		ceiling = int(count)
	}
	return top, ctx.Err()
}

func (r *RecyclingRepository) CountTicketsByStatus(ctx context.Context) ([]repository.LabeledCount, error) {
	counts := make([]repository.LabeledCount, 0, len(ticketStatuses))
	for _, status := range ticketStatuses {
		counts = append(counts, repository.LabeledCount{Label: status, Count: r.intn(5, 60)})
	}
	return counts, ctx.Err()
}

func (r *RecyclingRepository) FinancialTotals(ctx context.Context) (repository.FinancialTotals, error) {
	revenue := r.float(40000, 60000)
	return repository.FinancialTotals{
		Revenue:           revenue,
		OperatingCosts:    revenue * r.float(0.55, 0.75),
		PendingPayouts:    r.float(2000, 6000),
		CompletedRequests: r.intn(1500, 2500),
	}, ctx.Err()
}
