package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
	_ "github.com/lib/pq"
)

const defaultQueryTimeout = 5 * time.Second

// PostgresRecyclingRepository реализует repository.RecyclingRepository для PostgreSQL
type PostgresRecyclingRepository struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewPostgresRecyclingRepository создает новый PostgreSQL repository
func NewPostgresRecyclingRepository(db *sql.DB, queryTimeout time.Duration) *PostgresRecyclingRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &PostgresRecyclingRepository{
		db:           db,
		queryTimeout: queryTimeout,
	}
}

// Ping проверяет доступность БД
func (r *PostgresRecyclingRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// CountProfiles возвращает общее число профилей
func (r *PostgresRecyclingRepository) CountProfiles(ctx context.Context) (int64, error) {
	return r.count(ctx, "profiles", `SELECT COUNT(*) FROM profiles`)
}

// CountActiveProfiles возвращает число профилей, активных после since
func (r *PostgresRecyclingRepository) CountActiveProfiles(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, "active profiles", `
		SELECT COUNT(*) FROM profiles
		WHERE last_active_at >= $1
	`, since)
}

// CountNewProfiles возвращает число профилей, созданных в окне
func (r *PostgresRecyclingRepository) CountNewProfiles(ctx context.Context, window valueobject.TimeRange) (int64, error) {
	return r.count(ctx, "new profiles", `
		SELECT COUNT(*) FROM profiles
		WHERE created_at >= $1 AND created_at <= $2
	`, window.Start(), window.End())
}

// CountProfilesByRole группирует профили по роли
func (r *PostgresRecyclingRepository) CountProfilesByRole(ctx context.Context) ([]repository.LabeledCount, error) {
	return r.labeledCounts(ctx, "profiles by role", `
		SELECT role, COUNT(*) FROM profiles
		GROUP BY role
		ORDER BY role
	`)
}

// CountRequestsByStatus группирует заявки на вывоз в окне по статусу
func (r *PostgresRecyclingRepository) CountRequestsByStatus(
	ctx context.Context,
	window valueobject.TimeRange,
) ([]repository.LabeledCount, error) {
	return r.labeledCounts(ctx, "requests by status", `
		SELECT status, COUNT(*) FROM collection_requests
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY status
		ORDER BY status
	`, window.Start(), window.End())
}

// DailyRequests возвращает дневной ряд заявок в окне
func (r *PostgresRecyclingRepository) DailyRequests(
	ctx context.Context,
	window valueobject.TimeRange,
) ([]repository.DailyCount, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT
			date_trunc('day', created_at) AS day,
			COUNT(*) AS requests,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed
		FROM collection_requests
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.QueryContext(ctx, query, window.Start(), window.End())
	if err != nil {
		return nil, fmt.Errorf("failed to query daily requests: %w", err)
	}
	defer rows.Close()

	series := make([]repository.DailyCount, 0, window.Days()+1)
	for rows.Next() {
		var point repository.DailyCount
		if err := rows.Scan(&point.Day, &point.Requests, &point.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan daily requests: %w", err)
		}
		series = append(series, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return series, nil
}

// DeliveryStats возвращает агрегаты по доставкам
func (r *PostgresRecyclingRepository) DeliveryStats(ctx context.Context) (repository.DeliveryStats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT
			COUNT(*),
			AVG(EXTRACT(EPOCH FROM (picked_up_at - scheduled_at)) / 3600),
			AVG(EXTRACT(EPOCH FROM (processed_at - picked_up_at)) / 3600),
			100.0 * COUNT(*) FILTER (WHERE delivered_at <= scheduled_at + INTERVAL '1 day')
				/ NULLIF(COUNT(*) FILTER (WHERE delivered_at IS NOT NULL), 0)
		FROM deliveries
	`

	var stats repository.DeliveryStats
	var pickup, processing, onTime sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total, &pickup, &processing, &onTime); err != nil {
		return repository.DeliveryStats{}, fmt.Errorf("failed to query delivery stats: %w", err)
	}

	stats.AvgPickupHours = nullFloat(pickup)
	stats.AvgProcessingHours = nullFloat(processing)
	stats.OnTimeRate = nullFloat(onTime)
	return stats, nil
}

// CenterLoads возвращает загрузку пунктов приема
func (r *PostgresRecyclingRepository) CenterLoads(ctx context.Context) ([]repository.CenterLoad, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT name, COALESCE(capacity, 0), COALESCE(current_load, 0)
		FROM recycling_centers
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recycling centers: %w", err)
	}
	defer rows.Close()

	centers := make([]repository.CenterLoad, 0)
	for rows.Next() {
		var c repository.CenterLoad
		if err := rows.Scan(&c.Name, &c.Capacity, &c.CurrentLoad); err != nil {
			return nil, fmt.Errorf("failed to scan recycling center: %w", err)
		}
		centers = append(centers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return centers, nil
}

// MaterialTotals возвращает объемы по типам материалов
func (r *PostgresRecyclingRepository) MaterialTotals(ctx context.Context) ([]repository.MaterialTotal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			m.name,
			COALESCE(SUM(cr.actual_weight), 0),
			COALESCE(m.co2_factor, 0),
			COALESCE(m.price_per_kg, 0)
		FROM material_types m
		LEFT JOIN collection_requests cr
			ON cr.material_type_id = m.id AND cr.status = 'completed'
		GROUP BY m.id, m.name, m.co2_factor, m.price_per_kg
		ORDER BY m.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query material totals: %w", err)
	}
	defer rows.Close()

	totals := make([]repository.MaterialTotal, 0)
	for rows.Next() {
		var t repository.MaterialTotal
		if err := rows.Scan(&t.Material, &t.WeightKg, &t.Co2FactorKg, &t.PricePerKg); err != nil {
			return nil, fmt.Errorf("failed to scan material total: %w", err)
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return totals, nil
}

// FeedbackStats возвращает агрегаты отзывов
func (r *PostgresRecyclingRepository) FeedbackStats(ctx context.Context) (repository.FeedbackStats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var stats repository.FeedbackStats
	var rating sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), AVG(rating) FROM feedback`).Scan(&stats.Count, &rating)
	if err != nil {
		return repository.FeedbackStats{}, fmt.Errorf("failed to query feedback stats: %w", err)
	}

	stats.AverageRating = nullFloat(rating)
	return stats, nil
}

// CountAchievementsUnlocked возвращает число полученных достижений
func (r *PostgresRecyclingRepository) CountAchievementsUnlocked(ctx context.Context) (int64, error) {
	return r.count(ctx, "unlocked achievements", `SELECT COUNT(*) FROM user_achievements`)
}

// TopAchievements возвращает самые частые достижения
func (r *PostgresRecyclingRepository) TopAchievements(ctx context.Context, limit int) ([]repository.LabeledCount, error) {
	return r.labeledCounts(ctx, "top achievements", `
		SELECT a.name, COUNT(ua.achievement_id) AS unlocked
		FROM achievements a
		JOIN user_achievements ua ON ua.achievement_id = a.id
		GROUP BY a.id, a.name
		ORDER BY unlocked DESC, a.name
		LIMIT $1
	`, limit)
}

// CountTicketsByStatus группирует обращения в поддержку по статусу
func (r *PostgresRecyclingRepository) CountTicketsByStatus(ctx context.Context) ([]repository.LabeledCount, error) {
	return r.labeledCounts(ctx, "tickets by status", `
		SELECT status, COUNT(*) FROM support_tickets
		GROUP BY status
		ORDER BY status
	`)
}

// FinancialTotals возвращает финансовые агрегаты
func (r *PostgresRecyclingRepository) FinancialTotals(ctx context.Context) (repository.FinancialTotals, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT
			COALESCE(SUM(cr.actual_weight * m.price_per_kg) FILTER (WHERE cr.status = 'completed'), 0),
			COALESCE((SELECT SUM(cost) FROM deliveries), 0),
			COALESCE(SUM(cr.estimated_value) FILTER (WHERE cr.status IN ('approved', 'scheduled')), 0),
			COUNT(*) FILTER (WHERE cr.status = 'completed')
		FROM collection_requests cr
		LEFT JOIN material_types m ON m.id = cr.material_type_id
	`

	var totals repository.FinancialTotals
	err := r.db.QueryRowContext(ctx, query).Scan(
		&totals.Revenue,
		&totals.OperatingCosts,
		&totals.PendingPayouts,
		&totals.CompletedRequests,
	)
	if err != nil {
		return repository.FinancialTotals{}, fmt.Errorf("failed to query financial totals: %w", err)
	}

	return totals, nil
}

func (r *PostgresRecyclingRepository) count(ctx context.Context, what, query string, args ...interface{}) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return count, nil
}

func (r *PostgresRecyclingRepository) labeledCounts(
	ctx context.Context,
	what, query string,
	args ...interface{},
) ([]repository.LabeledCount, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	return scanLabeledCounts(rows)
}
