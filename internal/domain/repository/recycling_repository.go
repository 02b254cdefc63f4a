package repository

import (
	"context"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// LabeledCount - количество записей в группе
type LabeledCount struct {
	Label string
	Count int64
}

// DailyCount - дневная точка ряда заявок
type DailyCount struct {
	Day       time.Time
	Requests  int64
	Completed int64
}

// DeliveryStats - агрегаты по доставкам
type DeliveryStats struct {
	Total              int64
	AvgPickupHours     float64
	AvgProcessingHours float64
	OnTimeRate         float64 // %
}

// CenterLoad - загрузка пункта приема
type CenterLoad struct {
	Name        string
	Capacity    float64
	CurrentLoad float64
}

// MaterialTotal - собранный объем по материалу
type MaterialTotal struct {
	Material    string
	WeightKg    float64
	Co2FactorKg float64 // кг CO2 на кг материала
	PricePerKg  float64
}

// FeedbackStats - агрегаты отзывов
type FeedbackStats struct {
	Count         int64
	AverageRating float64
}

// FinancialTotals - финансовые агрегаты
type FinancialTotals struct {
	Revenue           float64
	OperatingCosts    float64
	PendingPayouts    float64
	CompletedRequests int64
}

// RecyclingRepository определяет read-only доступ к данным платформы (Port)
// Реализации в Infrastructure слое: PostgreSQL и синтетический генератор
type RecyclingRepository interface {
	// Ping проверяет доступность хранилища
	Ping(ctx context.Context) error

	// CountProfiles возвращает общее число профилей
	CountProfiles(ctx context.Context) (int64, error)

	// CountActiveProfiles возвращает число профилей, активных после since
	CountActiveProfiles(ctx context.Context, since time.Time) (int64, error)

	// CountNewProfiles возвращает число профилей, созданных в окне
	CountNewProfiles(ctx context.Context, window valueobject.TimeRange) (int64, error)

	// CountProfilesByRole группирует профили по роли
	CountProfilesByRole(ctx context.Context) ([]LabeledCount, error)

	// CountRequestsByStatus группирует заявки на вывоз в окне по статусу
	CountRequestsByStatus(ctx context.Context, window valueobject.TimeRange) ([]LabeledCount, error)

	// DailyRequests возвращает дневной ряд заявок в окне
	DailyRequests(ctx context.Context, window valueobject.TimeRange) ([]DailyCount, error)

	// DeliveryStats возвращает агрегаты по доставкам
	DeliveryStats(ctx context.Context) (DeliveryStats, error)

	// CenterLoads возвращает загрузку пунктов приема
	CenterLoads(ctx context.Context) ([]CenterLoad, error)

	// MaterialTotals возвращает объемы по типам материалов
	MaterialTotals(ctx context.Context) ([]MaterialTotal, error)

	// FeedbackStats возвращает агрегаты отзывов
	FeedbackStats(ctx context.Context) (FeedbackStats, error)

	// CountAchievementsUnlocked возвращает число полученных достижений
	CountAchievementsUnlocked(ctx context.Context) (int64, error)

	// TopAchievements возвращает самые частые достижения
	TopAchievements(ctx context.Context, limit int) ([]LabeledCount, error)

	// CountTicketsByStatus группирует обращения в поддержку по статусу
	CountTicketsByStatus(ctx context.Context) ([]LabeledCount, error)

	// FinancialTotals возвращает финансовые агрегаты
	FinancialTotals(ctx context.Context) (FinancialTotals, error)
}
