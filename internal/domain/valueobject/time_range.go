package valueobject

import (
	"errors"
	"fmt"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
)

const day = 24 * time.Hour

// TimeRange представляет временное окно отчета (Value Object)
// Иммутабельный объект
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange создает новый TimeRange с валидацией
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, errors.New("start and end times cannot be zero")
	}

	if start.After(end) {
		return TimeRange{}, errors.New("start time must be before end time")
	}

	return TimeRange{
		start: start,
		end:   end,
	}, nil
}

// NewTrailingDays создает окно [asOf - days, asOf]
func NewTrailingDays(asOf time.Time, days int) (TimeRange, error) {
	if days <= 0 {
		return TimeRange{}, fmt.Errorf("%w: days must be positive, got %d", errs.ErrInvalidDateRange, days)
	}
	if asOf.IsZero() {
		return TimeRange{}, fmt.Errorf("%w: reference time cannot be zero", errs.ErrInvalidDateRange)
	}

	return TimeRange{
		start: asOf.Add(-time.Duration(days) * day),
		end:   asOf,
	}, nil
}

// Start возвращает начальное время
func (tr TimeRange) Start() time.Time {
	return tr.start
}

// End возвращает конечное время
func (tr TimeRange) End() time.Time {
	return tr.end
}

// Duration возвращает длительность диапазона
func (tr TimeRange) Duration() time.Duration {
	return tr.end.Sub(tr.start)
}

// Days возвращает длину окна в полных сутках
func (tr TimeRange) Days() int {
	return int(tr.Duration() / day)
}

// Contains проверяет, попадает ли указанное время в диапазон
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.start) && !t.After(tr.end)
}

// Overlaps проверяет, пересекаются ли два временных диапазона
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.start.Before(other.end) && other.start.Before(tr.end)
}
