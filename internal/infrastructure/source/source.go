// Package source содержит источники snapshot'ов для отчетов.
// Каждый источник обслуживает один тип отчета и читает данные через
// repository.RecyclingRepository.
package source

import (
	"math"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// Clock возвращает текущее время; подменяется в тестах
type Clock func() time.Time

func fetchError(reportType valueobject.ReportType, err error) error {
	return errs.NewSourceFetchError(reportType.String(), err)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return round2(part / total * 100)
}

func countsToMap(counts []repository.LabeledCount) snapshot.Value {
	fields := make([]snapshot.Field, 0, len(counts))
	for _, c := range counts {
		fields = append(fields, snapshot.F(c.Label, snapshot.Int(c.Count)))
	}
	return snapshot.Map(fields...)
}

func sumCounts(counts []repository.LabeledCount) int64 {
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	return total
}

func countFor(counts []repository.LabeledCount, label string) int64 {
	for _, c := range counts {
		if c.Label == label {
			return c.Count
		}
	}
	return 0
}
