package port

import (
	"context"

	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// MetricSource определяет источник snapshot'а одного аналитического измерения (Port)
// Реализация будет в Infrastructure слое
type MetricSource interface {
	// Type возвращает тип отчета, который обслуживает источник
	Type() valueobject.ReportType

	// Fetch возвращает snapshot. dateRangeDays учитывают только источники,
	// зависящие от окна; остальные возвращают срез на текущий момент.
	// При ошибке upstream возвращается *errs.SourceFetchError, частичных данных нет.
	Fetch(ctx context.Context, dateRangeDays int) (snapshot.Value, error)
}
