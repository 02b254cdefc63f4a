package source

import (
	"context"

	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// FinancialSource - выручка, затраты и выплаты
type FinancialSource struct {
	repo repository.RecyclingRepository
}

// NewFinancialSource создает источник financial
func NewFinancialSource(repo repository.RecyclingRepository) *FinancialSource {
	return &FinancialSource{repo: repo}
}

func (s *FinancialSource) Type() valueobject.ReportType {
	return valueobject.Financial
}

func (s *FinancialSource) Fetch(ctx context.Context, _ int) (snapshot.Value, error) {
	totals, err := s.repo.FinancialTotals(ctx)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}
	materials, err := s.repo.MaterialTotals(ctx)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}

	byMaterial := make([]snapshot.Field, 0, len(materials))
	for _, m := range materials {
		byMaterial = append(byMaterial, snapshot.F(m.Material, snapshot.Float(round2(m.WeightKg*m.PricePerKg))))
	}

	profit := totals.Revenue - totals.OperatingCosts
	var averageValue float64
	if totals.CompletedRequests > 0 {
		averageValue = totals.Revenue / float64(totals.CompletedRequests)
	}

	return snapshot.Map(
		snapshot.F("totalRevenue", snapshot.Float(round2(totals.Revenue))),
		snapshot.F("operatingCosts", snapshot.Float(round2(totals.OperatingCosts))),
		snapshot.F("netProfit", snapshot.Float(round2(profit))),
		snapshot.F("profitMargin", snapshot.Float(percent(profit, totals.Revenue))),
		snapshot.F("revenueByMaterial", snapshot.Map(byMaterial...)),
		snapshot.F("averageRequestValue", snapshot.Float(round2(averageValue))),
		snapshot.F("pendingPayouts", snapshot.Float(round2(totals.PendingPayouts))),
	), nil
}
