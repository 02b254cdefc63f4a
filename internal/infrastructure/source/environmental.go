package source

import (
	"context"

	"github.com/dreschagin/recycling-dashboard/internal/domain/repository"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// Годовое поглощение CO2 одним деревом, кг
const co2PerTreeKg = 21.77

// EnvironmentalSource - экологический эффект собранных материалов
type EnvironmentalSource struct {
	repo repository.RecyclingRepository
}

// NewEnvironmentalSource создает источник environmental
func NewEnvironmentalSource(repo repository.RecyclingRepository) *EnvironmentalSource {
	return &EnvironmentalSource{repo: repo}
}

func (s *EnvironmentalSource) Type() valueobject.ReportType {
	return valueobject.Environmental
}

func (s *EnvironmentalSource) Fetch(ctx context.Context, _ int) (snapshot.Value, error) {
	materials, err := s.repo.MaterialTotals(ctx)
	if err != nil {
		return snapshot.Value{}, fetchError(s.Type(), err)
	}

	var co2Saved, totalWeight float64
	recovered := make([]snapshot.Field, 0, len(materials))
	for _, m := range materials {
		co2Saved += m.WeightKg * m.Co2FactorKg
		totalWeight += m.WeightKg
		recovered = append(recovered, snapshot.F(m.Material, snapshot.Float(round2(m.WeightKg))))
	}

	return snapshot.Map(
		snapshot.F("co2Saved", snapshot.Float(round2(co2Saved))),
		snapshot.F("materialsRecovered", snapshot.Map(recovered...)),
		snapshot.F("totalRecycledKg", snapshot.Float(round2(totalWeight))),
		snapshot.F("treesEquivalent", snapshot.Float(round2(co2Saved/co2PerTreeKg))),
		snapshot.F("landfillDivertedKg", snapshot.Float(round2(totalWeight))),
	), nil
}
