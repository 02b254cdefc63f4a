package encoding

import (
	"encoding/json"

	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// JSONFormat - отформатированный JSON с отступом в два пробела
type JSONFormat struct{}

// NewJSONFormat создает JSON формат
func NewJSONFormat() *JSONFormat {
	return &JSONFormat{}
}

func (f *JSONFormat) Name() valueobject.ExportFormat { return valueobject.JSON }

// Encode сохраняет порядок ключей mapping'ов
func (f *JSONFormat) Encode(value snapshot.Value) ([]byte, error) {
	return json.MarshalIndent(value, "", "  ")
}
