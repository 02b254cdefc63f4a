package encoding

import (
	"fmt"
	"sort"

	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// Format кодирует snapshot в один проводной формат
type Format interface {
	Name() valueobject.ExportFormat
	Encode(value snapshot.Value) ([]byte, error)
}

// Registry выбирает Format по имени формата.
// Реализует port.ReportEncoder
type Registry struct {
	formats map[valueobject.ExportFormat]Format
}

// NewRegistry создает реестр с переданными форматами
func NewRegistry(formats ...Format) *Registry {
	r := &Registry{formats: make(map[valueobject.ExportFormat]Format, len(formats))}
	for _, f := range formats {
		r.formats[f.Name()] = f
	}
	return r
}

// NewDefaultRegistry создает реестр с JSON и CSV
func NewDefaultRegistry() *Registry {
	return NewRegistry(NewJSONFormat(), NewCSVFormat())
}

// Encode кодирует отчет целиком. Отчет не изменяется.
func (r *Registry) Encode(report *entity.Report, format valueobject.ExportFormat) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("%w: report is nil", errs.ErrEncoding)
	}
	return r.EncodeValue(report.ToValue(), format)
}

// EncodeValue кодирует произвольное значение snapshot'а
func (r *Registry) EncodeValue(value snapshot.Value, format valueobject.ExportFormat) ([]byte, error) {
	f, ok := r.formats[format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", errs.ErrEncoding, format.String())
	}

	data, err := f.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrEncoding, format.String(), err)
	}
	return data, nil
}

// Formats возвращает зарегистрированные форматы в алфавитном порядке
func (r *Registry) Formats() []valueobject.ExportFormat {
	names := make([]valueobject.ExportFormat, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
