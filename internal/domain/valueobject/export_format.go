package valueobject

import (
	"fmt"
	"strings"

	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
)

// ExportFormat - формат кодирования отчета
type ExportFormat string

const (
	JSON ExportFormat = "json"
	CSV  ExportFormat = "csv"
)

// ParseExportFormat нормализует формат; пустая строка означает JSON
func ParseExportFormat(raw string) (ExportFormat, error) {
	format := ExportFormat(strings.ToLower(strings.TrimSpace(raw)))
	if format == "" {
		return JSON, nil
	}
	if err := format.Validate(); err != nil {
		return "", err
	}
	return format, nil
}

// Validate проверяет формат
func (f ExportFormat) Validate() error {
	switch f {
	case JSON, CSV:
		return nil
	default:
		return fmt.Errorf("%w: %q", errs.ErrUnsupportedFormat, string(f))
	}
}

// Extension возвращает расширение файла без точки
func (f ExportFormat) Extension() string {
	return string(f)
}

// ContentType возвращает MIME тип payload'а
func (f ExportFormat) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// String возвращает строковое представление формата
func (f ExportFormat) String() string {
	return string(f)
}
