package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownReportType - запрошен тип отчета, которого нет
	ErrUnknownReportType = errors.New("unknown report type")

	// ErrSourceFetch - источник метрик не смог получить данные
	ErrSourceFetch = errors.New("metric source fetch failed")

	// ErrEncoding - snapshot не удалось закодировать
	ErrEncoding = errors.New("report encoding failed")

	// ErrExport - приемник экспорта недоступен или отказал
	ErrExport = errors.New("report export failed")

	// ErrInvalidDateRange - некорректная длина окна отчета
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrPathNotFound - в отчете нет значения по указанному пути
	ErrPathNotFound = errors.New("report path not found")

	// ErrUnsupportedFormat - запрошен формат выгрузки, которого нет в реестре
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrInvalidQuery - некорректные параметры списка выгрузок
	ErrInvalidQuery = errors.New("invalid export query")
)

// SourceFetchError описывает отказ конкретного источника метрик
type SourceFetchError struct {
	Source string
	Err    error
}

// NewSourceFetchError оборачивает ошибку источника
func NewSourceFetchError(source string, err error) *SourceFetchError {
	return &SourceFetchError{Source: source, Err: err}
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("%s source: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать с ErrSourceFetch через errors.Is
func (e *SourceFetchError) Is(target error) bool {
	return target == ErrSourceFetch
}
