package entity

import (
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
	"github.com/google/uuid"
)

// TimestampLayout - формат временных меток в payload'ах отчетов
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Report представляет сгенерированный отчет (Aggregate Root)
// Иммутабелен после создания; не персистится
type Report struct {
	id          string
	reportType  valueobject.ReportType
	generatedAt time.Time
	window      valueobject.TimeRange
	data        snapshot.Value
	sessionID   string
}

// NewReport создает отчет (Factory Method)
func NewReport(
	reportType valueobject.ReportType,
	generatedAt time.Time,
	window valueobject.TimeRange,
	data snapshot.Value,
	sessionID string,
) (*Report, error) {
	if err := reportType.Validate(); err != nil {
		return nil, err
	}

	return &Report{
		id:          uuid.New().String(),
		reportType:  reportType,
		generatedAt: generatedAt.UTC(),
		window:      window,
		data:        data,
		sessionID:   sessionID,
	}, nil
}

// ID возвращает идентификатор отчета
func (r *Report) ID() string {
	return r.id
}

// Type возвращает тип отчета
func (r *Report) Type() valueobject.ReportType {
	return r.reportType
}

// GeneratedAt возвращает время генерации
func (r *Report) GeneratedAt() time.Time {
	return r.generatedAt
}

// Window возвращает окно дат отчета
func (r *Report) Window() valueobject.TimeRange {
	return r.window
}

// Data возвращает данные отчета
func (r *Report) Data() snapshot.Value {
	return r.data
}

// SessionID возвращает идентификатор сессии, запросившей отчет
func (r *Report) SessionID() string {
	return r.sessionID
}

// ToValue строит представление отчета для кодирования.
// Порядок ключей: type, generatedAt, dateRange, data.
func (r *Report) ToValue() snapshot.Value {
	return snapshot.Map(
		snapshot.F("type", snapshot.String(r.reportType.String())),
		snapshot.F("generatedAt", snapshot.String(FormatTimestamp(r.generatedAt))),
		snapshot.F("dateRange", snapshot.Map(
			snapshot.F("start", snapshot.String(FormatTimestamp(r.window.Start()))),
			snapshot.F("end", snapshot.String(FormatTimestamp(r.window.End()))),
		)),
		snapshot.F("data", r.data),
	)
}

// FormatTimestamp форматирует время в UTC с миллисекундами
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
