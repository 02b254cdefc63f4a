package dto

import "time"

// ExportDTO представляет выполненную выгрузку отчета
type ExportDTO struct {
	ExportID    string    `json:"exportId,omitempty"`
	ReportType  string    `json:"reportType"`
	Format      string    `json:"format"`
	Filename    string    `json:"filename,omitempty"`
	Key         string    `json:"key"`
	URL         string    `json:"url,omitempty"`
	SizeBytes   int64     `json:"sizeBytes"`
	GeneratedAt time.Time `json:"generatedAt,omitempty"`
	ExportedAt  time.Time `json:"exportedAt"`
}

// ExportListDTO - страница списка выгрузок
type ExportListDTO struct {
	Items      []ExportDTO `json:"items"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

// ReportExportedEvent публикуется после успешной выгрузки
type ReportExportedEvent struct {
	ExportDTO
	SessionID string `json:"sessionId"`
}

// HealthAlertEvent публикуется для snapshot'ов с алертами
type HealthAlertEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Status    string      `json:"status"`
	Alerts    []*AlertDTO `json:"alerts"`
}
