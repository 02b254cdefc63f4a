package port

import (
	"context"
	"time"
)

// Payload - закодированный отчет, готовый к выгрузке
type Payload struct {
	Key         string // относительный ключ объекта в хранилище
	Filename    string // имя файла для скачивания
	ContentType string
	Body        []byte
	SessionID   string
}

// ExportLocation описывает, куда попал payload
type ExportLocation struct {
	Key        string
	URL        string
	SizeBytes  int64
	ExportedAt time.Time
}

// ExportSink принимает payload и сохраняет/отдает его (Port)
// Ошибка передачи оборачивает errs.ErrExport
type ExportSink interface {
	Export(ctx context.Context, payload Payload) (ExportLocation, error)
}

// ExportObject - объект в хранилище выгрузок
type ExportObject struct {
	Key          string
	URL          string
	SizeBytes    int64
	LastModified time.Time
}

// ExportObjectLister перечисляет ранее выгруженные объекты по префиксу
type ExportObjectLister interface {
	ListObjects(ctx context.Context, prefix string, limit int) ([]ExportObject, error)
	GetObjectURL(ctx context.Context, key string) (string, error)
}
