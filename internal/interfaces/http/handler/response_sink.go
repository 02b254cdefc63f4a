package handler

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
)

// ResponseSink отдает выгрузку клиенту как скачиваемый файл.
// Реализует port.ExportSink поверх http.ResponseWriter
type ResponseSink struct {
	w http.ResponseWriter
}

// NewResponseSink создает sink для одного ответа
func NewResponseSink(w http.ResponseWriter) *ResponseSink {
	return &ResponseSink{w: w}
}

// Export пишет заголовки и тело ответа
func (s *ResponseSink) Export(ctx context.Context, payload port.Payload) (port.ExportLocation, error) {
	if err := ctx.Err(); err != nil {
		return port.ExportLocation{}, fmt.Errorf("%w: %v", errs.ErrExport, err)
	}

	header := s.w.Header()
	header.Set("Content-Type", payload.ContentType)
	header.Set("Content-Length", strconv.Itoa(len(payload.Body)))
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": payload.Filename,
	}))
	header.Set("Cache-Control", "no-store")
	s.w.WriteHeader(http.StatusOK)

	written, err := s.w.Write(payload.Body)
	if err != nil {
		return port.ExportLocation{}, fmt.Errorf("%w: write response: %v", errs.ErrExport, err)
	}

	return port.ExportLocation{
		Key:        payload.Filename,
		SizeBytes:  int64(written),
		ExportedAt: time.Now().UTC(),
	}, nil
}
