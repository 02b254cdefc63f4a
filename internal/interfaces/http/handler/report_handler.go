package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/dto"
	"github.com/dreschagin/recycling-dashboard/internal/application/usecase"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
	"github.com/dreschagin/recycling-dashboard/internal/interfaces/http/middleware"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

// ReportHandler обслуживает скачивание, выгрузку и список выгрузок отчетов
type ReportHandler struct {
	exportUC *usecase.ExportReportUseCase
	listUC   *usecase.ListExportsUseCase
	logger   *logger.Logger
}

// NewReportHandler создает новый handler
func NewReportHandler(
	exportUC *usecase.ExportReportUseCase,
	listUC *usecase.ListExportsUseCase,
	logger *logger.Logger,
) *ReportHandler {
	return &ReportHandler{
		exportUC: exportUC,
		listUC:   listUC,
		logger:   logger,
	}
}

// Download собирает отчет и отдает его файлом.
// GET /api/v1/reports/{type}?days=30&format=json|csv&path=
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	cmd, err := h.exportCommand(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rendered, err := h.exportUC.Render(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := NewResponseSink(w).Export(r.Context(), rendered.Payload); err != nil {
		// заголовки уже могли уйти клиенту
		h.logger.Warn("Failed to write report download",
			"report_type", rendered.Report.Type().String(),
			"session_id", cmd.SessionID,
			"error", err.Error(),
		)
	}
}

// Export выгружает отчет в настроенное хранилище.
// POST /api/v1/reports/{type}/export?days=&format=&path=
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	cmd, err := h.exportCommand(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.exportUC.Execute(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, usecase.ToExportDTO(result))
}

// ListExports возвращает страницу выгрузок одного типа отчета.
// GET /api/v1/reports/exports?type=&limit=&cursor=&from=&to=
func (h *ReportHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	cmd := usecase.ListExportsCommand{
		ReportType: query.Get("type"),
		Cursor:     query.Get("cursor"),
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			h.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", errs.ErrInvalidQuery))
			return
		}
		cmd.Limit = limit
	}

	var err error
	if cmd.From, err = parseQueryTime(query.Get("from"), "from"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if cmd.To, err = parseQueryTime(query.Get("to"), "to"); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.listUC.Execute(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]dto.ExportDTO, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, usecase.ToExportDTO(&result.Items[i]))
	}

	middleware.WriteJSON(w, http.StatusOK, dto.ExportListDTO{
		Items:      items,
		NextCursor: result.NextCursor,
	})
}

func (h *ReportHandler) exportCommand(r *http.Request) (usecase.ExportReportCommand, error) {
	query := r.URL.Query()

	days, err := parseDays(query.Get("days"))
	if err != nil {
		return usecase.ExportReportCommand{}, err
	}

	return usecase.ExportReportCommand{
		Type:          r.PathValue("type"),
		DateRangeDays: days,
		Format:        query.Get("format"),
		Path:          query.Get("path"),
		SessionID:     middleware.SessionIDFrom(r.Context()),
	}, nil
}

func (h *ReportHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)

	fields := []interface{}{
		"path", r.URL.Path,
		"status", status,
		"session_id", middleware.SessionIDFrom(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Report request failed", err, fields...)
	} else {
		h.logger.Debug("Report request rejected", append(fields, "error", err.Error())...)
	}

	middleware.WriteError(w, status, publicMessage(status, err))
}

// parseDays: пустое значение и 0 означают окно по умолчанию
func parseDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: days must be an integer, got %q", errs.ErrInvalidDateRange, raw)
	}
	return days, nil
}

func parseQueryTime(raw, name string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339", errs.ErrInvalidQuery, name)
	}
	return parsed, nil
}
