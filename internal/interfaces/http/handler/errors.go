package handler

import (
	"errors"
	"net/http"

	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
)

// statusForError сопоставляет доменную ошибку с HTTP статусом
func statusForError(err error) int {
	switch {
	case errors.Is(err, errs.ErrUnknownReportType),
		errors.Is(err, errs.ErrInvalidDateRange),
		errors.Is(err, errs.ErrUnsupportedFormat),
		errors.Is(err, errs.ErrPathNotFound),
		errors.Is(err, errs.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrSourceFetch):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrEncoding):
		return http.StatusInternalServerError
	case errors.Is(err, errs.ErrExport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage не раскрывает внутренние детали для 5xx
func publicMessage(status int, err error) string {
	switch status {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusBadGateway:
		var sourceErr *errs.SourceFetchError
		if errors.As(err, &sourceErr) {
			return "metric source unavailable: " + sourceErr.Source
		}
		return "metric source unavailable"
	case http.StatusServiceUnavailable:
		return "export destination unavailable"
	default:
		return "internal server error"
	}
}
