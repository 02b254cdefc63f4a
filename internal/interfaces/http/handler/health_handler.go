package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/dto"
	"github.com/dreschagin/recycling-dashboard/internal/application/monitor"
	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/interfaces/http/middleware"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

// HealthMonitor - операции монитора здоровья, нужные HTTP слою
type HealthMonitor interface {
	Start(observer port.HealthObserver) error
	Stop()
	Check(ctx context.Context) *entity.HealthSnapshot
	Status() monitor.Status
}

// HealthHandler отдает snapshot здоровья и управляет фоновым опросом
type HealthHandler struct {
	monitor  HealthMonitor
	observer port.HealthObserver
	logger   *logger.Logger
}

type monitorStatusResponse struct {
	Running      bool                   `json:"running"`
	StartedAt    *time.Time             `json:"startedAt,omitempty"`
	Interval     string                 `json:"interval"`
	LastRunAt    *time.Time             `json:"lastRunAt,omitempty"`
	LastError    string                 `json:"lastError,omitempty"`
	LastSnapshot *dto.HealthSnapshotDTO `json:"lastSnapshot,omitempty"`
}

// NewHealthHandler создает handler; observer регистрируется при POST /monitoring/start
func NewHealthHandler(monitor HealthMonitor, observer port.HealthObserver, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		monitor:  monitor,
		observer: observer,
		logger:   logger,
	}
}

// Snapshot выполняет один опрос и возвращает результат.
// GET /api/v1/health/snapshot
func (h *HealthHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot := h.monitor.Check(r.Context())
	middleware.WriteJSON(w, http.StatusOK, dto.FromHealthSnapshot(snapshot))
}

// Start запускает фоновый опрос. POST /api/v1/monitoring/start
func (h *HealthHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.Start(h.observer); err != nil {
		h.logger.Error("Failed to start health monitor", err)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to start monitoring")
		return
	}

	h.logger.Info("Health monitoring started via API", "session_id", middleware.SessionIDFrom(r.Context()))
	h.writeStatus(w)
}

// Stop останавливает фоновый опрос. POST /api/v1/monitoring/stop
func (h *HealthHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.monitor.Stop()

	h.logger.Info("Health monitoring stopped via API", "session_id", middleware.SessionIDFrom(r.Context()))
	h.writeStatus(w)
}

// Status возвращает состояние монитора. GET /api/v1/monitoring/status
func (h *HealthHandler) Status(w http.ResponseWriter, _ *http.Request) {
	h.writeStatus(w)
}

func (h *HealthHandler) writeStatus(w http.ResponseWriter) {
	status := h.monitor.Status()

	response := monitorStatusResponse{
		Running:   status.Running,
		Interval:  status.Interval.String(),
		LastError: status.LastError,
	}
	if !status.StartedAt.IsZero() && status.Running {
		startedAt := status.StartedAt.UTC()
		response.StartedAt = &startedAt
	}
	if !status.LastRunAt.IsZero() {
		lastRunAt := status.LastRunAt.UTC()
		response.LastRunAt = &lastRunAt
	}
	if status.LastSnapshot != nil {
		response.LastSnapshot = dto.FromHealthSnapshot(status.LastSnapshot)
	}

	middleware.WriteJSON(w, http.StatusOK, response)
}
