package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/infrastructure/observability/metrics"
	"github.com/dreschagin/recycling-dashboard/internal/interfaces/http/handler"
	"github.com/dreschagin/recycling-dashboard/internal/interfaces/http/middleware"
	"github.com/dreschagin/recycling-dashboard/pkg/config"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

// ReadinessCheck проверяет зависимости сервиса для /readyz
type ReadinessCheck func(ctx context.Context) error

// Router настраивает маршруты приложения
type Router struct {
	mux              *http.ServeMux
	reportHandler    *handler.ReportHandler
	healthHandler    *handler.HealthHandler
	websocketHandler *handler.WebSocketHandler
	metrics          *metrics.Metrics
	errorRate        *middleware.ErrorRateTracker
	exportLimiter    *middleware.IPRateLimiter
	readiness        ReadinessCheck
	security         config.SecurityConfig
	logger           *logger.Logger
}

// RouterDeps - зависимости router'а. metrics, errorRate, exportLimiter и readiness необязательны
type RouterDeps struct {
	ReportHandler    *handler.ReportHandler
	HealthHandler    *handler.HealthHandler
	WebSocketHandler *handler.WebSocketHandler
	Metrics          *metrics.Metrics
	ErrorRate        *middleware.ErrorRateTracker
	ExportLimiter    *middleware.IPRateLimiter
	Readiness        ReadinessCheck
	Security         config.SecurityConfig
	Logger           *logger.Logger
}

// NewRouter создает новый router
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		reportHandler:    deps.ReportHandler,
		healthHandler:    deps.HealthHandler,
		websocketHandler: deps.WebSocketHandler,
		metrics:          deps.Metrics,
		errorRate:        deps.ErrorRate,
		exportLimiter:    deps.ExportLimiter,
		readiness:        deps.Readiness,
		security:         deps.Security,
		logger:           deps.Logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// probe endpoints без авторизации
	rt.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("GET /readyz", rt.ready)
	if rt.metrics != nil {
		rt.mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	auth := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	exportHandler := protected(rt.reportHandler.Export)
	if rt.exportLimiter != nil {
		exportHandler = middleware.RateLimit(rt.exportLimiter)(exportHandler)
	}

	// Reports
	rt.mux.Handle("GET /api/v1/reports/exports", protected(rt.reportHandler.ListExports))
	rt.mux.Handle("GET /api/v1/reports/{type}", protected(rt.reportHandler.Download))
	rt.mux.Handle("POST /api/v1/reports/{type}/export", exportHandler)

	// Health
	rt.mux.Handle("GET /api/v1/health/snapshot", protected(rt.healthHandler.Snapshot))
	rt.mux.Handle("POST /api/v1/monitoring/start", protected(rt.healthHandler.Start))
	rt.mux.Handle("POST /api/v1/monitoring/stop", protected(rt.healthHandler.Stop))
	rt.mux.Handle("GET /api/v1/monitoring/status", protected(rt.healthHandler.Status))

	// WebSocket
	if rt.websocketHandler != nil {
		rt.mux.Handle("GET /ws/health", protected(rt.websocketHandler.HandleConnection))
	}

	var h http.Handler = rt.mux
	h = middleware.Compression(h)
	h = middleware.Session(h)
	if rt.errorRate != nil {
		h = rt.errorRate.Middleware(h)
	}
	h = middleware.Logger(rt.logger)(h)
	if rt.metrics != nil {
		h = rt.metrics.Middleware(h)
	}
	h = middleware.Recovery(rt.logger)(h)

	return h
}

func (rt *Router) ready(w http.ResponseWriter, r *http.Request) {
	if rt.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := rt.readiness(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", "error", err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
