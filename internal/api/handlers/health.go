// health.go — обработчики health endpoints.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (PostgreSQL доступен)
// /api/ping — быстрый ответ с текущим временем и окружением
// /api/health/db — пошаговая диагностика базы данных
// /metrics — Prometheus метрики
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Braaaaa/Hmolar-intake/internal/config"
	"github.com/Braaaaa/Hmolar-intake/internal/database"
)

const serviceName = "intake-server"

// Pinger — проверка доступности базы. Реализуется *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DiagnosticsRunner — пошаговая диагностика базы. Реализуется *database.Diagnostics.
type DiagnosticsRunner interface {
	Run(ctx context.Context) ([]database.Step, bool)
}

// DependencyReporter — состояние зависимостей по данным фонового мониторинга.
// Реализуется *service.DephealthService.
type DependencyReporter interface {
	Health() map[string]bool
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	cfg          *config.Config
	db           Pinger
	diagnostics  DiagnosticsRunner
	dependencies DependencyReporter
	promHandler  http.Handler
	readyTimeout time.Duration
}

// NewHealthHandler создаёт обработчик health endpoints.
// dependencies может быть nil — тогда в /health/ready нет блока dependencies.
func NewHealthHandler(cfg *config.Config, db Pinger, diagnostics DiagnosticsRunner, dependencies DependencyReporter) *HealthHandler {
	return &HealthHandler{
		cfg:          cfg,
		db:           db,
		diagnostics:  diagnostics,
		dependencies: dependencies,
		promHandler:  promhttp.Handler(),
		readyTimeout: 3 * time.Second,
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		PostgreSQL healthCheckResult `json:"postgresql"`
	} `json:"checks"`
	// Dependencies — последнее состояние из фонового мониторинга
	Dependencies map[string]bool `json:"dependencies,omitempty"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady — readiness probe. 200 при доступном PostgreSQL, иначе 503.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()

	switch {
	case h.db == nil:
		resp.Checks.PostgreSQL = healthCheckResult{Status: "fail", Message: "не инициализирован"}
	default:
		if err := h.db.Ping(ctx); err != nil {
			resp.Checks.PostgreSQL = healthCheckResult{Status: "fail", Message: "PostgreSQL недоступен"}
		} else {
			resp.Checks.PostgreSQL = healthCheckResult{Status: "ok", Message: "подключение активно"}
		}
	}

	if h.dependencies != nil {
		resp.Dependencies = h.dependencies.Health()
	}

	resp.Status = resp.Checks.PostgreSQL.Status
	status := http.StatusOK
	if resp.Status == "fail" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// pingResponse — ответ /api/ping.
type pingResponse struct {
	OK  bool   `json:"ok"`
	Now string `json:"now"`
	Env string `json:"env"`
}

// Ping — быстрый ответ без обращения к зависимостям.
func (h *HealthHandler) Ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, pingResponse{
		OK:  true,
		Now: time.Now().UTC().Format(time.RFC3339Nano),
		Env: h.cfg.Env,
	})
}

// dbInfo — параметры подключения без пароля.
type dbInfo struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	DB       string `json:"db"`
	User     string `json:"user"`
	Redacted string `json:"redacted"`
}

type dbDiagnostics struct {
	Now      string          `json:"now"`
	Env      string          `json:"env"`
	Database dbInfo          `json:"database"`
	Steps    []database.Step `json:"steps"`
}

type dbHealthResponse struct {
	OK          bool          `json:"ok"`
	Diagnostics dbDiagnostics `json:"diagnostics"`
}

// HealthDB — диагностика базы: подключение, SELECT 1, число анкет.
// 500 при первом неудачном шаге.
func (h *HealthHandler) HealthDB(w http.ResponseWriter, r *http.Request) {
	port := strconv.Itoa(h.cfg.DBPort)
	resp := dbHealthResponse{
		Diagnostics: dbDiagnostics{
			Now: time.Now().UTC().Format(time.RFC3339Nano),
			Env: h.cfg.Env,
			Database: dbInfo{
				Host:     h.cfg.DBHost,
				Port:     port,
				DB:       h.cfg.DBName,
				User:     h.cfg.DBUser,
				Redacted: "postgresql://" + h.cfg.DBUser + ":***@" + h.cfg.DBHost + ":" + port + "/" + h.cfg.DBName,
			},
		},
	}

	resp.Diagnostics.Steps, resp.OK = h.diagnostics.Run(r.Context())

	status := http.StatusOK
	if !resp.OK {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
